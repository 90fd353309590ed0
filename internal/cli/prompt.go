package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	promptText string
	promptTopK int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the grounded prompt for a question",
	Long: `Retrieve context for a question and print the exact prompt that would be sent
to the language model, for use with another model or for debugging.

Examples:
  docqa prompt -q "How many vacation days do employees get?"`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptText, "question", "q", "", "question (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	promptCmd.MarkFlagRequired("question")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), false, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	topK := cfg.Retrieve.TopK
	if promptTopK > 0 {
		topK = promptTopK
	}

	prompt, _, err := a.answer.Prompt(cmd.Context(), promptText, topK)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}
	if prompt == "" {
		return fmt.Errorf("no relevant context found. Run 'docqa ingest' first")
	}

	fmt.Println(prompt)
	return nil
}
