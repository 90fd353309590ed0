package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/usecase"
)

var (
	askText        string
	askTopK        int
	askJSON        bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question from the documents",
	Long: `Retrieve the chunks most relevant to the question and ask the language model
to answer from them. The index is built from data_dir first if it is empty.

Examples:
  docqa ask -q "How many vacation days do employees get?"
  docqa ask -q "What is the remote work policy?" -k 5 --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askText, "question", "q", "", "question to answer (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the retrieved chunks")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), true, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	session := usecase.NewSession()
	if _, err := a.chat.Initialize(cmd.Context(), session, newProgress()); err != nil {
		return err
	}

	topK := cfg.Retrieve.TopK
	if askTopK > 0 {
		topK = askTopK
	}
	result := a.answer.Answer(cmd.Context(), askText, nil, topK)

	if askJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, s := range result.Sources {
			fmt.Printf("  - %s\n", s)
		}
	}
	if askShowContext {
		fmt.Printf("\nContext:\n")
		for i, c := range result.Context {
			fmt.Printf("--- [%d] ---\n%s\n", i+1, c)
		}
	}
	return nil
}
