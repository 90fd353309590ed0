package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the index without generating an answer",
	Long: `Show the chunks most similar to a query, with their sources and scores.

Examples:
  docqa query -q "parental leave"
  docqa query -q "expense reports" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), false, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cached.IsEmpty() {
		return fmt.Errorf("no index found. Run 'docqa ingest' first")
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	chunks, err := a.retrieve.Retrieve(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToResults(chunks)

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("--- [%d] %s (score: %.4f) ---\n", i+1, r.Source, r.Score)
		fmt.Println(strings.TrimSpace(r.Text))
		fmt.Println()
	}
	return nil
}
