package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the index holds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

type statusOutput struct {
	IndexPath      string `json:"index_path"`
	DataDir        string `json:"data_dir"`
	Chunks         int    `json:"chunks"`
	SchemaVersion  int    `json:"schema_version,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Dimension      int    `json:"dimension,omitempty"`
	Metric         string `json:"metric,omitempty"`
	ChatModel      string `json:"chat_model"`
	Cache          string `json:"cache"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	vectors, err := openIndexOnly(cfg, root, GetLogger())
	if err != nil {
		return err
	}
	defer vectors.Close()

	out := statusOutput{
		IndexPath: cfg.IndexPath(root),
		DataDir:   cfg.DataPath(root),
		Chunks:    vectors.Count(),
		ChatModel: cfg.LLM.Model,
		Cache:     cfg.Cache.Type,
	}
	if fp, ok := vectors.Fingerprint(); ok {
		out.SchemaVersion = fp.SchemaVersion
		out.EmbeddingModel = fp.EmbeddingModel
		out.Dimension = fp.Dimension
		out.Metric = fp.Metric
	}

	if statusJSON {
		output, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Index:      %s\n", out.IndexPath)
	fmt.Printf("Data dir:   %s\n", out.DataDir)
	if out.Chunks == 0 {
		fmt.Println("Status:     empty (run 'docqa ingest')")
	} else {
		fmt.Printf("Chunks:     %d\n", out.Chunks)
		fmt.Printf("Embeddings: %s (%d dimensions, %s)\n", out.EmbeddingModel, out.Dimension, out.Metric)
	}
	fmt.Printf("Chat model: %s\n", out.ChatModel)
	fmt.Printf("Cache:      %s\n", out.Cache)
	return nil
}
