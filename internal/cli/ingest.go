package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/internal/domain"
	"docqa/internal/usecase"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index the documents of a directory",
	Long: `Load every PDF and text file under the directory (default: data_dir from the
config), split it into chunks, embed the chunks and store them in the index.

Examples:
  docqa ingest                 # Index ./data
  docqa ingest ./policies      # Index a specific directory
  docqa ingest --rebuild       # Delete the index and ingest again`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestRebuild, "rebuild", false, "delete the existing index first")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := newApp(cfg, GetRootDir(), false, GetLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.dataDir
	if len(args) > 0 {
		dir, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	if ingestRebuild {
		if err := a.cached.Reset(); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
	} else if !a.cached.IsEmpty() {
		fmt.Printf("Index already holds %d chunks. Use --rebuild to ingest again.\n", a.vectors.Count())
		return nil
	}

	fmt.Printf("Scanning %s...\n", dir)
	start := time.Now()

	result, err := a.indexer.Index(cmd.Context(), dir, newProgress())
	if errors.Is(err, domain.ErrNoDocuments) {
		printLoadErrors(result)
		return fmt.Errorf("no documents were processed, check %s for valid PDF or TXT files", dir)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nIngestion complete in %s:\n", formatDuration(time.Since(start)))
	fmt.Printf("  Files found:      %d\n", result.FilesFound)
	fmt.Printf("  Documents loaded: %d\n", result.DocumentsLoaded)
	fmt.Printf("  Chunks created:   %d\n", result.ChunksCreated)
	printLoadErrors(result)

	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexPath(GetRootDir()))
	return nil
}

// newProgress renders the embedding stage as a progress bar.
func newProgress() usecase.ProgressFunc {
	var bar *progressbar.ProgressBar

	return func(stage string, current, total int) {
		switch stage {
		case usecase.StageLoading:
			if total > 0 {
				fmt.Printf("Loaded %d of %d files\n", current, total)
			}
		case usecase.StageChunking:
			fmt.Printf("Split into %d chunks\n", total)
		case usecase.StageEmbedding:
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionShowBytes(false),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "[green]=[reset]",
						SaucerHead:    "[green]>[reset]",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(current)
		}
	}
}

func printLoadErrors(result *usecase.IndexResult) {
	if result == nil || len(result.Errors) == 0 {
		return
	}
	fmt.Printf("\nWarnings:\n")
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
