package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a folder of PDF and text documents",
	Long: `docqa ingests the PDF and text files of a directory into a local vector
index and answers questions about them with a hosted language model, citing
the documents each answer came from.

Example usage:
  docqa ingest                          # Index ./data
  docqa ask -q "How many vacation days?" # One-off question
  docqa chat                            # Interactive chat`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		loadDotEnv(rootDir)

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logging.New(cfg.Logging, os.Stderr, verbose)
		if err != nil {
			return fmt.Errorf("invalid logging config: %w", err)
		}
		slog.SetDefault(logger)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docqa.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadDotEnv loads credentials from a .env file in the root directory or the
// working directory. Variables already set in the environment win.
func loadDotEnv(dir string) {
	for _, path := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("failed to load .env file", "path", path, "error", err)
		}
		return
	}
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
