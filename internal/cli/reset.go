package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the index",
	Long: `Delete the index file so the next ingest starts from scratch. Running it when
no index exists is not an error.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	vectors, err := openIndexOnly(cfg, GetRootDir(), GetLogger())
	if err != nil {
		return err
	}
	defer vectors.Close()

	if err := vectors.Reset(); err != nil {
		return err
	}

	fmt.Printf("Index removed: %s\n", cfg.IndexPath(GetRootDir()))
	return nil
}
