package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample employee dataset into the uploads directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.EnsureDir(cfg.UploadsDir); err != nil {
			return err
		}
		path := filepath.Join(cfg.UploadsDir, dataset.SampleFileName)
		if _, err := os.Stat(path); err == nil && !seedForce {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s already exists (use --force to overwrite)\n", path)
			return nil
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := utils.SafeWriteFile(path, []byte(dataset.SampleCSV)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s (%d rows)\n", path, dataset.Sample().NumRows())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVarP(&seedForce, "force", "f", false, "overwrite an existing sample file")
}
