package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/ingest"
	"github.com/spf13/cobra"
)

var (
	loadName  string
	loadSheet string
)

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a CSV/TSV/Excel file and print its schema, preview and statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := workspaceEnv().NewWorkspace()
		defer ws.Close()
		loaded, err := ws.Loader.LoadTabular(ws.Store, ingest.TabularRequest{
			Path:  args[0],
			Name:  loadName,
			Sheet: loadSheet,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Loaded '%s': %d rows x %d columns\n", loaded.Dataset, loaded.Rows, len(loaded.Columns))
		if len(loaded.Sheets) > 1 {
			fmt.Fprintf(out, "  sheets: %s\n", strings.Join(loaded.Sheets, ", "))
		}
		fmt.Fprintln(out)
		for _, c := range loaded.Columns {
			fmt.Fprintf(out, "  %-24s %s\n", c, loaded.ColumnTypes[c])
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, loaded.Preview)

		ds, err := ws.Store.Resolve(loaded.Dataset)
		if err != nil {
			return err
		}
		return printJSON(out, analysis.Describe(ds))
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&loadName, "name", "n", "", "dataset name (default: file name without extension)")
	loadCmd.Flags().StringVar(&loadSheet, "sheet", "", "Excel: sheet name (default: first sheet)")
}
