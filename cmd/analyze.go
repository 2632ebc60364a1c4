package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/ingest"
	"github.com/KaramelBytes/dataloom-cli/internal/report"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputPath string
	anaSampleRows int
	anaGroupBy    string
	anaCorr       bool
	anaOutliers   bool
	anaSheetName  string
	anaReport     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze CSV/TSV/Excel files and produce a Markdown summary",
	Example: `  dataloom analyze uploads/sample_data.csv
  dataloom analyze sales.xlsx --sheet-name Q1 --group-by Region -o q1.md
  dataloom analyze a.csv b.csv --report pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultSummaryOptions()
		if anaSampleRows > 0 {
			opt.SampleRows = anaSampleRows
		}
		opt.GroupBy = anaGroupBy
		opt.Correlations = anaCorr
		opt.Outliers = anaOutliers

		ws := workspaceEnv().NewWorkspace()
		defer ws.Close()

		var parts []string
		var sections []report.Section
		for _, path := range args {
			loaded, err := ws.Loader.LoadTabular(ws.Store, ingest.TabularRequest{Path: path, Sheet: anaSheetName})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			ds, err := ws.Store.Resolve(loaded.Dataset)
			if err != nil {
				return err
			}
			md := analysis.Summarize(ds, opt).Markdown()
			parts = append(parts, md)
			sections = append(sections, report.Section{Heading: loaded.Dataset, Content: md})
			logger.Debug("analyzed dataset", "dataset", loaded.Dataset, "rows", loaded.Rows)
		}
		md := strings.Join(parts, "\n---\n\n")

		// Decide where to write: --output path, a report in outputs, or stdout
		written := false
		if anaOutputPath != "" {
			if err := utils.EnsureDir(filepath.Dir(anaOutputPath)); err != nil {
				return err
			}
			if err := os.WriteFile(anaOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
			written = true
		}
		if anaReport != "" {
			title := "Data Analysis: " + strings.Join(ws.Store.Names(), ", ")
			var rep *report.Report
			var err error
			switch strings.ToLower(anaReport) {
			case "md", "markdown":
				rep, err = ws.Reports.Markdown(title, sections)
			case "pdf":
				rep, err = ws.Reports.PDF(title, sections, nil)
			default:
				return fmt.Errorf("unsupported --report: %s (use markdown|pdf)", anaReport)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", rep.Format, rep.Path)
			written = true
		}
		if !written {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().StringVar(&anaGroupBy, "group-by", "", "column to group numeric statistics by")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "include the strongest Pearson correlations")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "include IQR outlier counts")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "Excel: sheet name to analyze")
	analyzeCmd.Flags().StringVar(&anaReport, "report", "", "also write a report into the outputs dir: markdown|pdf")
}
