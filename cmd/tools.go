package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	toolsJSON    bool
	toolPreload  []string
	toolArgsFile string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the assistant can call",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := tools.Default(logger).Catalog()
		if toolsJSON {
			return printJSON(cmd.OutOrStdout(), catalog)
		}
		tw := tablewriter.NewWriter(cmd.OutOrStdout())
		tw.SetHeader([]string{"Tool", "Required", "Description"})
		tw.SetAutoFormatHeaders(false)
		tw.SetBorder(false)
		tw.SetColWidth(60)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range catalog {
			tw.Append([]string{s.Name, strings.Join(s.InputSchema.Required, ", "), s.Description})
		}
		tw.Render()
		return nil
	},
}

var toolCmd = &cobra.Command{
	Use:   "tool <name> [json-args]",
	Short: "Invoke one tool directly and print its JSON result",
	Example: `  dataloom tool load_csv '{"file_path":"sample_data.csv"}'
  dataloom tool describe_data '{"dataset_name":"sample_data"}' --load sample_data.csv
  echo '{"dataset_name":"sample_data","column":"Salary"}' | dataloom tool detect_outliers - --load sample_data.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := toolArgs(cmd.InOrStdin(), args[1:])
		if err != nil {
			return err
		}
		reg := tools.Default(logger)
		ws := workspaceEnv().NewWorkspace()
		defer ws.Close()
		if err := preload(cmd.Context(), reg, ws, toolPreload); err != nil {
			return err
		}

		res := reg.Invoke(cmd.Context(), ws, args[0], raw)
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.OK() {
			return &errinfo.Error{Code: res.Code(), Message: res.Message()}
		}
		return nil
	},
}

// toolArgs reads the JSON arguments from the positional argument, a file,
// or stdin when the argument is "-".
func toolArgs(stdin io.Reader, rest []string) ([]byte, error) {
	switch {
	case toolArgsFile != "":
		b, err := os.ReadFile(toolArgsFile)
		if err != nil {
			return nil, fmt.Errorf("read args file: %w", err)
		}
		return b, nil
	case len(rest) == 0:
		return nil, nil
	case rest[0] == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read args from stdin: %w", err)
		}
		return b, nil
	default:
		return []byte(rest[0]), nil
	}
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(toolCmd)
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "print the catalog with full JSON schemas")
	toolCmd.Flags().StringSliceVar(&toolPreload, "load", nil, "files to load before invoking the tool (repeatable)")
	toolCmd.Flags().StringVar(&toolArgsFile, "args-file", "", "read JSON arguments from a file")
}
