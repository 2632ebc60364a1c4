package cmd

import (
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show providers, their default models and known context windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		tw := newTable(out, []string{"Provider", "Default model"})
		for _, p := range ai.Providers() {
			tw.Append([]string{p, ai.DefaultModel(p)})
		}
		tw.Render()
		fmt.Fprintln(out)

		tw = newTable(out, []string{"Model", "Context tokens"})
		for _, m := range ai.Models() {
			tw.Append([]string{m.Name, fmt.Sprint(m.ContextTokens)})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
