package cmd

import (
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/dataloom-cli/internal/mcpserver"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve every tool to an MCP client over stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout. All calls share one
workspace, so datasets loaded by one call stay available to the next. Logs go
to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ws := workspaceEnv().NewWorkspace()
		defer ws.Close()
		return mcpserver.New(tools.Default(logger), ws, Version, logger).RunStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
