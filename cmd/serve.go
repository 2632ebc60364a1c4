package cmd

import (
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/server"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/spf13/cobra"
)

var (
	serveAddr    string
	serveNoAgent bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, Prometheus metrics and a streamable MCP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := tools.Default(logger)
		var a *agent.Agent
		if !serveNoAgent {
			var err error
			if a, err = newAgent(reg); err != nil {
				return err
			}
		}
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := server.New(server.Config{
			Registry:   reg,
			Env:        workspaceEnv(),
			Agent:      a,
			SessionTTL: cfg.SessionTTL(),
			Version:    Version,
			Logger:     logger,
		})
		return s.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides listen_addr)")
	serveCmd.Flags().BoolVar(&serveNoAgent, "no-agent", false, "serve tools only; the messages endpoint returns 503")
}
