package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/spf13/cobra"
)

var (
	chatMessage string
	chatPreload []string
	chatTrace   bool
)

const chatHelp = `Commands:
  /datasets   list loaded datasets
  /reset      forget the conversation and every loaded dataset
  /help       show this help
  /exit       quit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the data assistant",
	Example: `  dataloom chat
  dataloom chat --load sample_data.csv -m "which department earns the most?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := tools.Default(logger)
		a, err := newAgent(reg)
		if err != nil {
			return err
		}
		ws := workspaceEnv().NewWorkspace()
		defer ws.Close()
		if err := preload(cmd.Context(), reg, ws, chatPreload); err != nil {
			return err
		}
		conv := agent.NewConversation(ws)
		out := cmd.OutOrStdout()

		if chatMessage != "" {
			return ask(cmd.Context(), out, a, conv, chatMessage)
		}

		fmt.Fprintf(out, "dataloom chat (%s, %s). Type /help for commands.\n", cfg.Provider, a.Options.Model)
		sc := bufio.NewScanner(cmd.InOrStdin())
		sc.Buffer(make([]byte, 64*1024), 1<<20)
		for {
			fmt.Fprint(out, "\n> ")
			if !sc.Scan() {
				fmt.Fprintln(out)
				return sc.Err()
			}
			line := strings.TrimSpace(sc.Text())
			switch line {
			case "":
				continue
			case "/exit", "/quit":
				return nil
			case "/help":
				fmt.Fprintln(out, chatHelp)
				continue
			case "/reset":
				ws.Store.Clear()
				conv.History = nil
				fmt.Fprintln(out, "✓ Conversation and datasets cleared")
				continue
			case "/datasets":
				if err := printJSON(out, ws.Datasets()); err != nil {
					return err
				}
				continue
			}
			if err := ask(cmd.Context(), out, a, conv, line); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", err)
			}
		}
	},
}

func ask(ctx context.Context, out io.Writer, a *agent.Agent, conv *agent.Conversation, text string) error {
	reply, err := a.Send(ctx, conv, text)
	if err != nil {
		return err
	}
	if chatTrace {
		for _, s := range reply.Trace {
			mark := "✓"
			if s.Status != tools.StatusSuccess {
				mark = "✗"
			}
			fmt.Fprintf(out, "  %s %s %s\n", mark, s.Tool, string(s.Args))
		}
	}
	fmt.Fprintln(out, reply.Text)
	for _, p := range reply.Artifacts {
		fmt.Fprintf(out, "  → %s\n", p)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "send one message and exit")
	chatCmd.Flags().StringSliceVar(&chatPreload, "load", nil, "files to load before chatting (repeatable)")
	chatCmd.Flags().BoolVar(&chatTrace, "trace", true, "print each tool call")
}
