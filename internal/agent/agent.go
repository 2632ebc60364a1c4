// Package agent drives the conversation loop between a model runtime and
// the tool registry.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

const (
	DefaultMaxToolRounds = 8

	// toolResultShare is the fraction of the model's context one tool
	// result may take.
	toolResultShare  = 8
	truncationMarker = "\n...[truncated]"
	exhaustedPrompt  = "Tool budget for this message is used up. Answer with what the tools have returned so far."
)

// Options tunes model calls.
type Options struct {
	Model         string
	System        string
	MaxTokens     int
	Temperature   float64
	MaxToolRounds int
}

// Agent answers user messages by letting the model call tools.
type Agent struct {
	Runtime  ai.Runtime
	Registry *tools.Registry
	Retry    RetryPolicy
	Options  Options
	Logger   *slog.Logger

	defs []ai.ToolDef
}

func New(rt ai.Runtime, reg *tools.Registry, retry RetryPolicy, opt Options, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if opt.MaxToolRounds <= 0 {
		opt.MaxToolRounds = DefaultMaxToolRounds
	}
	if opt.System == "" {
		opt.System = SystemPrompt
	}
	if opt.Model == "" {
		opt.Model = ai.DefaultModel(rt.Provider())
	}
	if retry.Logger == nil {
		retry.Logger = logger
	}
	a := &Agent{Runtime: rt, Registry: reg, Retry: retry, Options: opt, Logger: logger}
	for _, s := range reg.Catalog() {
		a.defs = append(a.defs, ai.ToolDef{Name: s.Name, Description: s.Description, Parameters: s.InputSchema})
	}
	return a
}

// Conversation is the history of one session plus the workspace its tool
// calls operate on. It is not safe for concurrent use.
type Conversation struct {
	Workspace *tools.Workspace
	History   []ai.Message
}

func NewConversation(ws *tools.Workspace) *Conversation {
	return &Conversation{Workspace: ws}
}

// Step records one tool call made while answering.
type Step struct {
	Tool    string          `json:"tool"`
	Args    json.RawMessage `json:"args"`
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
}

// Reply is the answer to one user message.
type Reply struct {
	Text      string   `json:"reply"`
	Trace     []Step   `json:"trace"`
	Artifacts []string `json:"artifacts"`
	Rounds    int      `json:"rounds"`
	Usage     ai.Usage `json:"usage"`
}

// Send appends text to conv and runs model rounds until the model answers
// without tool calls or the round budget is spent. On error conv is left
// as it was before the call.
func (a *Agent) Send(ctx context.Context, conv *Conversation, text string) (*Reply, error) {
	start := len(conv.History)
	conv.History = append(conv.History, ai.Message{Role: ai.RoleUser, Content: text})
	reply := &Reply{Trace: []Step{}, Artifacts: []string{}}

	for reply.Rounds < a.Options.MaxToolRounds {
		reply.Rounds++
		resp, err := a.chat(ctx, conv.History, a.defs)
		if err != nil {
			conv.History = conv.History[:start]
			return nil, err
		}
		addUsage(&reply.Usage, resp.Usage)
		for i, call := range resp.Message.ToolCalls {
			resp.Message.ToolCalls[i].Arguments = ai.ToolArguments(call.Arguments)
		}
		conv.History = append(conv.History, resp.Message)
		if len(resp.Message.ToolCalls) == 0 {
			reply.Text = resp.Message.Content
			return reply, nil
		}
		a.Logger.Debug("model requested tools", "round", reply.Rounds, "calls", len(resp.Message.ToolCalls))
		for _, call := range resp.Message.ToolCalls {
			conv.History = append(conv.History, a.runTool(ctx, conv.Workspace, call, reply))
		}
	}

	// Out of rounds: ask for a final answer with tools withheld.
	a.Logger.Warn("tool round budget exhausted", "rounds", reply.Rounds)
	conv.History = append(conv.History, ai.Message{Role: ai.RoleUser, Content: exhaustedPrompt})
	resp, err := a.chat(ctx, conv.History, nil)
	if err != nil {
		conv.History = conv.History[:start]
		return nil, err
	}
	addUsage(&reply.Usage, resp.Usage)
	conv.History = append(conv.History, resp.Message)
	reply.Text = resp.Message.Content
	return reply, nil
}

func (a *Agent) chat(ctx context.Context, history []ai.Message, defs []ai.ToolDef) (*ai.ChatResponse, error) {
	provider := a.Runtime.Provider()
	req := ai.ChatRequest{
		Model:       a.Options.Model,
		System:      a.Options.System,
		Messages:    history,
		Tools:       defs,
		MaxTokens:   a.Options.MaxTokens,
		Temperature: a.Options.Temperature,
	}
	begin := time.Now()
	resp, err := a.Retry.Do(ctx, provider, func() (*ai.ChatResponse, error) {
		return a.Runtime.Chat(ctx, req)
	})
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(provider, "success").Inc()
	a.Logger.Debug("model call", "provider", provider, "model", a.Options.Model, "duration", time.Since(begin),
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	return resp, nil
}

// runTool executes one call and returns the tool message answering it.
func (a *Agent) runTool(ctx context.Context, ws *tools.Workspace, call ai.ToolCall, reply *Reply) ai.Message {
	res := a.Registry.Invoke(ctx, ws, call.Name, call.Arguments)
	reply.Trace = append(reply.Trace, Step{Tool: call.Name, Args: call.Arguments, Status: res.Status(), Message: res.Message()})
	for _, key := range []string{"chart_path", "report_path"} {
		if p, ok := res[key].(string); ok && p != "" {
			reply.Artifacts = append(reply.Artifacts, p)
		}
	}
	return ai.Message{
		Role:       ai.RoleTool,
		ToolCallID: call.ID,
		Content:    a.clip(res.String()),
		IsError:    !res.OK(),
	}
}

// clip keeps a tool result within its share of the model's context.
func (a *Agent) clip(s string) string {
	limit := ai.ContextTokens(a.Options.Model) / toolResultShare
	if utils.CountTokens(s) <= limit {
		return s
	}
	return utils.TruncateToTokenLimit(s, limit) + truncationMarker
}

func addUsage(total *ai.Usage, u ai.Usage) {
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
