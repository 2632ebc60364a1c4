package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicRuntime talks to the Anthropic Messages API.
type AnthropicRuntime struct {
	client anthropic.Client
	host   string
}

func NewAnthropicRuntime(c RuntimeConfig) *AnthropicRuntime {
	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		// Rate limits are retried by the agent, everything else is not.
		option.WithMaxRetries(0),
	}
	host := "api.anthropic.com"
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
		host = c.BaseURL
	}
	if c.HTTPTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(c.HTTPTimeout))
	}
	return &AnthropicRuntime{client: anthropic.NewClient(opts...), host: host}
}

func (r *AnthropicRuntime) Provider() string { return ProviderAnthropic }

func (r *AnthropicRuntime) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toAnthropicMessages(req.Messages),
		Tools:     toAnthropicTools(req.Tools),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return nil, r.classify(err)
	}

	out := &ChatResponse{
		Message:    Message{Role: RoleAssistant},
		StopReason: string(resp.StopReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
	var text []string
	for _, blk := range resp.Content {
		switch blk.Type {
		case "text":
			text = append(text, blk.Text)
		case "tool_use":
			out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{ID: blk.ID, Name: blk.Name, Arguments: ToolArguments(blk.Input)})
		}
	}
	out.Message.Content = strings.Join(text, "\n")
	return out, nil
}

// toAnthropicMessages folds consecutive tool results into a single user
// turn, as the Messages API requires.
func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
		case RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	flush()
	return out
}

func toAnthropicTools(tools []ToolDef) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{Type: "object"}
		if t.Parameters != nil {
			if len(t.Parameters.Properties) > 0 {
				schema.Properties = t.Parameters.Properties
			}
			schema.Required = t.Parameters.Required
		}
		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.Opt(t.Description),
			InputSchema: schema,
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

// anthropicErrorBody is the JSON error envelope of the Messages API.
type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *AnthropicRuntime) classify(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return transportError(r.host, err)
	}
	out := &APIError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, RequestID: apiErr.RequestID}
	var body anthropicErrorBody
	if json.Unmarshal([]byte(apiErr.RawJSON()), &body) == nil {
		out.Code = body.Error.Type
		out.Message = body.Error.Message
	}
	header := http.Header{}
	if apiErr.Response != nil {
		header = apiErr.Response.Header
		if out.RequestID == "" {
			out.RequestID = extractRequestID(header)
		}
	}
	return classify(out, header)
}
