package ai

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Runtime is a chat backend that can ask for tool calls.
type Runtime interface {
	Provider() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolArguments normalises the argument text a model sent with a tool call.
// Empty input becomes an empty object. Text that is not valid JSON, such as
// a truncated object, is kept as a JSON string so the call still encodes and
// the tool rejects it as invalid input.
func ToolArguments(raw []byte) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}

// Message is one conversation turn. Tool messages answer the call with the
// matching ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// ToolDef advertises a callable tool.
type ToolDef struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

type ChatRequest struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolDef
	MaxTokens   int
	Temperature float64
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse carries the assistant turn. Message.ToolCalls is non-empty
// when the model wants tools run before it answers.
type ChatResponse struct {
	Message    Message
	StopReason string
	Usage      Usage
}
