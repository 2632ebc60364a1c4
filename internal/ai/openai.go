package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// Base URLs of the OpenAI-compatible providers.
const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OllamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIRuntime talks to any OpenAI-compatible chat completions endpoint:
// OpenAI itself, Groq and local Ollama.
type OpenAIRuntime struct {
	client   *openai.Client
	provider string
	host     string
}

func NewOpenAIRuntime(provider string, c RuntimeConfig) *OpenAIRuntime {
	config := openai.DefaultConfig(c.APIKey)
	switch {
	case c.BaseURL != "":
		config.BaseURL = c.BaseURL
	case provider == ProviderGroq:
		config.BaseURL = GroqBaseURL
	case provider == ProviderOllama:
		config.BaseURL = OllamaBaseURL
	}
	config.HTTPClient = &http.Client{Timeout: c.HTTPTimeout}
	host := config.BaseURL
	if u, err := url.Parse(config.BaseURL); err == nil {
		host = u.Host
	}
	return &OpenAIRuntime{client: openai.NewClientWithConfig(config), provider: provider, host: host}
}

func (r *OpenAIRuntime) Provider() string { return r.provider }

func (r *OpenAIRuntime) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		msgs = append(msgs, msg)
	}

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Tools:       tools,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, r.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ServerError{APIError: &APIError{Provider: r.provider, StatusCode: http.StatusOK, Message: "response has no choices"}}
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Message:    Message{Role: RoleAssistant, Content: choice.Message.Content},
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: ToolArguments([]byte(tc.Function.Arguments)),
		})
	}
	return out, nil
}

func (r *OpenAIRuntime) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return classify(&APIError{
			Provider:   r.provider,
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
		}, http.Header{})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := string(reqErr.Body)
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return classify(&APIError{Provider: r.provider, StatusCode: reqErr.HTTPStatusCode, Message: msg}, http.Header{})
	}
	return transportError(r.host, err)
}
