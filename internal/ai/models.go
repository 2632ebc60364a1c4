package ai

import "sort"

// Model metadata used to size prompts and tool output.

type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
}

const fallbackContextTokens = 8192

var models = map[string]ModelInfo{
	// Groq
	"meta-llama/llama-4-scout-17b-16e-instruct": {Name: "meta-llama/llama-4-scout-17b-16e-instruct", ContextTokens: 131072},
	"llama-3.3-70b-versatile":                   {Name: "llama-3.3-70b-versatile", ContextTokens: 131072},
	"llama-3.1-8b-instant":                      {Name: "llama-3.1-8b-instant", ContextTokens: 131072},
	// OpenAI
	"gpt-4o-mini":  {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":       {Name: "gpt-4o", ContextTokens: 128000},
	"gpt-4.1-mini": {Name: "gpt-4.1-mini", ContextTokens: 1047576},
	// Anthropic
	"claude-sonnet-4-5":        {Name: "claude-sonnet-4-5", ContextTokens: 200000},
	"claude-3-5-haiku-latest":  {Name: "claude-3-5-haiku-latest", ContextTokens: 200000},
	"claude-3-7-sonnet-latest": {Name: "claude-3-7-sonnet-latest", ContextTokens: 200000},
	// Common local (Ollama) tags
	"llama3.1:8b":         {Name: "llama3.1:8b", ContextTokens: 8192},
	"qwen2.5:7b-instruct": {Name: "qwen2.5:7b-instruct", ContextTokens: 32768},
}

var defaultModels = map[string]string{
	ProviderGroq:      "meta-llama/llama-4-scout-17b-16e-instruct",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderOllama:    "llama3.1:8b",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// ContextTokens returns the context window of model, or a conservative
// default for unknown models.
func ContextTokens(model string) int {
	if mi, ok := models[model]; ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return fallbackContextTokens
}

// Models lists the known models sorted by name.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
