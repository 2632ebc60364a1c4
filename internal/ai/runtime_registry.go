package ai

import (
	"sort"
	"time"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) Runtime

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	APIKey      string
	// BaseURL overrides the provider's default endpoint.
	BaseURL string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// GetRuntime creates a Runtime for the given provider if registered.
func GetRuntime(name string, cfg RuntimeConfig) (Runtime, bool) {
	if f, ok := registry[name]; ok {
		if cfg.HTTPTimeout <= 0 {
			cfg.HTTPTimeout = 60 * time.Second
		}
		return f(cfg), true
	}
	return nil, false
}

// Providers lists registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in runtimes.
func init() {
	for _, p := range []string{ProviderOpenAI, ProviderGroq, ProviderOllama} {
		RegisterRuntime(p, func(c RuntimeConfig) Runtime { return NewOpenAIRuntime(p, c) })
	}
	RegisterRuntime(ProviderAnthropic, func(c RuntimeConfig) Runtime { return NewAnthropicRuntime(c) })
}
