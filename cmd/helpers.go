package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
)

var providerKeyHint = map[string]string{
	ai.ProviderGroq:      "GROQ_API_KEY",
	ai.ProviderOpenAI:    "OPENAI_API_KEY",
	ai.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// workspaceEnv roots workspaces at the configured directories.
func workspaceEnv() tools.Env {
	return tools.Env{UploadsDir: cfg.UploadsDir, OutputsDir: cfg.OutputsDir, Logger: logger}
}

// newAgent builds the model runtime and agent from the loaded config. It
// fails fast when no API key is configured for a hosted provider.
func newAgent(reg *tools.Registry) (*agent.Agent, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.APIKey == "" && provider != ai.ProviderOllama {
		hint := "DATALOOM_API_KEY"
		if env, ok := providerKeyHint[provider]; ok {
			hint += " or " + env
		}
		return nil, fmt.Errorf("API key is missing: set %s, or run 'dataloom config set api_key <key>'", hint)
	}
	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: cfg.HTTPTimeout(),
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
	})
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", cfg.Provider, strings.Join(ai.Providers(), ", "))
	}
	retry := agent.RetryPolicy{
		Delays: agent.EscalatingDelays(cfg.RetryMaxAttempts, cfg.RetryBaseDelay(), cfg.RetryMaxDelay()),
		Logger: logger,
	}
	opt := agent.Options{
		Model:         cfg.Model,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   cfg.Temperature,
		MaxToolRounds: cfg.MaxToolRounds,
	}
	a := agent.New(rt, reg, retry, opt, logger)
	logger.Debug("agent ready", "provider", provider, "model", a.Options.Model, "retries", len(retry.Delays))
	return a, nil
}

// loaderTool picks the load tool for a file by extension.
func loaderTool(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return "load_excel"
	case ".pdf":
		return "load_pdf"
	default:
		return "load_csv"
	}
}

// preload runs the matching load tool for every path.
func preload(ctx context.Context, reg *tools.Registry, ws *tools.Workspace, paths []string) error {
	for _, p := range paths {
		args, err := utils.PrettyJSON(map[string]string{"file_path": p})
		if err != nil {
			return err
		}
		res := reg.Invoke(ctx, ws, loaderTool(p), args)
		if !res.OK() {
			return fmt.Errorf("load %s: %s", p, res.Message())
		}
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
