package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	for _, k := range []string{"DATALOOM_API_KEY", "DATALOOM_PROVIDER", "GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "groq", c.Provider)
	assert.Equal(t, 8, c.MaxToolRounds)
	assert.Equal(t, 30*time.Minute, c.SessionTTL())
	assert.Equal(t, 15*time.Second, c.RetryBaseDelay())
	assert.Equal(t, 45*time.Second, c.RetryMaxDelay())
	assert.Equal(t, time.Minute, c.HTTPTimeout())
	assert.Equal(t, "uploads", c.UploadsDir)
	assert.Empty(t, c.APIKey)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(file, []byte("provider: anthropic\nmax_tool_rounds: 4\nlisten_addr: \":9000\"\n"), 0o600))
	t.Setenv("DATALOOM_MAX_TOOL_ROUNDS", "6")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	c, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider)
	assert.Equal(t, 6, c.MaxToolRounds, "env beats file")
	assert.Equal(t, ":9000", c.ListenAddr)
	assert.Equal(t, "sk-ant-test", c.APIKey, "provider key env is a fallback")
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("DATALOOM_API_KEY=from-dotenv\nDATALOOM_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATALOOM_LOG_LEVEL")
	})
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
	// Already set (to empty) in the environment, so .env does not override.
	assert.Empty(t, c.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	c.Model = "gpt-4o-mini"
	c.Provider = "openai"
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".dataloom", "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", again.Model)
	assert.Equal(t, "openai", again.Provider)
}
