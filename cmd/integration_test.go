package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate gives the test its own HOME, working directory and workspace
// directories, and clears any API keys from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(home)
	for _, k := range []string{"DATALOOM_API_KEY", "DATALOOM_PROVIDER", "GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("DATALOOM_UPLOADS_DIR", filepath.Join(home, "uploads"))
	t.Setenv("DATALOOM_OUTPUTS_DIR", filepath.Join(home, "outputs"))
	return home
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Reset bound variables that would otherwise stick between invocations
	toolPreload, toolArgsFile, toolsJSON = nil, "", false
	anaOutputPath, anaReport, anaGroupBy = "", "", ""
	sqlDescribe, sqlJSON = "", false
	chatMessage, chatPreload = "", nil
	seedForce = false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	loadConfig()
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v", args)
	return out
}

func TestCLI_SeedLoadTool(t *testing.T) {
	home := isolate(t)

	out := mustRun(t, "seed")
	assert.Contains(t, out, "20 rows")
	assert.FileExists(t, filepath.Join(home, "uploads", "sample_data.csv"))

	out = mustRun(t, "load", "sample_data.csv")
	assert.Contains(t, out, "Loaded 'sample_data': 20 rows x 8 columns")
	assert.Contains(t, out, "Salary")

	out = mustRun(t, "tool", "group_statistics", `{"dataset_name":"sample_data","group_column":"Department","value_column":"Salary"}`, "--load", "sample_data.csv")
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "success", res["status"])
	assert.EqualValues(t, 4, res["total_groups"])

	out, err := runCmd(t, "tool", "describe_data", `{"dataset_name":"sample_data"}`)
	require.Error(t, err, "nothing is loaded without --load")
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "not_found", res["code"])

	_, err = runCmd(t, "tool", "drop_everything")
	assert.ErrorContains(t, err, "Unknown tool 'drop_everything'")
}

func TestCLI_ToolArgsFile(t *testing.T) {
	home := isolate(t)
	mustRun(t, "seed")
	argsPath := filepath.Join(home, "args.json")
	require.NoError(t, os.WriteFile(argsPath, []byte(`{"dataset_name":"sample_data","column":"Salary"}`), 0o644))

	out := mustRun(t, "tool", "detect_outliers", "--args-file", argsPath, "--load", "sample_data.csv")
	assert.Contains(t, out, `"status": "success"`)
}

func TestCLI_Analyze(t *testing.T) {
	home := isolate(t)
	mustRun(t, "seed")
	target := filepath.Join(home, "reports", "summary.md")

	out := mustRun(t, "analyze", filepath.Join(home, "uploads", "sample_data.csv"), "--group-by", "Department", "-o", target)
	assert.Contains(t, out, "Wrote analysis")
	b, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(b), "sample_data")

	out = mustRun(t, "analyze", "sample_data.csv", "--report", "markdown")
	assert.Contains(t, out, "Wrote markdown report")
	entries, err := os.ReadDir(filepath.Join(home, "outputs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = runCmd(t, "analyze", "sample_data.csv", "--report", "docx")
	assert.ErrorContains(t, err, "unsupported --report")
}

func TestCLI_SQL(t *testing.T) {
	home := isolate(t)
	dsn := "sqlite:///" + filepath.Join(home, "shop.db")

	mustRun(t, "sql", dsn, "CREATE TABLE orders (id INTEGER PRIMARY KEY, status TEXT)")
	out := mustRun(t, "sql", dsn, "INSERT INTO orders (status) VALUES ('open'), ('shipped')")
	assert.Contains(t, out, "Rows affected: 2")

	out = mustRun(t, "sql", dsn)
	assert.Contains(t, out, "- orders")

	out = mustRun(t, "sql", dsn, "SELECT status FROM orders ORDER BY id", "--json")
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.EqualValues(t, 2, res["row_count"])
}

func TestCLI_ChatNeedsKey(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "chat", "-m", "hello")
	assert.ErrorContains(t, err, "API key is missing")
}

func TestCLI_Config(t *testing.T) {
	home := isolate(t)
	mustRun(t, "config", "set", "provider", "anthropic")
	assert.FileExists(t, filepath.Join(home, ".dataloom", "config.yaml"))

	out := mustRun(t, "config", "show")
	assert.Contains(t, out, "provider: anthropic")
	assert.Contains(t, out, "claude-sonnet-4-5 (default)")

	_, err := runCmd(t, "config", "set", "provider", "skynet")
	assert.ErrorContains(t, err, "invalid provider")
	_, err = runCmd(t, "config", "set", "colour", "blue")
	assert.ErrorContains(t, err, "unknown key")
}

func TestCLI_ToolsList(t *testing.T) {
	isolate(t)
	out := mustRun(t, "tools")
	assert.Contains(t, out, "load_csv")
	assert.Contains(t, out, "fetch_api_data")
}
