package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/server"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRuntime loads the sample on the first round and then answers with the
// number of messages it saw.
type echoRuntime struct{}

func (echoRuntime) Provider() string { return ai.ProviderOpenAI }

func (echoRuntime) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == ai.RoleUser {
		return &ai.ChatResponse{Message: ai.Message{
			Role:      ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{ID: "1", Name: "load_csv", Arguments: json.RawMessage(`{"file_path":"sample_data.csv"}`)}},
		}}, nil
	}
	return &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: "Loaded 20 rows."}}, nil
}

// cutOffRuntime asks for a tool with truncated JSON arguments, as some
// hosted models do when they hit their output limit.
type cutOffRuntime struct{}

func (cutOffRuntime) Provider() string { return ai.ProviderGroq }

func (cutOffRuntime) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	if req.Messages[len(req.Messages)-1].Role == ai.RoleUser {
		return &ai.ChatResponse{Message: ai.Message{
			Role:      ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{ID: "1", Name: "describe_data", Arguments: json.RawMessage(`{"dataset_name": "sample_data"`)}},
		}}, nil
	}
	return &ai.ChatResponse{Message: ai.Message{Role: ai.RoleAssistant, Content: "Please try again."}}, nil
}

type fixture struct {
	srv *httptest.Server
	env tools.Env
}

func newFixture(t *testing.T, withAgent bool) *fixture {
	t.Helper()
	var rt ai.Runtime
	if withAgent {
		rt = echoRuntime{}
	}
	return newFixtureWith(t, rt)
}

func newFixtureWith(t *testing.T, rt ai.Runtime) *fixture {
	t.Helper()
	env := tools.Env{UploadsDir: t.TempDir(), OutputsDir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(env.UploadsDir, dataset.SampleFileName), []byte(dataset.SampleCSV), 0o644))

	reg := tools.Default(nil)
	cfg := server.Config{Registry: reg, Env: env, Version: "test"}
	if rt != nil {
		cfg.Agent = agent.New(rt, reg, agent.RetryPolicy{}, agent.Options{}, nil)
	}
	s := server.New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return &fixture{srv: ts, env: env}
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), method, f.srv.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (f *fixture) post(t *testing.T, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, b := f.do(t, http.MethodPost, path, strings.NewReader(body), "application/json")
	var out map[string]any
	if len(b) > 0 {
		require.NoError(t, json.Unmarshal(b, &out), string(b))
	}
	return resp, out
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, b := f.do(t, http.MethodGet, path, nil, "")
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(b, &out), string(b))
	}
	return resp, out
}

func (f *fixture) newSession(t *testing.T) string {
	t.Helper()
	resp, out := f.post(t, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := out["session"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthAndCatalog(t *testing.T) {
	f := newFixture(t, false)

	resp, b := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(b))

	resp, out := f.get(t, "/v1/tools")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, len(tools.Default(nil).Names()), out["count"])

	resp, b = f.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), "dataloom_http_requests_total")
}

func TestSessionToolFlow(t *testing.T) {
	f := newFixture(t, false)
	id := f.newSession(t)
	base := "/v1/sessions/" + id

	resp, out := f.post(t, base+"/tools/load_csv", `{"file_path":"sample_data.csv"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	assert.Equal(t, "sample_data", out["dataset_name"])

	resp, out = f.get(t, base+"/datasets")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["count"])

	resp, out = f.post(t, base+"/tools/create_histogram", `{"dataset_name":"sample_data","column":"Age"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	chart := filepath.Base(out["chart_path"].(string))
	resp, _ = f.do(t, http.MethodGet, "/v1/outputs/"+chart, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	// Datasets are scoped to their session.
	other := f.newSession(t)
	resp, out = f.post(t, "/v1/sessions/"+other+"/tools/describe_data", `{"dataset_name":"sample_data"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", out["code"])

	resp, _ = f.do(t, http.MethodDelete, base+"/datasets", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, out = f.get(t, base+"/datasets")
	assert.EqualValues(t, 0, out["count"])

	resp, _ = f.do(t, http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.get(t, base+"/datasets")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToolErrors(t *testing.T) {
	f := newFixture(t, false)
	id := f.newSession(t)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown session", "/v1/sessions/nope/tools/load_csv", `{}`, http.StatusNotFound, "not_found"},
		{"unknown tool", "/v1/sessions/" + id + "/tools/rm_rf", `{}`, http.StatusBadRequest, "invalid_input"},
		{"bad arguments", "/v1/sessions/" + id + "/tools/load_csv", `{"path":"x.csv"}`, http.StatusBadRequest, "invalid_input"},
		{"missing file", "/v1/sessions/" + id + "/tools/load_csv", `{"file_path":"missing.csv"}`, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := f.post(t, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "error", out["status"])
			assert.Equal(t, tc.code, out["code"])
		})
	}

	resp, _ := f.get(t, "/v1/outputs/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, false)

	upload := func(name, content string) (*http.Response, map[string]any) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		resp, b := f.do(t, http.MethodPost, "/v1/uploads", &buf, mw.FormDataContentType())
		var out map[string]any
		require.NoError(t, json.Unmarshal(b, &out), string(b))
		return resp, out
	}

	resp, out := upload("../../sales.csv", "region,amount\nnorth,10\n")
	require.Equal(t, http.StatusCreated, resp.StatusCode, out)
	assert.Equal(t, "sales.csv", out["filename"])
	assert.FileExists(t, filepath.Join(f.env.UploadsDir, "sales.csv"))

	resp, out = upload("notes.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "Unsupported file type")

	resp, out = upload("budget.xls", "\xd0\xcf\x11\xe0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["message"], "Save the file as .xlsx")
	assert.NoFileExists(t, filepath.Join(f.env.UploadsDir, "budget.xls"))
}

func TestMessages(t *testing.T) {
	t.Run("without agent", func(t *testing.T) {
		f := newFixture(t, false)
		id := f.newSession(t)
		resp, _ := f.post(t, "/v1/sessions/"+id+"/messages", `{"message":"hi"}`)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("with agent", func(t *testing.T) {
		f := newFixture(t, true)
		id := f.newSession(t)

		resp, out := f.post(t, "/v1/sessions/"+id+"/messages", `{"message":""}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, out = f.post(t, "/v1/sessions/"+id+"/messages", `{"message":"load the sample"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, out)
		assert.Equal(t, "Loaded 20 rows.", out["reply"])
		assert.Equal(t, id, out["session"])
		trace, _ := out["trace"].([]any)
		require.Len(t, trace, 1)
		assert.Equal(t, "load_csv", trace[0].(map[string]any)["tool"])

		_, out = f.get(t, "/v1/sessions/"+id+"/datasets")
		assert.EqualValues(t, 1, out["count"])
	})

	t.Run("truncated tool arguments", func(t *testing.T) {
		f := newFixtureWith(t, cutOffRuntime{})
		id := f.newSession(t)

		resp, out := f.post(t, "/v1/sessions/"+id+"/messages", `{"message":"describe the sample"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, out)
		assert.Equal(t, "Please try again.", out["reply"])
		trace, _ := out["trace"].([]any)
		require.Len(t, trace, 1)
		step := trace[0].(map[string]any)
		assert.Equal(t, "error", step["status"])
		assert.Equal(t, `{"dataset_name": "sample_data"`, step["args"])
	})
}
