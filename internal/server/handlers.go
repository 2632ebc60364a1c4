package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/agent"
	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/ingest"
	"github.com/KaramelBytes/dataloom-cli/internal/tools"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/go-chi/chi/v5"
)

// uploadExts are the file types the loaders understand.
var uploadExts = map[string]bool{
	".csv": true, ".tsv": true, ".xlsx": true, ".xlsm": true, ".pdf": true,
}

type sessionResponse struct {
	Session   string    `json:"session"`
	CreatedAt time.Time `json:"created_at"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Session string `json:"session"`
	*agent.Reply
}

type uploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Path     string `json:"path"`
}

type datasetsResponse struct {
	Datasets []tools.DatasetInfo `json:"datasets"`
	Count    int                 `json:"count"`
}

// writeJSON commits status only once v has encoded; encoding failures are
// reported as 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
		buf.Reset()
		buf.WriteString(`{"status":"error","message":"failed to encode response"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Error("failed to write response", "error", err)
	}
}

// writeError renders err as a tool-style error result.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	res := tools.Failure(err)
	s.writeJSON(w, statusFor(res.Code()), res)
}

func statusFor(code errinfo.Code) int {
	switch code {
	case errinfo.CodeNotFound:
		return http.StatusNotFound
	case errinfo.CodeInvalidInput:
		return http.StatusBadRequest
	case errinfo.CodeInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*tools.Session[*agent.Conversation], bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, errinfo.NotFound("Session '%s' not found or expired", id))
		return nil, false
	}
	return sess, true
}

func (s *Server) listTools(w http.ResponseWriter, _ *http.Request) {
	catalog := s.reg.Catalog()
	s.writeJSON(w, http.StatusOK, map[string]any{"tools": catalog, "count": len(catalog)})
}

func (s *Server) createSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	s.writeJSON(w, http.StatusCreated, sessionResponse{Session: sess.ID, CreatedAt: sess.Created})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.Delete(id) {
		s.writeError(w, errinfo.NotFound("Session '%s' not found or expired", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, tools.Result{
			"status":  tools.StatusError,
			"message": "No model is configured; set an API key to enable chat.",
		})
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxToolArgsBytes)).Decode(&req); err != nil {
		s.writeError(w, errinfo.Invalid("Invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, errinfo.Invalid("message is required"))
		return
	}

	sess.Lock()
	reply, err := s.agent.Send(r.Context(), sess.Value, req.Message)
	sess.Unlock()
	if err != nil {
		status := http.StatusBadGateway
		if ai.IsRateLimit(err) {
			status = http.StatusTooManyRequests
		}
		s.log.Warn("agent reply failed", "session", sess.ID, "error", err)
		s.writeJSON(w, status, tools.Result{"status": tools.StatusError, "message": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Session: sess.ID, Reply: reply})
}

func (s *Server) invokeTool(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxToolArgsBytes))
	if err != nil {
		s.writeError(w, errinfo.Invalid("Invalid request body: %v", err))
		return
	}
	name := chi.URLParam(r, "tool")

	sess.Lock()
	res := s.reg.Invoke(r.Context(), sess.Value.Workspace, name, body)
	sess.Unlock()

	status := http.StatusOK
	if !res.OK() {
		status = statusFor(res.Code())
	}
	s.writeJSON(w, status, res)
}

func (s *Server) listDatasets(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sets := sess.Value.Workspace.Datasets()
	s.writeJSON(w, http.StatusOK, datasetsResponse{Datasets: sets, Count: len(sets)})
}

func (s *Server) clearDatasets(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	sess.Value.Workspace.Store.Clear()
	sess.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, errinfo.Invalid("Upload exceeds %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		s.writeError(w, errinfo.Invalid("multipart field 'file' is required: %v", err))
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." || strings.HasPrefix(name, ".") {
		s.writeError(w, errinfo.Invalid("Invalid file name '%s'", header.Filename))
		return
	}
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".xls":
		s.writeError(w, ingest.ErrLegacyExcel)
		return
	case !uploadExts[ext]:
		s.writeError(w, errinfo.Invalid("Unsupported file type '%s'. Use csv, tsv, xlsx, xlsm or pdf", ext))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, errinfo.External(err, "read upload"))
		return
	}
	if err := utils.EnsureDir(s.cfg.Env.UploadsDir); err != nil {
		s.writeError(w, errinfo.External(err, "create uploads dir"))
		return
	}
	dest := filepath.Join(s.cfg.Env.UploadsDir, name)
	if err := utils.SafeWriteFile(dest, data); err != nil {
		s.writeError(w, errinfo.External(err, "save upload"))
		return
	}
	s.log.Info("file uploaded", "file", name, "bytes", len(data))
	s.writeJSON(w, http.StatusCreated, uploadResponse{Filename: name, Size: int64(len(data)), Path: dest})
}

func (s *Server) output(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		s.writeError(w, errinfo.Invalid("Invalid file name '%s'", name))
		return
	}
	path := filepath.Join(s.cfg.Env.OutputsDir, name)
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		s.writeError(w, errinfo.NotFound("Output '%s' not found", name))
		return
	}
	http.ServeFile(w, r, path)
}
