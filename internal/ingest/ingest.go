// Package ingest turns files, web pages and API responses into datasets.
package ingest

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

const (
	// PreviewRows is how many rows load results render.
	PreviewRows = 5
	// FetchTimeout bounds every outbound request made by the web tools.
	FetchTimeout = 15 * time.Second

	placeholderFile = ".gitkeep"
)

// Loader reads from a fixed uploads directory and registers results in a
// dataset store supplied per call.
type Loader struct {
	UploadsDir string
	HTTP       *http.Client
	Logger     *slog.Logger
}

// NewLoader returns a Loader with the fixed fetch timeout.
func NewLoader(uploadsDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		UploadsDir: uploadsDir,
		HTTP:       &http.Client{Timeout: FetchTimeout},
		Logger:     logger,
	}
}

// Loaded describes a dataset that was just registered.
type Loaded struct {
	Dataset     string                        `json:"dataset_name"`
	Rows        int                           `json:"rows"`
	Columns     []string                      `json:"columns"`
	ColumnTypes map[string]dataset.ColumnType `json:"dtypes"`
	Sheets      []string                      `json:"sheets,omitempty"`
	TablesFound int                           `json:"tables_found,omitempty"`
	Preview     string                        `json:"preview"`
}

func register(store *dataset.Store, name string, t *dataset.Table) *Loaded {
	meta := store.Put(name, t)
	return &Loaded{
		Dataset:     meta.Name,
		Rows:        meta.RowCount,
		Columns:     meta.Columns,
		ColumnTypes: meta.ColumnTypes,
		Preview:     dataset.Preview(t, PreviewRows),
	}
}

// resolve maps bare or relative names into the uploads directory and checks
// the file exists.
func (l *Loader) resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errinfo.Invalid("A file path is required.")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.UploadsDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errinfo.NotFound("File not found: %s", path)
		}
		return "", errinfo.External(err, "stat %s", path)
	}
	if info.IsDir() {
		return "", errinfo.Invalid("%s is a directory, not a file.", path)
	}
	return path, nil
}

func baseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

// Uploads is the result of ListUploaded.
type Uploads struct {
	Files    []string `json:"uploaded_files"`
	Datasets []string `json:"loaded_datasets"`
}

// ListUploaded lists regular files in the uploads directory next to the
// names currently loaded in store.
func (l *Loader) ListUploaded(store *dataset.Store) (*Uploads, error) {
	out := &Uploads{Files: []string{}, Datasets: store.Names()}
	entries, err := os.ReadDir(l.UploadsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, errinfo.External(err, "list uploads")
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name() == placeholderFile {
			continue
		}
		out.Files = append(out.Files, e.Name())
	}
	return out, nil
}
