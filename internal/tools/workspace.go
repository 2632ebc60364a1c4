package tools

import (
	"log/slog"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/ingest"
	"github.com/KaramelBytes/dataloom-cli/internal/report"
	"github.com/KaramelBytes/dataloom-cli/internal/sqltool"
	"github.com/KaramelBytes/dataloom-cli/internal/viz"
	"github.com/jonboulle/clockwork"
)

// Env holds the settings shared by every workspace of a process.
type Env struct {
	UploadsDir string
	OutputsDir string
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Workspace is the state one conversation operates on: its datasets, its
// database connection and the helpers that read and write files.
type Workspace struct {
	Store   *dataset.Store
	SQL     *sqltool.Slot
	Loader  *ingest.Loader
	Charts  *viz.Renderer
	Reports *report.Builder
	Logger  *slog.Logger
}

// NewWorkspace returns an empty workspace rooted at env's directories.
func (env Env) NewWorkspace() *Workspace {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		Store:   dataset.NewStore(),
		SQL:     &sqltool.Slot{Logger: logger},
		Loader:  ingest.NewLoader(env.UploadsDir, logger),
		Charts:  viz.NewRenderer(env.OutputsDir, logger),
		Reports: report.NewBuilder(env.OutputsDir, env.Clock, logger),
		Logger:  logger,
	}
}

// Close drops the database connection. Datasets are left for the garbage
// collector.
func (w *Workspace) Close() {
	w.SQL.Close()
}

// DatasetInfo names a loaded dataset and classifies its columns.
type DatasetInfo struct {
	Name    string          `json:"name"`
	Columns dataset.Columns `json:"columns"`
}

// Datasets lists every dataset in w in load order.
func (w *Workspace) Datasets() []DatasetInfo {
	names := w.Store.Names()
	out := make([]DatasetInfo, 0, len(names))
	for _, n := range names {
		if cols, ok := w.Store.ColumnsOf(n); ok {
			out = append(out, DatasetInfo{Name: n, Columns: cols})
		}
	}
	return out
}
