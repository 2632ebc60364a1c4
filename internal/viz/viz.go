// Package viz renders dataset columns into PNG charts in the outputs
// directory.
package viz

import (
	"io"
	"log/slog"
	"os"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 600

	nullLabel = "NaN"
)

// Chart types reported in results.
const (
	TypeBar       = "bar"
	TypeLine      = "line"
	TypeScatter   = "scatter"
	TypeHistogram = "histogram"
	TypePie       = "pie"
	TypeHeatmap   = "heatmap"
)

// Chart points at a rendered image.
type Chart struct {
	Path string `json:"chart_path"`
	Type string `json:"chart_type"`
}

// Renderer writes charts into OutputsDir.
type Renderer struct {
	OutputsDir string
	Width      int
	Height     int
	Logger     *slog.Logger
}

func NewRenderer(outputsDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{OutputsDir: outputsDir, Width: DefaultWidth, Height: DefaultHeight, Logger: logger}
}

func (r *Renderer) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// save renders into a fresh artifact path named after title. The partial
// file is removed when rendering fails.
func (r *Renderer) save(title, typ string, render func(io.Writer) error) (*Chart, error) {
	path, err := utils.ArtifactPath(r.OutputsDir, title, ".png")
	if err != nil {
		return nil, errinfo.External(err, "prepare chart file")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errinfo.External(err, "create chart file")
	}
	if err := render(f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, errinfo.External(err, "render %s chart", typ)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, errinfo.External(err, "write chart file")
	}
	r.Logger.Debug("chart written", "type", typ, "path", path)
	return &Chart{Path: path, Type: typ}, nil
}

func titleOr(title, def string) string {
	if title == "" {
		return def
	}
	return title
}

func label(v dataset.Value) string {
	if v.IsNull() {
		return nullLabel
	}
	return v.String()
}

// group is a subset of rows sharing one value of the colour column.
type group struct {
	key  string
	rows []int
}

// groupRows splits rows by the named colour column in order of first
// appearance. An empty or unknown column yields a single unnamed group.
func groupRows(t *dataset.Table, column string, rows []int) []group {
	ci, ok := -1, false
	if column != "" {
		ci, ok = t.Index(column)
	}
	if !ok {
		return []group{{rows: rows}}
	}
	var out []group
	pos := map[string]int{}
	for _, r := range rows {
		k := label(t.Rows[r][ci])
		i, seen := pos[k]
		if !seen {
			i = len(out)
			pos[k] = i
			out = append(out, group{key: k})
		}
		out[i].rows = append(out[i].rows, r)
	}
	return out
}

func allRows(t *dataset.Table) []int {
	rows := make([]int, t.NumRows())
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func seriesStyle(i int) chart.Style {
	c := chart.GetDefaultColor(i)
	return chart.Style{StrokeColor: c, FillColor: c.WithAlpha(160), DotColor: c}
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}}
}

// withLegend adds a legend when more than one series is drawn.
func withLegend(c *chart.Chart) {
	if len(c.Series) > 1 {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
}

// valueRange widens [lo, hi] to include zero and to never be empty.
func valueRange(lo, hi float64) *chart.ContinuousRange {
	lo, hi = min(lo, 0), max(hi, 0)
	if lo == hi {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

var white = drawing.ColorWhite
