package viz

import (
	"io"
	"sort"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/wcharczuk/go-chart/v2"
)

// maxCategoryTicks bounds the labels drawn on a categorical x axis.
const maxCategoryTicks = 20

// LineRequest describes a line chart. Color splits the rows into one line
// per distinct value.
type LineRequest struct {
	X     string
	Y     string
	Title string
	Color string
}

// point is one plotted row; x is seconds for datetime axes and the category
// position for text axes.
type point struct {
	x float64
	y float64
}

// xAxis maps the cells of one column to plot coordinates.
type xAxis struct {
	col    int
	kind   dataset.ColumnType
	cats   map[string]int
	labels []string
}

func newXAxis(t *dataset.Table, xi int) *xAxis {
	ax := &xAxis{col: xi, kind: t.Types[xi]}
	if ax.kind.IsNumeric() || ax.kind == dataset.TypeDatetime {
		return ax
	}
	ax.cats = map[string]int{}
	for _, row := range t.Rows {
		if row[xi].IsNull() {
			continue
		}
		k := row[xi].String()
		if _, ok := ax.cats[k]; !ok {
			ax.cats[k] = len(ax.labels)
			ax.labels = append(ax.labels, k)
		}
	}
	return ax
}

func (ax *xAxis) coord(v dataset.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch {
	case ax.kind.IsNumeric():
		return v.Number()
	case ax.kind == dataset.TypeDatetime:
		ts, ok := v.Timestamp()
		if !ok {
			return 0, false
		}
		return chart.TimeToFloat64(ts), true
	default:
		i, ok := ax.cats[v.String()]
		return float64(i), ok
	}
}

func (ax *xAxis) ticks() []chart.Tick {
	if ax.cats == nil {
		return nil
	}
	step := 1
	if len(ax.labels) > maxCategoryTicks {
		step = (len(ax.labels) + maxCategoryTicks - 1) / maxCategoryTicks
	}
	var ticks []chart.Tick
	for i := 0; i < len(ax.labels); i += step {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: ax.labels[i]})
	}
	return ticks
}

func (ax *xAxis) formatter() chart.ValueFormatter {
	if ax.kind == dataset.TypeDatetime {
		return chart.TimeDateValueFormatter
	}
	return nil
}

func points(t *dataset.Table, ax *xAxis, rows []int, yi int) []point {
	var pts []point
	for _, r := range rows {
		x, ok := ax.coord(t.Rows[r][ax.col])
		if !ok {
			continue
		}
		y, ok := t.Rows[r][yi].Number()
		if !ok {
			continue
		}
		pts = append(pts, point{x: x, y: y})
	}
	return pts
}

func (r *Renderer) Line(ds *dataset.Dataset, req LineRequest) (*Chart, error) {
	t := ds.Table
	xi, err := analysis.ColumnIndex(t, req.X)
	if err != nil {
		return nil, err
	}
	yi, err := analysis.NumericIndex(t, req.Y)
	if err != nil {
		return nil, err
	}
	ax := newXAxis(t, xi)

	var series []chart.Series
	distinct := map[float64]bool{}
	for gi, g := range groupRows(t, req.Color, allRows(t)) {
		pts := points(t, ax, g.rows, yi)
		if len(pts) == 0 {
			continue
		}
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].x < pts[b].x })
		xs, ys := make([]float64, len(pts)), make([]float64, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.x, p.y
			distinct[p.x] = true
		}
		style := seriesStyle(gi)
		style.StrokeWidth = 2
		series = append(series, lineSeries(ax, g.key, style, xs, ys))
	}
	if len(distinct) < 2 {
		return nil, errinfo.Insufficient("A line chart needs at least 2 distinct '%s' values with a '%s' value.", req.X, req.Y)
	}

	w, h := r.size()
	title := titleOr(req.Title, "Line Chart")
	c := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: background(),
		XAxis:      chart.XAxis{Name: req.X, ValueFormatter: ax.formatter(), Ticks: ax.ticks()},
		YAxis:      chart.YAxis{Name: req.Y},
		Series:     series,
	}
	withLegend(&c)
	return r.save(title, TypeLine, func(out io.Writer) error { return c.Render(chart.PNG, out) })
}

func lineSeries(ax *xAxis, name string, style chart.Style, xs, ys []float64) chart.Series {
	if ax.kind == dataset.TypeDatetime {
		ts := make([]time.Time, len(xs))
		for i, x := range xs {
			ts[i] = chart.TimeFromFloat64(x)
		}
		return chart.TimeSeries{Name: name, Style: style, XValues: ts, YValues: ys}
	}
	return chart.ContinuousSeries{Name: name, Style: style, XValues: xs, YValues: ys}
}
