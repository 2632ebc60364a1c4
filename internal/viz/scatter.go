package viz

import (
	"io"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	dotWidth    = 4
	minDotWidth = 2
	maxDotWidth = 14
)

// ScatterRequest describes a scatter plot. Size names a numeric column that
// scales the dots.
type ScatterRequest struct {
	X     string
	Y     string
	Title string
	Color string
	Size  string
}

// dotSizes maps a numeric column onto dot widths between minDotWidth and
// maxDotWidth. Missing values get the smallest dot.
func dotSizes(t *dataset.Table, si int, rows []int) []float64 {
	out := make([]float64, len(rows))
	var present []float64
	for _, r := range rows {
		if v, ok := t.Rows[r][si].Number(); ok {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		for i := range out {
			out[i] = minDotWidth
		}
		return out
	}
	lo, hi := present[0], present[0]
	for _, v := range present {
		lo, hi = min(lo, v), max(hi, v)
	}
	for i, r := range rows {
		v, ok := t.Rows[r][si].Number()
		switch {
		case !ok:
			out[i] = minDotWidth
		case hi == lo:
			out[i] = (minDotWidth + maxDotWidth) / 2
		default:
			out[i] = minDotWidth + (v-lo)/(hi-lo)*(maxDotWidth-minDotWidth)
		}
	}
	return out
}

func (r *Renderer) Scatter(ds *dataset.Dataset, req ScatterRequest) (*Chart, error) {
	t := ds.Table
	xi, err := analysis.NumericIndex(t, req.X)
	if err != nil {
		return nil, err
	}
	yi, err := analysis.NumericIndex(t, req.Y)
	if err != nil {
		return nil, err
	}
	si := -1
	if req.Size != "" {
		if i, ok := t.Index(req.Size); ok && t.Types[i].IsNumeric() {
			si = i
		}
	}

	var series []chart.Series
	total := 0
	for gi, g := range groupRows(t, req.Color, allRows(t)) {
		var xs, ys []float64
		var kept []int
		for _, row := range g.rows {
			x, okx := t.Rows[row][xi].Number()
			y, oky := t.Rows[row][yi].Number()
			if !okx || !oky {
				continue
			}
			xs, ys, kept = append(xs, x), append(ys, y), append(kept, row)
		}
		if len(xs) == 0 {
			continue
		}
		total += len(xs)
		style := seriesStyle(gi)
		style.StrokeWidth = chart.Disabled
		style.DotWidth = dotWidth
		if si >= 0 {
			sizes := dotSizes(t, si, kept)
			style.DotWidthProvider = func(_, _ chart.Range, i int, _, _ float64) float64 { return sizes[i] }
		}
		series = append(series, chart.ContinuousSeries{Name: g.key, Style: style, XValues: xs, YValues: ys})
	}
	if total < 2 {
		return nil, errinfo.Insufficient("A scatter plot needs at least 2 rows with both '%s' and '%s'.", req.X, req.Y)
	}

	w, h := r.size()
	title := titleOr(req.Title, "Scatter Plot")
	c := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: background(),
		XAxis:      chart.XAxis{Name: req.X},
		YAxis:      chart.YAxis{Name: req.Y},
		Series:     series,
	}
	withLegend(&c)
	return r.save(title, TypeScatter, func(out io.Writer) error { return c.Render(chart.PNG, out) })
}
