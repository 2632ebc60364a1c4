package viz

import (
	"io"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/wcharczuk/go-chart/v2"
)

// BarRequest describes a bar chart. TopN > 0 keeps only the rows with the
// largest Y values.
type BarRequest struct {
	X     string
	Y     string
	Title string
	Color string
	TopN  int
}

type bar struct {
	label string
	value float64
	row   int
}

// barRows returns one bar per row with a numeric Y, largest first when topN
// is set and in row order otherwise.
func barRows(t *dataset.Table, xi, yi, topN int) []bar {
	var bars []bar
	for r, row := range t.Rows {
		v, ok := row[yi].Number()
		if !ok {
			continue
		}
		bars = append(bars, bar{label: label(row[xi]), value: v, row: r})
	}
	if topN > 0 {
		sort.SliceStable(bars, func(a, b int) bool { return bars[a].value > bars[b].value })
		if len(bars) > topN {
			bars = bars[:topN]
		}
	}
	return bars
}

func (r *Renderer) Bar(ds *dataset.Dataset, req BarRequest) (*Chart, error) {
	t := ds.Table
	xi, err := analysis.ColumnIndex(t, req.X)
	if err != nil {
		return nil, err
	}
	yi, err := analysis.NumericIndex(t, req.Y)
	if err != nil {
		return nil, err
	}
	bars := barRows(t, xi, yi, req.TopN)
	if len(bars) == 0 {
		return nil, errinfo.Insufficient("Column '%s' has no values to plot.", req.Y)
	}

	colorOf := map[int]int{}
	if req.Color != "" {
		rows := make([]int, len(bars))
		for i, b := range bars {
			rows[i] = b.row
		}
		for gi, g := range groupRows(t, req.Color, rows) {
			for _, row := range g.rows {
				colorOf[row] = gi
			}
		}
	}

	values := make([]chart.Value, len(bars))
	lo, hi := bars[0].value, bars[0].value
	for i, b := range bars {
		values[i] = chart.Value{Label: b.label, Value: b.value, Style: seriesStyle(colorOf[b.row])}
		lo, hi = min(lo, b.value), max(hi, b.value)
	}
	w, h := r.size()
	title := titleOr(req.Title, "Bar Chart")
	bc := chart.BarChart{
		Title:        title,
		Width:        w,
		Height:       h,
		Background:   background(),
		Bars:         values,
		UseBaseValue: true,
		YAxis: chart.YAxis{
			Name:  req.Y,
			Range: valueRange(lo, hi),
		},
	}
	return r.save(title, TypeBar, func(out io.Writer) error { return bc.Render(chart.PNG, out) })
}
