package viz

import (
	"io"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/wcharczuk/go-chart/v2"
)

// DefaultBins is the bin count used when a histogram request leaves it unset.
const DefaultBins = 30

type HistogramRequest struct {
	Column string
	Title  string
	Bins   int
	Color  string
}

// Bin is one equal-width histogram bucket. Every bucket is half-open except
// the last, which includes its upper edge.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Edges returns n equal-width buckets spanning vals. A constant column gets a
// unit-wide span centred on its value.
func Edges(vals []float64, n int) []Bin {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		lo, hi = min(lo, v), max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lo: lo + float64(i)*width, Hi: lo + float64(i+1)*width}
	}
	bins[n-1].Hi = hi
	return bins
}

// Fill counts vals into bins produced by Edges.
func Fill(bins []Bin, vals []float64) {
	if len(bins) == 0 {
		return
	}
	lo, hi := bins[0].Lo, bins[len(bins)-1].Hi
	width := (hi - lo) / float64(len(bins))
	for _, v := range vals {
		if v < lo || v > hi {
			continue
		}
		i := int((v - lo) / width)
		if i >= len(bins) {
			i = len(bins) - 1
		}
		bins[i].Count++
	}
}

func (r *Renderer) Histogram(ds *dataset.Dataset, req HistogramRequest) (*Chart, error) {
	t := ds.Table
	ci, err := analysis.NumericIndex(t, req.Column)
	if err != nil {
		return nil, err
	}
	all := t.Numbers(ci)
	if len(all) == 0 {
		return nil, errinfo.Insufficient("Column '%s' has no values to plot.", req.Column)
	}
	n := req.Bins
	if n <= 0 {
		n = DefaultBins
	}
	edges := Edges(all, n)

	var series []chart.Series
	peak := 0
	for gi, g := range groupRows(t, req.Color, allRows(t)) {
		var vals []float64
		for _, row := range g.rows {
			if v, ok := t.Rows[row][ci].Number(); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		bins := append([]Bin(nil), edges...)
		Fill(bins, vals)
		xs, ys := make([]float64, n), make([]float64, n)
		for i, b := range bins {
			xs[i], ys[i] = (b.Lo+b.Hi)/2, float64(b.Count)
			peak = max(peak, b.Count)
		}
		style := seriesStyle(gi)
		style.StrokeWidth = 1
		series = append(series, chart.HistogramSeries{
			Name:        g.key,
			Style:       style,
			InnerSeries: chart.ContinuousSeries{Name: g.key, XValues: xs, YValues: ys},
		})
	}

	w, h := r.size()
	title := titleOr(req.Title, "Histogram")
	c := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: background(),
		XAxis: chart.XAxis{
			Name:  req.Column,
			Range: &chart.ContinuousRange{Min: edges[0].Lo, Max: edges[n-1].Hi},
		},
		YAxis: chart.YAxis{
			Name:  "count",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)},
		},
		Series: series,
	}
	withLegend(&c)
	return r.save(title, TypeHistogram, func(out io.Writer) error { return c.Render(chart.PNG, out) })
}
