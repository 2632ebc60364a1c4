package viz

import (
	"io"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/wcharczuk/go-chart/v2"
)

const (
	// DefaultPieTopN is how many categories keep their own slice.
	DefaultPieTopN = 10
	otherLabel     = "Other"
)

type PieRequest struct {
	Names  string
	Values string
	Title  string
	TopN   int
}

// Slice is one pie wedge.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieSlices sums Values per distinct Names value, orders the totals from
// largest to smallest and folds everything past the first topN into one
// "Other" slice. Rows with a missing name are skipped.
func PieSlices(ds *dataset.Dataset, names, values string, topN int) ([]Slice, error) {
	t := ds.Table
	ni, err := analysis.ColumnIndex(t, names)
	if err != nil {
		return nil, err
	}
	vi, err := analysis.NumericIndex(t, values)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = DefaultPieTopN
	}
	var slices []Slice
	pos := map[string]int{}
	for _, row := range t.Rows {
		if row[ni].IsNull() {
			continue
		}
		k := row[ni].String()
		i, ok := pos[k]
		if !ok {
			i = len(slices)
			pos[k] = i
			slices = append(slices, Slice{Label: k})
		}
		if v, ok := row[vi].Number(); ok {
			slices[i].Value += v
		}
	}
	if len(slices) == 0 {
		return nil, errinfo.Insufficient("Column '%s' has no values to group.", names)
	}
	sort.SliceStable(slices, func(a, b int) bool { return slices[a].Value > slices[b].Value })
	if len(slices) > topN {
		other := Slice{Label: otherLabel}
		for _, s := range slices[topN:] {
			other.Value += s.Value
		}
		slices = append(slices[:topN:topN], other)
	}
	return slices, nil
}

func (r *Renderer) Pie(ds *dataset.Dataset, req PieRequest) (*Chart, error) {
	slices, err := PieSlices(ds, req.Names, req.Values, req.TopN)
	if err != nil {
		return nil, err
	}
	values := make([]chart.Value, len(slices))
	for i, s := range slices {
		values[i] = chart.Value{Label: s.Label, Value: s.Value}
	}
	w, h := r.size()
	title := titleOr(req.Title, "Pie Chart")
	pc := chart.PieChart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: background(),
		Values:     values,
	}
	return r.save(title, TypePie, func(out io.Writer) error { return pc.Render(chart.PNG, out) })
}
