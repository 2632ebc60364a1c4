package analysis

import (
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Group aggregates the value column within one group. Count is the number
// of rows in the group; the other statistics ignore missing values.
type Group struct {
	Key   string   `json:"key"`
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Sum   float64  `json:"sum"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Std   *float64 `json:"std"`
}

// GroupStats is the result of GroupStatistics.
type GroupStats struct {
	GroupColumn string  `json:"group_column"`
	ValueColumn string  `json:"value_column"`
	Groups      []Group `json:"groups"`
	TotalGroups int     `json:"total_groups"`
}

// GroupStatistics groups rows by groupColumn (rows with a missing key are
// skipped) and aggregates valueColumn per group. Groups are ordered by key.
func GroupStatistics(ds *dataset.Dataset, groupColumn, valueColumn string) (*GroupStats, error) {
	t := ds.Table
	gi, err := ColumnIndex(t, groupColumn)
	if err != nil {
		return nil, err
	}
	vi, err := NumericIndex(t, valueColumn)
	if err != nil {
		return nil, err
	}
	type acc struct {
		key  dataset.Value
		rows int
		vals []float64
	}
	groups := map[string]*acc{}
	for _, row := range t.Rows {
		k := row[gi]
		if k.IsNull() {
			continue
		}
		a := groups[k.String()]
		if a == nil {
			a = &acc{key: k}
			groups[k.String()] = a
		}
		a.rows++
		if f, ok := row[vi].Number(); ok {
			a.vals = append(a.vals, f)
		}
	}
	keys := make([]*acc, 0, len(groups))
	for _, a := range groups {
		keys = append(keys, a)
	}
	sort.Slice(keys, func(i, j int) bool { return dataset.Compare(keys[i].key, keys[j].key) < 0 })

	out := &GroupStats{GroupColumn: groupColumn, ValueColumn: valueColumn, Groups: make([]Group, 0, len(keys))}
	for _, a := range keys {
		g := Group{Key: a.key.String(), Count: a.rows}
		for _, v := range a.vals {
			g.Sum += v
		}
		g.Sum = round(g.Sum, 4)
		if len(a.vals) > 0 {
			lo, hi := minMax(a.vals)
			g.Mean = num(round(stat.Mean(a.vals, nil), 4))
			g.Min = num(round(lo, 4))
			g.Max = num(round(hi, 4))
			g.Std = num(round(sampleStd(a.vals), 4))
		}
		out.Groups = append(out.Groups, g)
	}
	out.TotalGroups = len(out.Groups)
	return out, nil
}
