package analysis

import (
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// NumericStats summarizes one numeric column.
type NumericStats struct {
	Count int      `json:"count"`
	Mean  *float64 `json:"mean"`
	Std   *float64 `json:"std"`
	Min   *float64 `json:"min"`
	Q1    *float64 `json:"25%"`
	Q2    *float64 `json:"50%"`
	Q3    *float64 `json:"75%"`
	Max   *float64 `json:"max"`
}

// ValueCount is a category and how often it occurs.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategoricalStats summarizes one text column.
type CategoricalStats struct {
	UniqueValues int          `json:"unique_values"`
	TopValues    []ValueCount `json:"top_values"`
	NullCount    int          `json:"null_count"`
}

type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Description is the result of Describe.
type Description struct {
	Dataset     string                        `json:"dataset_name"`
	Shape       Shape                         `json:"shape"`
	Numeric     map[string]NumericStats       `json:"numeric_statistics"`
	Categorical map[string]CategoricalStats   `json:"categorical_summary"`
	NullCounts  map[string]int                `json:"null_counts"`
	ColumnTypes map[string]dataset.ColumnType `json:"column_types"`
}

const topValuesLimit = 10

// Describe computes per-column descriptive statistics.
func Describe(ds *dataset.Dataset) *Description {
	t := ds.Table
	d := &Description{
		Dataset:     ds.Name,
		Shape:       Shape{Rows: t.NumRows(), Columns: t.NumCols()},
		Numeric:     map[string]NumericStats{},
		Categorical: map[string]CategoricalStats{},
		NullCounts:  map[string]int{},
		ColumnTypes: map[string]dataset.ColumnType{},
	}
	for i, name := range t.Columns {
		col := t.Column(i)
		nulls := 0
		for _, v := range col {
			if v.IsNull() {
				nulls++
			}
		}
		d.NullCounts[name] = nulls
		d.ColumnTypes[name] = t.Types[i]

		switch {
		case t.Types[i].IsNumeric():
			d.Numeric[name] = numericStats(t.Numbers(i))
		case t.Types[i] == dataset.TypeText:
			cs := categoricalStats(col)
			cs.NullCount = nulls
			d.Categorical[name] = cs
		}
	}
	return d
}

func numericStats(vals []float64) NumericStats {
	ns := NumericStats{Count: len(vals)}
	if len(vals) == 0 {
		return ns
	}
	s := sortedCopy(vals)
	ns.Mean = num(stat.Mean(vals, nil))
	ns.Std = num(sampleStd(vals))
	ns.Min = num(s[0])
	ns.Q1 = num(quantile(s, 0.25))
	ns.Q2 = num(quantile(s, 0.5))
	ns.Q3 = num(quantile(s, 0.75))
	ns.Max = num(s[len(s)-1])
	return ns
}

// categoricalStats counts values, most frequent first; ties keep first
// appearance order.
func categoricalStats(col []dataset.Value) CategoricalStats {
	counts := map[string]int{}
	var order []string
	for _, v := range col {
		if v.IsNull() {
			continue
		}
		k := v.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	top := make([]ValueCount, 0, topValuesLimit)
	for _, k := range order {
		if len(top) == topValuesLimit {
			break
		}
		top = append(top, ValueCount{Value: k, Count: counts[k]})
	}
	return CategoricalStats{UniqueValues: len(order), TopValues: top}
}
