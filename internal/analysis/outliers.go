package analysis

import (
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

const outlierValuesLimit = 50

// Outliers is the result of DetectOutliers.
type Outliers struct {
	Column        string    `json:"column"`
	TotalValues   int       `json:"total_values"`
	OutlierCount  int       `json:"outlier_count"`
	OutlierPct    float64   `json:"outlier_percentage"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
	Q1            float64   `json:"q1"`
	Q3            float64   `json:"q3"`
	IQR           float64   `json:"iqr"`
	OutlierValues []float64 `json:"outlier_values"`
}

// DetectOutliers flags values outside [Q1-1.5*IQR, Q3+1.5*IQR], computed over
// the column's non-null values.
func DetectOutliers(ds *dataset.Dataset, column string) (*Outliers, error) {
	i, err := NumericIndex(ds.Table, column)
	if err != nil {
		return nil, err
	}
	vals := ds.Table.Numbers(i)
	if len(vals) == 0 {
		return nil, errinfo.Insufficient("Column '%s' has no values.", column)
	}
	s := sortedCopy(vals)
	q1 := quantile(s, 0.25)
	q3 := quantile(s, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	out := []float64{}
	for _, v := range vals {
		if v < lower || v > upper {
			out = append(out, v)
		}
	}
	count := len(out)
	sort.Float64s(out)
	if len(out) > outlierValuesLimit {
		out = out[:outlierValuesLimit]
	}
	return &Outliers{
		Column:        column,
		TotalValues:   len(vals),
		OutlierCount:  count,
		OutlierPct:    round(float64(count)/float64(len(vals))*100, 2),
		LowerBound:    round(lower, 4),
		UpperBound:    round(upper, 4),
		Q1:            round(q1, 4),
		Q3:            round(q3, 4),
		IQR:           round(iqr, 4),
		OutlierValues: out,
	}, nil
}
