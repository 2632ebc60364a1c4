package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

// Correlation is the result of Correlate.
type Correlation struct {
	ColumnA        string  `json:"col1"`
	ColumnB        string  `json:"col2"`
	Coefficient    float64 `json:"correlation"`
	PValue         float64 `json:"p_value"`
	Strength       string  `json:"strength"`
	Direction      string  `json:"direction"`
	Interpretation string  `json:"interpretation"`
	SampleSize     int     `json:"sample_size"`
}

// Correlate computes the Pearson coefficient of two numeric columns over the
// rows where both are present.
func Correlate(ds *dataset.Dataset, colA, colB string) (*Correlation, error) {
	t := ds.Table
	ia, err := NumericIndex(t, colA)
	if err != nil {
		return nil, err
	}
	ib, err := NumericIndex(t, colB)
	if err != nil {
		return nil, err
	}
	x, y := pairedNumbers(t, ia, ib)
	if len(x) < MinSamples {
		return nil, errinfo.Insufficient("Not enough data points (need at least %d, have %d).", MinSamples, len(x))
	}
	r := pearson(x, y)
	if math.IsNaN(r) {
		return nil, errinfo.Invalid("Correlation is undefined: '%s' or '%s' has no variance.", colA, colB)
	}
	p := pearsonPValue(r, len(x))
	strength, direction := classify(r)
	return &Correlation{
		ColumnA:        colA,
		ColumnB:        colB,
		Coefficient:    round(r, 4),
		PValue:         round(p, 6),
		Strength:       strength,
		Direction:      direction,
		Interpretation: fmt.Sprintf("%s %s correlation (r=%.4f, p=%.6f)", strength, direction, r, p),
		SampleSize:     len(x),
	}, nil
}

func classify(r float64) (strength, direction string) {
	switch a := math.Abs(r); {
	case a > 0.7:
		strength = "strong"
	case a > 0.4:
		strength = "moderate"
	default:
		strength = "weak"
	}
	direction = "negative"
	if r > 0 {
		direction = "positive"
	}
	return strength, direction
}

func pairedNumbers(t *dataset.Table, ia, ib int) (x, y []float64) {
	for _, row := range t.Rows {
		a, okA := row[ia].Number()
		b, okB := row[ib].Number()
		if okA && okB {
			x = append(x, a)
			y = append(y, b)
		}
	}
	return x, y
}

// Pair is an off-diagonal entry of a correlation matrix.
type Pair struct {
	ColumnA     string  `json:"col1"`
	ColumnB     string  `json:"col2"`
	Coefficient float64 `json:"correlation"`
}

// Matrix is the result of CorrelationMatrix. Undefined coefficients are nil.
type Matrix struct {
	Columns []string                       `json:"columns"`
	Values  map[string]map[string]*float64 `json:"matrix"`
	Strong  []Pair                         `json:"strong_correlations"`
}

const (
	strongThreshold = 0.5
	strongLimit     = 20
)

// CorrelationMatrix computes pairwise Pearson coefficients across every
// numeric column, using the rows where both columns of a pair are present.
func CorrelationMatrix(ds *dataset.Dataset) (*Matrix, error) {
	t := ds.Table
	var idx []int
	for i, typ := range t.Types {
		if typ.IsNumeric() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, errinfo.Invalid("No numeric columns found in '%s'.", ds.Name)
	}
	m := &Matrix{Values: map[string]map[string]*float64{}, Strong: []Pair{}}
	for _, i := range idx {
		m.Columns = append(m.Columns, t.Columns[i])
		m.Values[t.Columns[i]] = map[string]*float64{}
	}
	for a, i := range idx {
		for b := a; b < len(idx); b++ {
			j := idx[b]
			x, y := pairedNumbers(t, i, j)
			r := pearson(x, y)
			if !math.IsNaN(r) {
				r = round(r, 4)
			}
			m.Values[t.Columns[i]][t.Columns[j]] = num(r)
			m.Values[t.Columns[j]][t.Columns[i]] = num(r)
			if a != b && !math.IsNaN(r) && math.Abs(r) > strongThreshold {
				m.Strong = append(m.Strong, Pair{ColumnA: t.Columns[i], ColumnB: t.Columns[j], Coefficient: r})
			}
		}
	}
	sort.SliceStable(m.Strong, func(a, b int) bool {
		return math.Abs(m.Strong[a].Coefficient) > math.Abs(m.Strong[b].Coefficient)
	})
	if len(m.Strong) > strongLimit {
		m.Strong = m.Strong[:strongLimit]
	}
	return m, nil
}
