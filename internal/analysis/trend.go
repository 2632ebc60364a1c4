package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"gonum.org/v1/gonum/stat"
)

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ValueSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Std  float64 `json:"std"`
}

// Trend is the result of TrendAnalysis. Slope is in value units per row;
// SlopePerDay is the same fit against elapsed days since the first date.
type Trend struct {
	Direction      string       `json:"trend_direction"`
	Slope          float64      `json:"slope"`
	SlopePerDay    *float64     `json:"slope_per_day"`
	RSquared       float64      `json:"r_squared"`
	PValue         *float64     `json:"p_value"`
	Points         int          `json:"data_points"`
	DateRange      DateRange    `json:"date_range"`
	Values         ValueSummary `json:"value_summary"`
	Interpretation string       `json:"interpretation"`
}

type point struct {
	at time.Time
	y  float64
}

// TrendAnalysis sorts rows by date and fits value against row position with
// ordinary least squares. Rows with an unparseable date or missing value are
// dropped first.
func TrendAnalysis(ds *dataset.Dataset, dateColumn, valueColumn string) (*Trend, error) {
	t := ds.Table
	di, err := ColumnIndex(t, dateColumn)
	if err != nil {
		return nil, err
	}
	vi, err := NumericIndex(t, valueColumn)
	if err != nil {
		return nil, err
	}
	var pts []point
	for _, row := range t.Rows {
		y, ok := row[vi].Number()
		if !ok {
			continue
		}
		at, ok := asTime(row[di])
		if !ok {
			continue
		}
		pts = append(pts, point{at: at, y: y})
	}
	if len(pts) < MinSamples {
		return nil, errinfo.Insufficient("Not enough data points (need at least %d, have %d).", MinSamples, len(pts))
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].at.Before(pts[b].at) })

	x := make([]float64, len(pts))
	days := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		x[i] = float64(i)
		days[i] = p.at.Sub(pts[0].at).Hours() / 24
		y[i] = p.y
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	r2 := stat.RSquared(x, y, nil, intercept, slope)
	if math.IsNaN(r2) {
		r2 = 0
	}
	p := pearsonPValue(pearson(x, y), len(pts))

	var perDay *float64
	if days[len(days)-1] > 0 {
		_, b := stat.LinearRegression(days, y, nil, false)
		perDay = num(round(b, 4))
	}

	direction := "flat"
	switch {
	case slope > 0:
		direction = "upward"
	case slope < 0:
		direction = "downward"
	}
	lo, hi := minMax(y)
	mean, std := stat.PopMeanStdDev(y, nil)
	return &Trend{
		Direction:   direction,
		Slope:       round(slope, 4),
		SlopePerDay: perDay,
		RSquared:    round(r2, 4),
		PValue:      num(round(p, 6)),
		Points:      len(pts),
		DateRange: DateRange{
			Start: dataset.Time(pts[0].at).String(),
			End:   dataset.Time(pts[len(pts)-1].at).String(),
		},
		Values:         ValueSummary{Mean: round(mean, 4), Min: round(lo, 4), Max: round(hi, 4), Std: round(std, 4)},
		Interpretation: fmt.Sprintf("The data shows %s %s trend (slope=%.4f, R²=%.4f)", article(direction), direction, slope, r2),
	}, nil
}

func asTime(v dataset.Value) (time.Time, bool) {
	if ts, ok := v.Timestamp(); ok {
		return ts, true
	}
	if v.Kind() != dataset.KindText {
		return time.Time{}, false
	}
	return dataset.ParseTime(v.String())
}

func article(word string) string {
	if word == "upward" {
		return "an"
	}
	return "a"
}
