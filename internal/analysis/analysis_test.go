package analysis_test

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *dataset.Dataset {
	t := dataset.Sample()
	return &dataset.Dataset{Name: "sample_data", Table: t, Meta: t.Metadata("sample_data")}
}

func build(t *testing.T, header []string, rows ...[]string) *dataset.Dataset {
	t.Helper()
	tb, err := dataset.FromStrings(header, rows)
	require.NoError(t, err)
	return &dataset.Dataset{Name: "t", Table: tb, Meta: tb.Metadata("t")}
}

func column(vals ...float64) [][]string {
	out := make([][]string, len(vals))
	for i, v := range vals {
		out[i] = []string{strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return out
}

func TestDetectOutliersIQR(t *testing.T) {
	ds := build(t, []string{"v"}, column(1, 2, 3, 4, 5, 6, 7, 8, 9, 100)...)
	o, err := analysis.DetectOutliers(ds, "v")
	require.NoError(t, err)
	assert.Equal(t, 3.25, o.Q1)
	assert.Equal(t, 7.75, o.Q3)
	assert.Equal(t, 4.5, o.IQR)
	assert.Equal(t, -3.5, o.LowerBound)
	assert.Equal(t, 14.5, o.UpperBound)
	assert.Equal(t, []float64{100}, o.OutlierValues)
	assert.Equal(t, 1, o.OutlierCount)
	assert.Equal(t, 10.0, o.OutlierPct)
	assert.Equal(t, o.TotalValues, o.OutlierCount+(o.TotalValues-o.OutlierCount))
}

func TestDetectOutliersErrors(t *testing.T) {
	ds := sample()
	_, err := analysis.DetectOutliers(ds, "Nope")
	require.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))
	require.Contains(t, err.Error(), "Salary")

	_, err = analysis.DetectOutliers(ds, "City")
	require.Equal(t, errinfo.CodeInvalidInput, errinfo.CodeOf(err))
}

func TestCorrelateSelf(t *testing.T) {
	c, err := analysis.Correlate(sample(), "Salary", "Salary")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Coefficient, 1e-9)
	assert.Equal(t, "strong", c.Strength)
	assert.Equal(t, "positive", c.Direction)
	assert.Equal(t, 20, c.SampleSize)
	assert.True(t, strings.HasPrefix(c.Interpretation, "strong positive"))
}

func TestCorrelateInsufficient(t *testing.T) {
	ds := build(t, []string{"a", "b"},
		[]string{"1", "2"},
		[]string{"2", ""},
		[]string{"", "5"},
		[]string{"4", "8"},
	)
	_, err := analysis.Correlate(ds, "a", "b")
	require.Error(t, err)
	assert.Equal(t, errinfo.CodeInsufficientData, errinfo.CodeOf(err))
}

func TestCorrelatePValue(t *testing.T) {
	ds := build(t, []string{"x", "y"},
		[]string{"1", "2"}, []string{"2", "1"}, []string{"3", "4"},
		[]string{"4", "3"}, []string{"5", "6"},
	)
	c, err := analysis.Correlate(ds, "x", "y")
	require.NoError(t, err)
	// r = 0.822 with n = 5 gives t = 2.5 on 3 degrees of freedom.
	assert.InDelta(t, 0.822, c.Coefficient, 1e-9)
	assert.InDelta(t, 0.087707, c.PValue, 1e-5)
}

func TestCorrelationMatrix(t *testing.T) {
	m, err := analysis.CorrelationMatrix(sample())
	require.NoError(t, err)
	require.Equal(t, []string{"Age", "Salary", "Experience_Years", "Rating"}, m.Columns)
	for _, c := range m.Columns {
		require.NotNil(t, m.Values[c][c])
		assert.InDelta(t, 1.0, *m.Values[c][c], 1e-9)
	}
	assert.Equal(t, *m.Values["Age"]["Salary"], *m.Values["Salary"]["Age"])
	require.NotEmpty(t, m.Strong)
	for i := 1; i < len(m.Strong); i++ {
		assert.GreaterOrEqual(t, math.Abs(m.Strong[i-1].Coefficient), math.Abs(m.Strong[i].Coefficient))
	}
	for _, p := range m.Strong {
		assert.Greater(t, math.Abs(p.Coefficient), 0.5)
		assert.NotEqual(t, p.ColumnA, p.ColumnB)
	}

	_, err = analysis.CorrelationMatrix(build(t, []string{"s"}, []string{"a"}))
	require.Equal(t, errinfo.CodeInvalidInput, errinfo.CodeOf(err))
}

func TestTrendAnalysis(t *testing.T) {
	ds := build(t, []string{"when", "value"},
		[]string{"2024-01-01", "10"},
		[]string{"2024-01-03", "30"},
		[]string{"not a date", "99"},
		[]string{"2024-01-02", "20"},
		[]string{"2024-01-04", ""},
	)
	tr, err := analysis.TrendAnalysis(ds, "when", "value")
	require.NoError(t, err)
	assert.Equal(t, "upward", tr.Direction)
	assert.InDelta(t, 10.0, tr.Slope, 1e-9)
	assert.InDelta(t, 1.0, tr.RSquared, 1e-9)
	require.NotNil(t, tr.PValue)
	assert.Equal(t, 0.0, *tr.PValue)
	require.NotNil(t, tr.SlopePerDay)
	assert.InDelta(t, 10.0, *tr.SlopePerDay, 1e-9)
	assert.Equal(t, 3, tr.Points)
	assert.Equal(t, "2024-01-01", tr.DateRange.Start)
	assert.Equal(t, "2024-01-03", tr.DateRange.End)
	assert.Equal(t, 20.0, tr.Values.Mean)
	assert.InDelta(t, 8.165, tr.Values.Std, 1e-3)
}

func TestTrendInsufficient(t *testing.T) {
	ds := build(t, []string{"when", "value"},
		[]string{"2024-01-01", "1"},
		[]string{"2024-01-02", "2"},
	)
	_, err := analysis.TrendAnalysis(ds, "when", "value")
	require.Equal(t, errinfo.CodeInsufficientData, errinfo.CodeOf(err))
}

func TestGroupStatistics(t *testing.T) {
	g, err := analysis.GroupStatistics(sample(), "Department", "Salary")
	require.NoError(t, err)
	require.Equal(t, 4, g.TotalGroups)

	keys := []string{}
	total := 0
	for _, grp := range g.Groups {
		keys = append(keys, grp.Key)
		total += grp.Count
	}
	assert.Equal(t, []string{"Engineering", "HR", "Marketing", "Sales"}, keys)
	assert.Equal(t, 20, total)

	eng := g.Groups[0]
	assert.Equal(t, 6, eng.Count)
	assert.Equal(t, 683000.0, eng.Sum)
	assert.Equal(t, 125000.0, *eng.Max)
	assert.Equal(t, 95000.0, *eng.Min)
}

func TestGroupCountsSkipMissingKeys(t *testing.T) {
	ds := build(t, []string{"k", "v"},
		[]string{"a", "1"}, []string{"", "2"}, []string{"b", ""}, []string{"a", "3"},
	)
	g, err := analysis.GroupStatistics(ds, "k", "v")
	require.NoError(t, err)
	require.Len(t, g.Groups, 2)
	assert.Equal(t, 2, g.Groups[0].Count)
	assert.Equal(t, 1, g.Groups[1].Count)
	assert.Nil(t, g.Groups[1].Mean)
	assert.NotNil(t, g.Groups[0].Std)
}

func TestQueryPipeline(t *testing.T) {
	q, err := analysis.Query(sample(), analysis.QueryOptions{
		SortBy:       "Salary",
		Ascending:    false,
		TopN:         3,
		FilterColumn: "Department",
		FilterValue:  "engineering",
	})
	require.NoError(t, err)
	require.Equal(t, 3, q.RowsReturned)
	assert.Equal(t, 20, q.TotalRows)
	names := []any{}
	for _, r := range q.Data {
		names = append(names, r["Name"])
	}
	assert.Equal(t, []any{"Frank", "Nick", "Rita"}, names)
	assert.LessOrEqual(t, q.RowsReturned, q.TotalRows)
}

func TestQueryProjection(t *testing.T) {
	q, err := analysis.Query(sample(), analysis.QueryOptions{Columns: " Name , Bogus,Age", SortBy: "Age", Ascending: true, TopN: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age"}, q.Columns)
	require.Len(t, q.Data, 1)
	assert.Equal(t, "Olivia", q.Data[0]["Name"])
	assert.Len(t, q.Data[0], 2)

	_, err = analysis.Query(sample(), analysis.QueryOptions{Columns: "x,y"})
	assert.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))

	// sorting happens after projection, so a dropped column cannot be sorted on
	_, err = analysis.Query(sample(), analysis.QueryOptions{Columns: "Name", SortBy: "Age"})
	assert.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))

	_, err = analysis.Query(sample(), analysis.QueryOptions{FilterColumn: "Nope", FilterValue: "x"})
	assert.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))
}

func TestQuerySortsMissingLast(t *testing.T) {
	ds := build(t, []string{"v"}, []string{"2"}, []string{""}, []string{"1"})
	for _, asc := range []bool{true, false} {
		q, err := analysis.Query(ds, analysis.QueryOptions{SortBy: "v", Ascending: asc})
		require.NoError(t, err)
		assert.Nil(t, q.Data[2]["v"])
	}
}

func TestDescribe(t *testing.T) {
	d := analysis.Describe(sample())
	assert.Equal(t, analysis.Shape{Rows: 20, Columns: 8}, d.Shape)
	age := d.Numeric["Age"]
	assert.Equal(t, 20, age.Count)
	require.NotNil(t, age.Min)
	assert.Equal(t, 24.0, *age.Min)
	assert.Equal(t, 42.0, *age.Max)

	dept := d.Categorical["Department"]
	assert.Equal(t, 4, dept.UniqueValues)
	assert.Equal(t, analysis.ValueCount{Value: "Engineering", Count: 6}, dept.TopValues[0])
	assert.Len(t, d.Categorical["Name"].TopValues, 10)
	assert.Equal(t, 0, d.NullCounts["Salary"])
	assert.Equal(t, dataset.TypeDatetime, d.ColumnTypes["Join_Date"])
}

func TestSummaryMarkdown(t *testing.T) {
	opt := analysis.DefaultSummaryOptions()
	opt.GroupBy = "Department"
	md := analysis.Summarize(sample(), opt).Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "[CORRELATIONS]", "[GROUP-BY SUMMARY: Department]", "| Name | Age |"} {
		assert.Contains(t, md, want)
	}
}
