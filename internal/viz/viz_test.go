package viz_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
	"github.com/KaramelBytes/dataloom-cli/internal/viz"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *dataset.Dataset {
	t := dataset.Sample()
	return &dataset.Dataset{Name: "sample", Table: t, Meta: t.Metadata("sample")}
}

func newRenderer(t *testing.T) (*viz.Renderer, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "outputs")
	r := viz.NewRenderer(dir, nil)
	r.Width, r.Height = 400, 300
	return r, dir
}

func assertPNG(t *testing.T, dir string, c *viz.Chart, typ, prefix string) {
	t.Helper()
	require.NotNil(t, c)
	assert.Equal(t, typ, c.Type)
	assert.Equal(t, dir, filepath.Dir(c.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(c.Path), prefix), c.Path)
	assert.Equal(t, ".png", filepath.Ext(c.Path))
	b, err := os.ReadFile(c.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestPieSlicesFoldsRemainder(t *testing.T) {
	got, err := viz.PieSlices(sample(), "Department", "Salary", 2)
	require.NoError(t, err)
	want := []viz.Slice{
		{Label: "Engineering", Value: 683000},
		{Label: "Sales", Value: 420000},
		{Label: "Other", Value: 624000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slices mismatch (-want +got):\n%s", diff)
	}

	got, err = viz.PieSlices(sample(), "Department", "Salary", 0)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "HR", got[3].Label)

	_, err = viz.PieSlices(sample(), "Department", "City", 3)
	assert.Equal(t, errinfo.CodeInvalidInput, errinfo.CodeOf(err))
}

func TestEdgesAndFill(t *testing.T) {
	vals := []float64{0, 1, 2, 3, 4, 10}
	bins := viz.Edges(vals, 5)
	require.Len(t, bins, 5)
	viz.Fill(bins, vals)
	counts := make([]int, len(bins))
	for i, b := range bins {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{2, 2, 1, 0, 1}, counts)
	assert.Equal(t, 10.0, bins[4].Hi)

	one := viz.Edges([]float64{7, 7}, 2)
	assert.Equal(t, 6.5, one[0].Lo)
	assert.Equal(t, 7.5, one[1].Hi)
	assert.Nil(t, viz.Edges(nil, 3))
}

func TestRenderCharts(t *testing.T) {
	r, dir := newRenderer(t)
	ds := sample()

	c, err := r.Bar(ds, viz.BarRequest{X: "Name", Y: "Salary", TopN: 5, Color: "Department"})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeBar, "bar_chart_")

	c, err = r.Line(ds, viz.LineRequest{X: "Join_Date", Y: "Salary", Title: "Pay over time"})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeLine, "pay_over_time_")

	c, err = r.Line(ds, viz.LineRequest{X: "City", Y: "Rating", Color: "Department"})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeLine, "line_chart_")

	c, err = r.Scatter(ds, viz.ScatterRequest{X: "Experience_Years", Y: "Salary", Color: "Department", Size: "Age"})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeScatter, "scatter_plot_")

	c, err = r.Histogram(ds, viz.HistogramRequest{Column: "Age", Bins: 5})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeHistogram, "histogram_")

	c, err = r.Pie(ds, viz.PieRequest{Names: "City", Values: "Salary", TopN: 3})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypePie, "pie_chart_")

	c, err = r.Heatmap(ds, viz.HeatmapRequest{})
	require.NoError(t, err)
	assertPNG(t, dir, c, viz.TypeHeatmap, "correlation_heatmap_")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestChartErrors(t *testing.T) {
	r, dir := newRenderer(t)
	ds := sample()

	_, err := r.Bar(ds, viz.BarRequest{X: "Nope", Y: "Salary"})
	assert.Equal(t, errinfo.CodeNotFound, errinfo.CodeOf(err))

	_, err = r.Scatter(ds, viz.ScatterRequest{X: "City", Y: "Salary"})
	assert.Equal(t, errinfo.CodeInvalidInput, errinfo.CodeOf(err))

	text, err := dataset.FromStrings([]string{"a", "b"}, [][]string{{"x", "y"}, {"z", "w"}})
	require.NoError(t, err)
	_, err = r.Heatmap(&dataset.Dataset{Name: "t", Table: text}, viz.HeatmapRequest{})
	assert.Equal(t, errinfo.CodeInvalidInput, errinfo.CodeOf(err))

	single, err := dataset.FromStrings([]string{"x", "y"}, [][]string{{"1", "2"}})
	require.NoError(t, err)
	_, err = r.Line(&dataset.Dataset{Name: "s", Table: single}, viz.LineRequest{X: "x", Y: "y"})
	assert.Equal(t, errinfo.CodeInsufficientData, errinfo.CodeOf(err))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no chart should be written on validation errors")
}
