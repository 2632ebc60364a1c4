package report_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/report"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRenderMarkdown(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "c.png")
	writePNG(t, chart)

	md := report.RenderMarkdown("Q1 Review", stamp, []report.Section{
		{Heading: "Revenue", Content: "Up 4%.", ChartPath: chart},
		{Content: "No heading here.", ChartPath: filepath.Join(dir, "missing.png")},
	})
	want := strings.Join([]string{
		"# Q1 Review",
		"*Generated on 2026-03-14 09:26:53*",
		"",
		"---",
		"",
		"## Revenue",
		"",
		"Up 4%.",
		"",
		"![Revenue](" + chart + ")",
		"",
		"---",
		"",
		"## Section",
		"",
		"No heading here.",
		"",
		"---",
		"",
	}, "\n")
	assert.Equal(t, want, md)
}

func TestMarkdownWritesFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "outputs")
	b := report.NewBuilder(out, clockwork.NewFakeClockAt(stamp), nil)

	long := strings.Repeat("x", 3000)
	r, err := b.Markdown("Long", []report.Section{{Heading: "Body", Content: long}})
	require.NoError(t, err)
	assert.Equal(t, "markdown", r.Format)
	assert.Regexp(t, `^report_[0-9a-f]{6}\.md$`, filepath.Base(r.Path))
	assert.Len(t, []rune(r.Preview), 1000)

	data, err := os.ReadFile(r.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), long)
	assert.True(t, strings.HasPrefix(string(data), r.Preview))
}

func TestPDF(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "chart.png")
	writePNG(t, chart)
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0o644))

	b := report.NewBuilder(filepath.Join(dir, "out"), clockwork.NewFakeClockAt(stamp), nil)
	r, err := b.PDF("Quarterly résumé", []report.Section{
		{Heading: "Summary", Content: "Revenue grew.\nCosts fell.", ChartPath: chart},
		{Heading: "Missing chart", Content: "Skipped silently.", ChartPath: filepath.Join(dir, "nope.png")},
	}, []string{chart, broken, filepath.Join(dir, "gone.png"), chart})
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Format)
	assert.Equal(t, 3, r.Pages)

	data, err := os.ReadFile(r.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))
}
