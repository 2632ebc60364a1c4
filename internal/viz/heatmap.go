package viz

import (
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type HeatmapRequest struct {
	Title string
}

var (
	coldColor    = drawing.Color{R: 33, G: 102, B: 172, A: 255}
	neutralColor = drawing.Color{R: 247, G: 247, B: 247, A: 255}
	hotColor     = drawing.Color{R: 178, G: 24, B: 43, A: 255}
	missingColor = drawing.Color{R: 200, G: 200, B: 200, A: 255}
)

// divergingColor maps a coefficient in [-1, 1] onto blue, white and red.
func divergingColor(v float64) drawing.Color {
	if math.IsNaN(v) {
		return missingColor
	}
	v = math.Max(-1, math.Min(1, v))
	from, to, f := neutralColor, hotColor, v
	if v < 0 {
		to, f = coldColor, -v
	}
	mix := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f)) }
	return drawing.Color{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B), A: 255}
}

// Heatmap draws the correlation matrix of every numeric column, each cell
// annotated with its coefficient to two decimals.
func (r *Renderer) Heatmap(ds *dataset.Dataset, req HeatmapRequest) (*Chart, error) {
	m, err := analysis.CorrelationMatrix(ds)
	if err != nil {
		return nil, err
	}
	grid := make([][]float64, len(m.Columns))
	for i, a := range m.Columns {
		grid[i] = make([]float64, len(m.Columns))
		for j, b := range m.Columns {
			grid[i][j] = math.NaN()
			if v := m.Values[a][b]; v != nil {
				grid[i][j] = *v
			}
		}
	}
	title := titleOr(req.Title, "Correlation Heatmap")
	w, h := r.size()
	return r.save(title, TypeHeatmap, func(out io.Writer) error {
		return drawHeatmap(out, w, h, title, m.Columns, grid)
	})
}

func drawHeatmap(out io.Writer, w, h int, title string, labels []string, grid [][]float64) error {
	rnd, err := chart.PNG(w, h)
	if err != nil {
		return err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return err
	}
	chart.Draw.Box(rnd, chart.Box{Right: w, Bottom: h}, chart.Style{FillColor: white, StrokeColor: white, StrokeWidth: 1})

	titleStyle := chart.Style{Font: font, FontSize: 16, FontColor: chart.DefaultTextColor}
	tb := chart.Draw.MeasureText(rnd, title, titleStyle)
	chart.Draw.Text(rnd, title, (w-tb.Width())/2, 16+tb.Height(), titleStyle)

	labelStyle := chart.Style{Font: font, FontSize: 9, FontColor: chart.DefaultTextColor}
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, chart.Draw.MeasureText(rnd, l, labelStyle).Width())
	}
	const colorbarWidth = 90
	top := 40 + tb.Height()
	left := 16 + labelWidth + 8
	n := len(labels)
	cell := min((w-left-colorbarWidth)/n, (h-top-40)/n)
	if cell < 1 {
		return fmt.Errorf("%d columns do not fit a %dx%d image", n, w, h)
	}
	bottom := top + cell*n

	cellText := chart.Style{Font: font, FontSize: 8, FontColor: chart.DefaultTextColor}
	for i := range labels {
		for j := range labels {
			b := chart.Box{Left: left + j*cell, Top: top + i*cell, Right: left + (j+1)*cell, Bottom: top + (i+1)*cell}
			c := divergingColor(grid[i][j])
			chart.Draw.Box(rnd, b, chart.Style{FillColor: c, StrokeColor: white, StrokeWidth: 1})
			txt := "nan"
			if !math.IsNaN(grid[i][j]) {
				txt = fmt.Sprintf("%.2f", grid[i][j])
			}
			centred(rnd, txt, b, cellText)
		}
		lb := chart.Draw.MeasureText(rnd, labels[i], labelStyle)
		chart.Draw.Text(rnd, labels[i], left-8-lb.Width(), top+i*cell+(cell+lb.Height())/2, labelStyle)
		chart.Draw.Text(rnd, fit(rnd, labels[i], cell, labelStyle), left+i*cell+2, bottom+14, labelStyle)
	}
	drawColorbar(rnd, chart.Box{Left: w - colorbarWidth + 20, Top: top, Right: w - colorbarWidth + 40, Bottom: bottom}, labelStyle)
	return rnd.Save(out)
}

func centred(rnd chart.Renderer, txt string, b chart.Box, style chart.Style) {
	tb := chart.Draw.MeasureText(rnd, txt, style)
	if tb.Width() > b.Width() {
		return
	}
	chart.Draw.Text(rnd, txt, b.Left+(b.Width()-tb.Width())/2, b.Top+(b.Height()+tb.Height())/2, style)
}

// fit shortens s with an ellipsis until it is no wider than width pixels.
func fit(rnd chart.Renderer, s string, width int, style chart.Style) string {
	if chart.Draw.MeasureText(rnd, s, style).Width() <= width-4 {
		return s
	}
	rs := []rune(s)
	for n := len(rs) - 1; n > 0; n-- {
		short := string(rs[:n]) + "…"
		if chart.Draw.MeasureText(rnd, short, style).Width() <= width-4 {
			return short
		}
	}
	return ""
}

func drawColorbar(rnd chart.Renderer, b chart.Box, style chart.Style) {
	steps := b.Height()
	for y := 0; y < steps; y++ {
		v := 1 - 2*float64(y)/float64(max(steps-1, 1))
		c := divergingColor(v)
		chart.Draw.Box(rnd, chart.Box{Left: b.Left, Right: b.Right, Top: b.Top + y, Bottom: b.Top + y + 1}, chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1})
	}
	for _, v := range []float64{1, 0.5, 0, -0.5, -1} {
		y := b.Top + int((1-v)/2*float64(steps))
		chart.Draw.Text(rnd, fmt.Sprintf("%.1f", v), b.Right+6, y+4, style)
	}
}
