package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// SummaryOptions controls Summarize.
type SummaryOptions struct {
	// SampleRows determines how many leading rows to include.
	SampleRows int
	// GroupBy adds per-group statistics of every numeric column.
	GroupBy string
	// Correlations adds the top correlation pairs.
	Correlations bool
	// Outliers adds IQR outlier counts per numeric column.
	Outliers bool
}

func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{SampleRows: 5, Correlations: true, Outliers: true}
}

// Summary bundles the individual analyses into one markdown-friendly report.
type Summary struct {
	Name        string
	Description *Description
	Columns     []string
	Types       []dataset.ColumnType
	Outliers    map[string]*Outliers
	Matrix      *Matrix
	Groups      []*GroupStats
	Samples     [][]dataset.Value
	Warnings    []string
}

// Summarize runs describe plus the optional analyses over one dataset.
func Summarize(ds *dataset.Dataset, opt SummaryOptions) *Summary {
	t := ds.Table
	s := &Summary{
		Name:        ds.Name,
		Description: Describe(ds),
		Columns:     t.Columns,
		Types:       t.Types,
		Outliers:    map[string]*Outliers{},
	}
	n := opt.SampleRows
	if n <= 0 {
		n = 5
	}
	if n > t.NumRows() {
		n = t.NumRows()
	}
	s.Samples = t.Rows[:n]

	numeric := t.Classify().Numeric
	if opt.Outliers {
		for _, c := range numeric {
			if o, err := DetectOutliers(ds, c); err == nil {
				s.Outliers[c] = o
			}
		}
	}
	if opt.Correlations && len(numeric) >= 2 {
		if m, err := CorrelationMatrix(ds); err == nil {
			s.Matrix = m
		}
	}
	if opt.GroupBy != "" {
		for _, c := range numeric {
			if c == opt.GroupBy {
				continue
			}
			g, err := GroupStatistics(ds, opt.GroupBy, c)
			if err != nil {
				s.Warnings = append(s.Warnings, err.Error())
				break
			}
			s.Groups = append(s.Groups, g)
		}
	}
	return s
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	d := s.Description
	b.WriteString("[DATASET SUMMARY]\n")
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", d.Shape.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", d.Shape.Columns))

	b.WriteString("[SCHEMA]\n")
	for i, name := range s.Columns {
		missing := d.NullCounts[name]
		missPct := 0.0
		if d.Shape.Rows > 0 {
			missPct = float64(missing) * 100.0 / float64(d.Shape.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(name), s.Types[i], d.Shape.Rows-missing, missPct))
		if ns, ok := d.Numeric[name]; ok && ns.Count > 0 {
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g", *ns.Min, *ns.Max, *ns.Mean))
			if ns.Std != nil {
				b.WriteString(fmt.Sprintf(", std %.4g", *ns.Std))
			}
			if o := s.Outliers[name]; o != nil && o.OutlierCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d outside [%.4g, %.4g]", o.OutlierCount, o.LowerBound, o.UpperBound))
			}
		}
		if cs, ok := d.Categorical[name]; ok && len(cs.TopValues) > 0 {
			b.WriteString(" — top: ")
			for j, kv := range cs.TopValues {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if cs.UniqueValues > len(cs.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", cs.UniqueValues))
			}
		}
		b.WriteString("\n")
	}

	if len(s.Groups) > 0 {
		b.WriteString(fmt.Sprintf("\n[GROUP-BY SUMMARY: %s]\n", s.Groups[0].GroupColumn))
		for _, g := range s.Groups {
			b.WriteString(fmt.Sprintf("- %s\n", g.ValueColumn))
			for _, grp := range g.Groups {
				if grp.Mean == nil {
					b.WriteString(fmt.Sprintf("  • %s (n=%d): no values\n", safeVal(grp.Key), grp.Count))
					continue
				}
				b.WriteString(fmt.Sprintf("  • %s (n=%d): mean %.4g (min %.4g, max %.4g)\n", safeVal(grp.Key), grp.Count, *grp.Mean, *grp.Min, *grp.Max))
			}
		}
	}

	if s.Matrix != nil && len(s.Matrix.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		cols := s.Matrix.Columns
		for i := 0; i < len(cols); i++ {
			for j := i + 1; j < len(cols); j++ {
				if r := s.Matrix.Values[cols[i]][cols[j]]; r != nil {
					pairs = append(pairs, pr{A: cols[i], B: cols[j], R: *r})
				}
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		for i := 0; i < len(pairs) && i < 10; i++ {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pairs[i].A, pairs[i].B, pairs[i].R))
		}
	}

	if len(s.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| " + strings.Join(s.Columns, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(s.Columns)) + "\n")
		for _, row := range s.Samples {
			cells := make([]string, len(row))
			for i, v := range row {
				val := v.String()
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				cells[i] = safeVal(val)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
