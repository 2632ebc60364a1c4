package dataset

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Preview renders the first n rows as a plain-text table.
func Preview(t *Table, n int) string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	var b strings.Builder
	tw := tablewriter.NewWriter(&b)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range t.Rows[:n] {
		cells := make([]string, len(row))
		for i, v := range row {
			if v.IsNull() {
				cells[i] = "NaN"
				continue
			}
			cells[i] = v.String()
		}
		tw.Append(cells)
	}
	tw.Render()
	return b.String()
}
