package dataset

import (
	"fmt"
	"strings"
)

// Table is an immutable, row-major tabular value. Column types are inferred
// once when the table is built and never re-derived on read.
type Table struct {
	Columns []string
	Types   []ColumnType
	Rows    [][]Value
}

// Columns classifies a table's columns for callers that need to pick
// chartable or groupable fields.
type Columns struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	Datetime    []string `json:"datetime"`
	All         []string `json:"all"`
}

// Metadata summarizes a stored dataset.
type Metadata struct {
	Name        string                `json:"name"`
	Columns     []string              `json:"columns"`
	RowCount    int                   `json:"row_count"`
	ColumnTypes map[string]ColumnType `json:"column_types"`
}

// FromStrings builds a table from a header and raw string records, inferring
// the type of every column. Short records are padded with nulls; records
// wider than the header are rejected. Numbers must be plain decimals.
func FromStrings(header []string, records [][]string) (*Table, error) {
	return fromStrings(header, records, inferOptions{})
}

// FromFormatted is FromStrings for display text, such as HTML tables and
// formatted spreadsheet cells, where numbers may carry comma thousands
// separators.
func FromFormatted(header []string, records [][]string) (*Table, error) {
	return fromStrings(header, records, inferOptions{thousands: true})
}

func fromStrings(header []string, records [][]string, opt inferOptions) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("no columns to parse")
	}
	cols := uniqueHeader(header)
	raw := make([][]string, len(cols))
	for i := range raw {
		raw[i] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) > len(cols) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", r+1, len(rec), len(cols))
		}
		for c, s := range rec {
			raw[c][r] = s
		}
	}
	t := &Table{Columns: cols, Types: make([]ColumnType, len(cols)), Rows: make([][]Value, len(records))}
	for r := range t.Rows {
		t.Rows[r] = make([]Value, len(cols))
	}
	for c := range cols {
		typ, vals := inferColumn(raw[c], opt)
		t.Types[c] = typ
		for r, v := range vals {
			t.Rows[r][c] = v
		}
	}
	return t, nil
}

func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		if n, ok := seen[h]; ok {
			name = fmt.Sprintf("%s.%d", h, n)
			seen[h] = n + 1
		} else {
			seen[h] = 1
		}
		out[i] = name
	}
	return out
}

func (t *Table) NumRows() int { return len(t.Rows) }
func (t *Table) NumCols() int { return len(t.Columns) }

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the cells of column i.
func (t *Table) Column(i int) []Value {
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Numbers returns the non-null numeric cells of column i in row order.
func (t *Table) Numbers(i int) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := row[i].Number(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Classify splits the columns by inferred type.
func (t *Table) Classify() Columns {
	cs := Columns{Numeric: []string{}, Categorical: []string{}, Datetime: []string{}, All: append([]string{}, t.Columns...)}
	for i, c := range t.Columns {
		switch typ := t.Types[i]; {
		case typ.IsNumeric():
			cs.Numeric = append(cs.Numeric, c)
		case typ == TypeText:
			cs.Categorical = append(cs.Categorical, c)
		case typ == TypeDatetime:
			cs.Datetime = append(cs.Datetime, c)
		}
	}
	return cs
}

// Metadata describes the table as stored under name.
func (t *Table) Metadata(name string) Metadata {
	types := make(map[string]ColumnType, len(t.Columns))
	for i, c := range t.Columns {
		types[c] = t.Types[i]
	}
	return Metadata{
		Name:        name,
		Columns:     append([]string{}, t.Columns...),
		RowCount:    len(t.Rows),
		ColumnTypes: types,
	}
}

// Records renders rows as column-name keyed maps, the shape returned to
// callers of query-like tools.
func Records(columns []string, rows [][]Value) []map[string]any {
	out := make([]map[string]any, len(rows))
	for r, row := range rows {
		m := make(map[string]any, len(columns))
		for c, name := range columns {
			m[name] = row[c].Interface()
		}
		out[r] = m
	}
	return out
}
