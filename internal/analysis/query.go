package analysis

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

// QueryOptions selects, filters and orders rows. Zero values disable a step.
type QueryOptions struct {
	SortBy       string
	Ascending    bool
	TopN         int
	FilterColumn string
	FilterValue  string
	// Columns is a comma-separated projection list.
	Columns string
}

// QueryResult is the result of Query.
type QueryResult struct {
	Dataset      string           `json:"dataset_name"`
	RowsReturned int              `json:"rows_returned"`
	TotalRows    int              `json:"total_rows"`
	Columns      []string         `json:"columns"`
	Data         []map[string]any `json:"data"`
}

// Query runs filter, then projection, then sort, then limit.
func Query(ds *dataset.Dataset, opt QueryOptions) (*QueryResult, error) {
	t := ds.Table
	rows := t.Rows
	cols := t.Columns

	if opt.FilterColumn != "" && opt.FilterValue != "" {
		fi, err := ColumnIndex(t, opt.FilterColumn)
		if err != nil {
			return nil, err
		}
		needle := strings.ToLower(opt.FilterValue)
		kept := make([][]dataset.Value, 0, len(rows))
		for _, row := range rows {
			v := row[fi]
			if v.IsNull() {
				continue
			}
			if strings.Contains(strings.ToLower(v.String()), needle) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if strings.TrimSpace(opt.Columns) != "" {
		var pick []int
		for _, name := range strings.Split(opt.Columns, ",") {
			if i, ok := t.Index(strings.TrimSpace(name)); ok {
				pick = append(pick, i)
			}
		}
		if len(pick) == 0 {
			return nil, errinfo.NotFound("None of the requested columns found. Available: %s", strings.Join(t.Columns, ", "))
		}
		cols = make([]string, len(pick))
		for j, i := range pick {
			cols[j] = t.Columns[i]
		}
		projected := make([][]dataset.Value, len(rows))
		for r, row := range rows {
			out := make([]dataset.Value, len(pick))
			for j, i := range pick {
				out[j] = row[i]
			}
			projected[r] = out
		}
		rows = projected
	}

	if opt.SortBy != "" {
		si := -1
		for i, c := range cols {
			if c == opt.SortBy {
				si = i
				break
			}
		}
		if si < 0 {
			return nil, errinfo.NotFound("Sort column '%s' not found. Available: %s", opt.SortBy, strings.Join(cols, ", "))
		}
		sorted := append([][]dataset.Value(nil), rows...)
		sort.SliceStable(sorted, func(a, b int) bool {
			va, vb := sorted[a][si], sorted[b][si]
			// missing values always sort last
			if va.IsNull() || vb.IsNull() {
				return !va.IsNull() && vb.IsNull()
			}
			c := dataset.Compare(va, vb)
			if opt.Ascending {
				return c < 0
			}
			return c > 0
		})
		rows = sorted
	}

	if opt.TopN > 0 && opt.TopN < len(rows) {
		rows = rows[:opt.TopN]
	}
	return &QueryResult{
		Dataset:      ds.Name,
		RowsReturned: len(rows),
		TotalRows:    t.NumRows(),
		Columns:      cols,
		Data:         dataset.Records(cols, rows),
	}, nil
}
