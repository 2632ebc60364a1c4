package sqltool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

// Result is the outcome of Execute. Read statements fill Columns, Rows,
// RowCount and Truncated; writes fill RowsAffected and Message.
type Result struct {
	Columns      []string         `json:"columns,omitempty"`
	RowCount     int              `json:"row_count"`
	Rows         []map[string]any `json:"rows,omitempty"`
	Truncated    bool             `json:"truncated"`
	RowsAffected *int64           `json:"rows_affected,omitempty"`
	Message      string           `json:"message,omitempty"`
}

var readKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "SHOW": true, "PRAGMA": true, "DESCRIBE": true,
	"DESC": true, "EXPLAIN": true, "VALUES": true, "TABLE": true, "FROM": true,
}

// returnsRows guesses from the first keyword whether query produces a
// result set. RETURNING clauses on writes also count.
func returnsRows(query string) bool {
	q := strings.TrimLeft(query, " \t\r\n(")
	for strings.HasPrefix(q, "--") {
		if i := strings.IndexByte(q, '\n'); i >= 0 {
			q = strings.TrimLeft(q[i+1:], " \t\r\n(")
		} else {
			return false
		}
	}
	word := q
	if i := strings.IndexAny(q, " \t\r\n(;"); i >= 0 {
		word = q[:i]
	}
	if readKeywords[strings.ToUpper(word)] {
		return true
	}
	return strings.Contains(strings.ToUpper(q), " RETURNING ")
}

// Execute runs query. Read results are capped at MaxRows and flagged as
// truncated; RowCount still reports the full size. Writes are committed
// immediately.
func (s *Slot) Execute(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errinfo.Invalid("A query is required.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrNotConnected
	}
	if !returnsRows(query) {
		res, err := s.db.ExecContext(ctx, query)
		if err != nil {
			return nil, errinfo.External(err, "Query failed")
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = -1
		}
		return &Result{RowsAffected: &n, Message: fmt.Sprintf("Query executed successfully. Rows affected: %d", n)}, nil
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errinfo.External(err, "Query failed")
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, errinfo.External(err, "Query failed")
	}
	out := &Result{Columns: cols, Rows: []map[string]any{}}
	cells := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		out.RowCount++
		if len(out.Rows) >= MaxRows {
			out.Truncated = true
			continue
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errinfo.External(err, "Query failed")
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = jsonCell(cells[i])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errinfo.External(err, "Query failed")
	}
	return out, nil
}

func jsonCell(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return x
	}
}
