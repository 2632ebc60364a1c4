//go:build cgo

package sqltool

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

func init() {
	registerDialect(&dialect{
		name: "duckdb",
		open: func(dsn string) (*sql.DB, error) {
			path := sqlitePath(dsn)
			if path == ":memory:" {
				path = ""
			}
			return sql.Open("duckdb", path)
		},
		tables: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`,
		columns: fmt.Sprintf(informationSchemaColumns, "current_schema()", "?"),
		quote:   doubleQuote,
	}, "duckdb")
}
