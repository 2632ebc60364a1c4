// Package sqltool holds one external database connection and runs catalog
// lookups and arbitrary statements against it.
package sqltool

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/errinfo"
)

const (
	// MaxRows caps the rows returned by Execute.
	MaxRows = 200

	pingTimeout = 10 * time.Second
)

// ErrNotConnected is returned by every operation that needs a connection
// while the slot is empty.
var ErrNotConnected = errinfo.Invalid("No database connected. Use connect_database first.")

// Slot is a single replaceable connection. The zero value is disconnected
// and ready to use.
type Slot struct {
	Logger *slog.Logger

	mu      sync.Mutex
	db      *sql.DB
	dialect *dialect
}

// Connection is the result of Connect.
type Connection struct {
	Message string   `json:"message"`
	Dialect string   `json:"dialect"`
	Tables  []string `json:"tables"`
}

func (s *Slot) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Connect opens dsn, checks it with SELECT 1 and swaps it into the slot.
// The previous connection is closed on success; on failure the slot ends
// up disconnected.
func (s *Slot) Connect(ctx context.Context, dsn string) (*Connection, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errinfo.Invalid("A connection string is required.")
	}
	scheme, _, ok := splitScheme(dsn)
	if !ok {
		return nil, errinfo.Invalid("Connection string must look like scheme://[user:pass@]host[:port]/database.")
	}
	d, known := dialects[scheme]
	if !known {
		d = passthrough(scheme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()

	db, err := d.open(dsn)
	if err != nil {
		return nil, errinfo.External(err, "Connection failed")
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	var one int
	if err := db.QueryRowContext(pctx, "SELECT 1").Scan(&one); err != nil {
		db.Close()
		return nil, errinfo.External(err, "Connection failed")
	}
	s.db, s.dialect = db, d
	tables, err := s.tablesLocked(ctx)
	if err != nil {
		s.closeLocked()
		return nil, err
	}
	s.logger().Info("database connected", "dialect", d.name, "tables", len(tables))
	return &Connection{Message: "Connected to database successfully.", Dialect: d.name, Tables: tables}, nil
}

func (s *Slot) closeLocked() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger().Warn("close database", "err", err)
		}
	}
	s.db, s.dialect = nil, nil
}

// Close drops the current connection, if any.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

// Connected reports whether the slot holds a connection.
func (s *Slot) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// ListTables returns the base tables of the connected database.
func (s *Slot) ListTables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrNotConnected
	}
	return s.tablesLocked(ctx)
}

func (s *Slot) tablesLocked(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.tables)
	if err != nil {
		return nil, errinfo.External(err, "list tables")
	}
	defer rows.Close()
	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errinfo.External(err, "list tables")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errinfo.External(err, "list tables")
	}
	return tables, nil
}

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableInfo is the result of DescribeTable.
type TableInfo struct {
	Table       string       `json:"table_name"`
	Columns     []ColumnInfo `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	RowCount    int64        `json:"row_count"`
}

// DescribeTable reports columns, primary key and row count of table.
func (s *Slot) DescribeTable(ctx context.Context, table string) (*TableInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.columns, table)
	if err != nil {
		return nil, errinfo.External(err, "describe %s", table)
	}
	defer rows.Close()

	info := &TableInfo{Table: table, Columns: []ColumnInfo{}, PrimaryKeys: []string{}}
	type key struct {
		name string
		pos  int64
	}
	var keys []key
	for rows.Next() {
		var (
			c        ColumnInfo
			typ      sql.NullString
			nullable sql.NullBool
			pk       sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &typ, &nullable, &pk); err != nil {
			return nil, errinfo.External(err, "describe %s", table)
		}
		c.Type = typ.String
		c.Nullable = !nullable.Valid || nullable.Bool
		info.Columns = append(info.Columns, c)
		if pk.Int64 > 0 {
			keys = append(keys, key{c.Name, pk.Int64})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errinfo.External(err, "describe %s", table)
	}
	if len(info.Columns) == 0 {
		tables, _ := s.tablesLocked(ctx)
		return nil, errinfo.NotFound("Table '%s' not found. Available tables: %s", table, strings.Join(tables, ", "))
	}
	sort.SliceStable(keys, func(a, b int) bool { return keys[a].pos < keys[b].pos })
	for _, k := range keys {
		info.PrimaryKeys = append(info.PrimaryKeys, k.name)
	}
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.dialect.quote(table))
	if err := s.db.QueryRowContext(ctx, q).Scan(&info.RowCount); err != nil {
		return nil, errinfo.External(err, "count rows of %s", table)
	}
	return info, nil
}
