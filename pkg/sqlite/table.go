// Package sqlite adapts tables in a SQLite database file to the engine's
// Table interface. Declared column types are mapped onto the engine's
// type system at attach time, so scans produce typed rows like any other
// table.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/value"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens a SQLite database file and verifies the connection.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Tables lists the user tables in the database, sorted by name.
func Tables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Introspect builds a schema for a table from PRAGMA table_info.
func Introspect(db *sql.DB, table string) (*database.Schema, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to introspect table '%s': %w", table, err)
	}
	defer rows.Close()

	var cols []database.Column
	for rows.Next() {
		var (
			cid      int
			name     string
			declared string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		t, err := columnType(declared)
		if err != nil {
			return nil, fmt.Errorf("table '%s', column %q: %w", table, name, err)
		}
		cols = append(cols, database.Column{Name: name, Type: t})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: '%s'", database.ErrTableNotFound, table)
	}
	return database.NewSchema(cols...)
}

// columnType maps a declared SQLite column type onto the engine's type
// system, following SQLite's affinity rules: BOOL before INT so that
// BOOLEAN columns do not fall through to integers.
func columnType(declared string) (value.Type, error) {
	u := strings.ToUpper(declared)
	switch {
	case strings.Contains(u, "BOOL"):
		return value.BoolType, nil
	case strings.Contains(u, "INT"):
		return value.IntType, nil
	case strings.Contains(u, "CHAR"), strings.Contains(u, "CLOB"), strings.Contains(u, "TEXT"):
		return value.StringType, nil
	default:
		return 0, fmt.Errorf("unsupported column type %q", declared)
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Table exposes one SQLite table to the engine.
type Table struct {
	db     *sql.DB
	name   string
	schema *database.Schema
	logger *zap.Logger
}

// NewTable introspects the named table and wraps it.
func NewTable(db *sql.DB, name string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := Introspect(db, name)
	if err != nil {
		return nil, err
	}
	return &Table{db: db, name: name, schema: schema, logger: logger}, nil
}

func (t *Table) Schema() *database.Schema { return t.schema }

func (t *Table) Rows() (database.Cursor, error) {
	cols := t.schema.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), quoteIdent(t.name))

	rows, err := t.db.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan table '%s': %w", t.name, err)
	}
	t.logger.Debug("scanning sqlite table", zap.String("table", t.name))
	return &sqlCursor{rows: rows, cols: cols}, nil
}

type sqlCursor struct {
	rows *sql.Rows
	cols []database.Column
}

func (c *sqlCursor) Next() (database.Row, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	values := make([]interface{}, len(c.cols))
	scanArgs := make([]interface{}, len(c.cols))
	for i := range values {
		scanArgs[i] = &values[i]
	}
	if err := c.rows.Scan(scanArgs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(database.Row, len(c.cols))
	for i, col := range c.cols {
		v, err := convertValue(values[i], col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		row[col.Name] = v
	}
	return row, nil
}

func (c *sqlCursor) Close() error {
	return c.rows.Close()
}

// convertValue turns a driver value into an engine value of the expected
// type. The engine has no null, so NULLs are reported instead of coerced.
func convertValue(raw interface{}, t value.Type) (value.Value, error) {
	if raw == nil {
		return value.Value{}, fmt.Errorf("NULL is not representable as %s", t)
	}
	switch t {
	case value.IntType:
		if i, ok := raw.(int64); ok {
			return value.NewInt(i), nil
		}
	case value.StringType:
		switch s := raw.(type) {
		case string:
			return value.NewString(s), nil
		case []byte:
			return value.NewString(string(s)), nil
		}
	case value.BoolType:
		switch b := raw.(type) {
		case bool:
			return value.NewBool(b), nil
		case int64:
			return value.NewBool(b != 0), nil
		}
	}
	return value.Value{}, fmt.Errorf("cannot convert %T to %s", raw, t)
}

// Attach registers every user table of a database in the catalog and
// returns the registered names.
func Attach(db *sql.DB, catalog *database.Catalog, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	names, err := Tables(db)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		tbl, err := NewTable(db, name, logger)
		if err != nil {
			return nil, err
		}
		if err := catalog.Register(name, tbl); err != nil {
			return nil, err
		}
		logger.Debug("attached sqlite table",
			zap.String("table", name),
			zap.String("schema", tbl.Schema().String()))
	}
	return names, nil
}
