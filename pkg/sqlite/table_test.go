package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/value"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (id, name, active) VALUES
		(1, 'ada', 1),
		(2, 'bob', 0)`)
	require.NoError(t, err)
	return db
}

func TestIntrospect(t *testing.T) {
	db := testDB(t)

	schema, err := Introspect(db, "users")
	require.NoError(t, err)
	assert.Equal(t, "id INT, name STRING, active BOOLEAN", schema.String())

	_, err = Introspect(db, "missing")
	assert.ErrorIs(t, err, database.ErrTableNotFound)
}

func TestIntrospectRejectsUnsupportedTypes(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec(`CREATE TABLE metrics (score REAL)`)
	require.NoError(t, err)

	_, err = Introspect(db, "metrics")
	assert.ErrorContains(t, err, "unsupported column type")
}

func TestTableScan(t *testing.T) {
	db := testDB(t)

	tbl, err := NewTable(db, "users", nil)
	require.NoError(t, err)

	cur, err := tbl.Rows()
	require.NoError(t, err)
	defer cur.Close()

	var names []string
	var actives []bool
	for {
		row, err := cur.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
		v, err := row.Value("name")
		require.NoError(t, err)
		name, err := v.AsString()
		require.NoError(t, err)
		names = append(names, name)

		v, err = row.Value("active")
		require.NoError(t, err)
		active, err := v.AsBool()
		require.NoError(t, err)
		actives = append(actives, active)
	}
	assert.Equal(t, []string{"ada", "bob"}, names)
	assert.Equal(t, []bool{true, false}, actives, "integer-backed booleans convert")

	row, err := cur.Next()
	assert.NoError(t, err)
	assert.Nil(t, row, "cursor stays exhausted")
}

func TestTableScanRejectsNull(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec(`CREATE TABLE notes (id INTEGER, body TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO notes (id, body) VALUES (1, NULL)`)
	require.NoError(t, err)

	tbl, err := NewTable(db, "notes", nil)
	require.NoError(t, err)

	cur, err := tbl.Rows()
	require.NoError(t, err)
	defer cur.Close()

	_, err = cur.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NULL")
}

func TestAttach(t *testing.T) {
	db := testDB(t)
	_, err := db.Exec(`CREATE TABLE accounts (id INTEGER, owner TEXT)`)
	require.NoError(t, err)

	catalog := database.NewCatalog()
	names, err := Attach(db, catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "users"}, names)

	tbl, err := catalog.Table("users")
	require.NoError(t, err)
	col, err := tbl.Schema().Column("active")
	require.NoError(t, err)
	assert.Equal(t, value.BoolType, col.Type)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"users"`, quoteIdent("users"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
