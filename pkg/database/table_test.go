package database

import (
	"testing"

	"github.com/quarrydb/quarry/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemTableAppendValidates(t *testing.T) {
	tbl := NewMemTable(userSchema(t))

	err := tbl.Append(Row{
		"id":     value.NewInt(1),
		"name":   value.NewString("ada"),
		"active": value.NewBool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	err = tbl.Append(Row{"id": value.NewInt(2)})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Equal(t, 1, tbl.Len(), "rejected rows must not be stored")
}

func TestMemTableAppendCopies(t *testing.T) {
	tbl := NewMemTable(userSchema(t))
	row := Row{"id": value.NewInt(1), "name": value.NewString("ada"), "active": value.NewBool(true)}
	require.NoError(t, tbl.Append(row))

	row["name"] = value.NewString("mallory")

	cur, err := tbl.Rows()
	require.NoError(t, err)
	defer cur.Close()

	got, err := cur.Next()
	require.NoError(t, err)
	v, err := got.Value("name")
	require.NoError(t, err)
	name, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "ada", name, "mutating the appended map must not reach the table")
}

func TestMemTableCursorDrainsAndStaysExhausted(t *testing.T) {
	tbl := NewMemTable(userSchema(t))
	require.NoError(t, tbl.Append(
		Row{"id": value.NewInt(1), "name": value.NewString("ada"), "active": value.NewBool(true)},
		Row{"id": value.NewInt(2), "name": value.NewString("bob"), "active": value.NewBool(false)},
	))

	cur, err := tbl.Rows()
	require.NoError(t, err)
	defer cur.Close()

	var ids []int64
	for {
		row, err := cur.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
		v, err := row.Value("id")
		require.NoError(t, err)
		id, err := v.AsInt()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []int64{1, 2}, ids)

	for i := 0; i < 3; i++ {
		row, err := cur.Next()
		assert.NoError(t, err)
		assert.Nil(t, row)
	}
}

func TestMemTableSupportsMultipleCursors(t *testing.T) {
	tbl := NewMemTable(userSchema(t))
	require.NoError(t, tbl.Append(
		Row{"id": value.NewInt(1), "name": value.NewString("ada"), "active": value.NewBool(true)},
	))

	first, err := tbl.Rows()
	require.NoError(t, err)
	second, err := tbl.Rows()
	require.NoError(t, err)
	defer first.Close()
	defer second.Close()

	r1, err := first.Next()
	require.NoError(t, err)
	r2, err := second.Next()
	require.NoError(t, err)
	assert.NotNil(t, r1)
	assert.NotNil(t, r2)
}

func TestCatalog(t *testing.T) {
	cat := NewCatalog()
	users := NewMemTable(userSchema(t))

	require.NoError(t, cat.Register("users", users))
	assert.ErrorIs(t, cat.Register("users", users), ErrTableExists)

	got, err := cat.Table("users")
	require.NoError(t, err)
	assert.Equal(t, Table(users), got)

	_, err = cat.Table("orders")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCatalogReplaceAndNames(t *testing.T) {
	cat := NewCatalog()
	first := NewMemTable(userSchema(t))
	second := NewMemTable(userSchema(t))

	assert.Nil(t, cat.Replace("users", first))
	old := cat.Replace("users", second)
	assert.Equal(t, Table(first), old)

	require.NoError(t, cat.Register("accounts", first))
	assert.Equal(t, []string{"accounts", "users"}, cat.Names())
}
