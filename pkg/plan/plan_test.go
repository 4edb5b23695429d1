package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/expr"
	"github.com/quarrydb/quarry/pkg/value"
)

// probeCursor records how it is used so tests can assert on pull counts
// and cleanup.
type probeCursor struct {
	rows   []database.Row
	pos    int
	nexts  int
	closes int
	failAt int // fail the n-th Next, 0 means never
}

func (c *probeCursor) Next() (database.Row, error) {
	c.nexts++
	if c.failAt > 0 && c.nexts == c.failAt {
		return nil, errors.New("cursor blew up")
	}
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	r := c.rows[c.pos]
	c.pos++
	return r, nil
}

func (c *probeCursor) Close() error {
	c.closes++
	return nil
}

type probeTable struct {
	schema  *database.Schema
	rows    []database.Row
	rowsErr error
	cursor  *probeCursor
	failAt  int
}

func (t *probeTable) Schema() *database.Schema { return t.schema }

func (t *probeTable) Rows() (database.Cursor, error) {
	if t.rowsErr != nil {
		return nil, t.rowsErr
	}
	t.cursor = &probeCursor{rows: t.rows, failAt: t.failAt}
	return t.cursor, nil
}

func usersTable() *probeTable {
	schema := database.MustSchema(
		database.Column{Name: "id", Type: value.IntType},
		database.Column{Name: "name", Type: value.StringType},
		database.Column{Name: "active", Type: value.BoolType},
	)
	return &probeTable{
		schema: schema,
		rows: []database.Row{
			{"id": value.NewInt(1), "name": value.NewString("ada"), "active": value.NewBool(true)},
			{"id": value.NewInt(2), "name": value.NewString("bob"), "active": value.NewBool(false)},
			{"id": value.NewInt(3), "name": value.NewString("cal"), "active": value.NewBool(true)},
		},
	}
}

func drainIDs(t *testing.T, op Operator) []int64 {
	t.Helper()
	var ids []int64
	for {
		row, err := op.Next()
		require.NoError(t, err)
		if row == nil {
			return ids
		}
		v, err := row.Value("id")
		require.NoError(t, err)
		id, err := v.AsInt()
		require.NoError(t, err)
		ids = append(ids, id)
	}
}

func col(name string) expr.Expression { return &expr.Variable{Name: name} }

func eqString(name, s string) expr.Expression {
	return &expr.Equal{Left: col(name), Right: &expr.Literal{Value: value.NewString(s)}}
}

func TestOperatorProtocol(t *testing.T) {
	builders := []struct {
		name  string
		build func(t *testing.T) Operator
	}{
		{"scan", func(t *testing.T) Operator {
			return NewScan("users", usersTable())
		}},
		{"filter", func(t *testing.T) Operator {
			f, err := NewFilter(col("active"), NewScan("users", usersTable()))
			require.NoError(t, err)
			return f
		}},
		{"project", func(t *testing.T) Operator {
			p, err := NewProject([]Output{{Name: "id", Expr: col("id")}}, NewScan("users", usersTable()))
			require.NoError(t, err)
			return p
		}},
		{"limit", func(t *testing.T) Operator {
			l, err := NewLimit(1, 0, NewScan("users", usersTable()))
			require.NoError(t, err)
			return l
		}},
	}

	for _, b := range builders {
		t.Run(b.name, func(t *testing.T) {
			op := b.build(t)

			_, err := op.Next()
			assert.ErrorIs(t, err, ErrPrecondition, "next before open")

			require.NoError(t, op.Open())
			assert.ErrorIs(t, op.Open(), ErrPrecondition, "second open")

			row, err := op.Next()
			require.NoError(t, err)
			require.NotNil(t, row)

			require.NoError(t, op.Close())
			require.NoError(t, op.Close(), "close is idempotent")

			_, err = op.Next()
			assert.ErrorIs(t, err, ErrPrecondition, "next after close")
			assert.ErrorIs(t, op.Open(), ErrPrecondition, "reopen after close")
		})
	}
}

func TestCloseWithoutOpen(t *testing.T) {
	f, err := NewFilter(col("active"), NewScan("users", usersTable()))
	require.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.ErrorIs(t, f.Open(), ErrPrecondition)
}

func TestScanDrainsAndLatches(t *testing.T) {
	tbl := usersTable()
	scan := NewScan("users", tbl)

	require.NoError(t, scan.Open())
	assert.Equal(t, []int64{1, 2, 3}, drainIDs(t, scan))

	for i := 0; i < 3; i++ {
		row, err := scan.Next()
		assert.NoError(t, err)
		assert.Nil(t, row)
	}
	// The latch answers without going back to the cursor.
	assert.Equal(t, 4, tbl.cursor.nexts)

	require.NoError(t, scan.Close())
	assert.Equal(t, 1, tbl.cursor.closes)
}

func TestScanOpenFailure(t *testing.T) {
	tbl := usersTable()
	tbl.rowsErr = errors.New("file vanished")
	scan := NewScan("users", tbl)

	err := scan.Open()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan 'users'")
	assert.NoError(t, scan.Close(), "close after failed open")
}

func TestScanSchemaBeforeOpen(t *testing.T) {
	scan := NewScan("users", usersTable())
	assert.Equal(t, "id INT, name STRING, active BOOLEAN", scan.Schema().String())
}

func TestFilterKeepsMatchingRows(t *testing.T) {
	scan := NewScan("users", usersTable())
	f, err := NewFilter(col("active"), scan)
	require.NoError(t, err)

	require.NoError(t, f.Open())
	assert.Equal(t, []int64{1, 3}, drainIDs(t, f), "output preserves input order")
	require.NoError(t, f.Close())
}

func TestFilterExtremes(t *testing.T) {
	keepAll, err := NewFilter(&expr.Literal{Value: value.NewBool(true)}, NewScan("users", usersTable()))
	require.NoError(t, err)
	require.NoError(t, keepAll.Open())
	assert.Len(t, drainIDs(t, keepAll), 3)
	require.NoError(t, keepAll.Close())

	keepNone, err := NewFilter(&expr.Literal{Value: value.NewBool(false)}, NewScan("users", usersTable()))
	require.NoError(t, err)
	require.NoError(t, keepNone.Open())
	assert.Empty(t, drainIDs(t, keepNone))
	row, err := keepNone.Next()
	assert.NoError(t, err)
	assert.Nil(t, row, "exhaustion is sticky")
	require.NoError(t, keepNone.Close())
}

func TestFilterConstructionErrors(t *testing.T) {
	scan := NewScan("users", usersTable())

	_, err := NewFilter(col("id"), scan)
	assert.ErrorIs(t, err, expr.ErrTypeCheck, "non-boolean predicate")

	_, err = NewFilter(col("salary"), scan)
	assert.ErrorIs(t, err, database.ErrColumnNotFound)

	_, err = NewFilter(eqString("id", "1"), scan)
	assert.ErrorIs(t, err, expr.ErrTypeCheck, "mistyped comparison")
}

func TestFilterPropagatesChildErrors(t *testing.T) {
	tbl := usersTable()
	tbl.failAt = 2
	f, err := NewFilter(col("active"), NewScan("users", tbl))
	require.NoError(t, err)

	require.NoError(t, f.Open())
	_, err = f.Next()
	require.NoError(t, err, "first row is fine")
	_, err = f.Next()
	assert.ErrorContains(t, err, "cursor blew up")
	require.NoError(t, f.Close())
}

func TestFilterMistypedColumnValue(t *testing.T) {
	schema := database.MustSchema(database.Column{Name: "active", Type: value.BoolType})
	tbl := &probeTable{
		schema: schema,
		rows:   []database.Row{{"active": value.NewInt(1)}},
	}
	f, err := NewFilter(col("active"), NewScan("t", tbl))
	require.NoError(t, err, "the plan type-checks against the declared schema")

	require.NoError(t, f.Open())
	_, err = f.Next()
	assert.ErrorIs(t, err, value.ErrTypeMismatch, "a row that contradicts its schema aborts the pull")
	require.NoError(t, f.Close())
}

func TestProjectReshapesRows(t *testing.T) {
	scan := NewScan("users", usersTable())
	p, err := NewProject([]Output{
		{Name: "user_id", Expr: col("id")},
		{Name: "is_ada", Expr: eqString("name", "ada")},
	}, scan)
	require.NoError(t, err)
	assert.Equal(t, "user_id INT, is_ada BOOLEAN", p.Schema().String())

	require.NoError(t, p.Open())
	first, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, first.ConformsTo(p.Schema()), "output rows match the output schema")
	v, err := first.Value("is_ada")
	require.NoError(t, err)
	isAda, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, isAda)

	_, err = first.Value("name")
	assert.ErrorIs(t, err, database.ErrColumnNotFound, "unprojected columns are gone")
	require.NoError(t, p.Close())
}

func TestProjectLeavesInputAlone(t *testing.T) {
	tbl := usersTable()
	p, err := NewProject([]Output{{Name: "id", Expr: col("id")}}, NewScan("users", tbl))
	require.NoError(t, err)

	require.NoError(t, p.Open())
	_, err = p.Next()
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.NoError(t, tbl.rows[0].ConformsTo(tbl.schema), "source rows are not mutated")
}

func TestProjectConstructionErrors(t *testing.T) {
	scan := NewScan("users", usersTable())

	_, err := NewProject(nil, scan)
	assert.ErrorContains(t, err, "at least one")

	_, err = NewProject([]Output{
		{Name: "id", Expr: col("id")},
		{Name: "id", Expr: col("name")},
	}, scan)
	assert.ErrorIs(t, err, database.ErrDuplicateColumn)

	_, err = NewProject([]Output{{Name: "x", Expr: col("salary")}}, scan)
	assert.ErrorIs(t, err, database.ErrColumnNotFound)
}

func TestLimitStopsPullingEarly(t *testing.T) {
	tbl := usersTable()
	l, err := NewLimit(2, 0, NewScan("users", tbl))
	require.NoError(t, err)

	require.NoError(t, l.Open())
	assert.Equal(t, []int64{1, 2}, drainIDs(t, l))
	assert.Equal(t, 2, tbl.cursor.nexts, "the child is not drained past the quota")
	require.NoError(t, l.Close())
}

func TestLimitOffset(t *testing.T) {
	l, err := NewLimit(2, 1, NewScan("users", usersTable()))
	require.NoError(t, err)
	require.NoError(t, l.Open())
	assert.Equal(t, []int64{2, 3}, drainIDs(t, l))
	require.NoError(t, l.Close())

	past, err := NewLimit(2, 5, NewScan("users", usersTable()))
	require.NoError(t, err)
	require.NoError(t, past.Open())
	assert.Empty(t, drainIDs(t, past), "offset past the end is empty, not an error")
	require.NoError(t, past.Close())
}

func TestLimitZero(t *testing.T) {
	tbl := usersTable()
	l, err := NewLimit(0, 0, NewScan("users", tbl))
	require.NoError(t, err)

	require.NoError(t, l.Open())
	assert.Empty(t, drainIDs(t, l))
	assert.Equal(t, 0, tbl.cursor.nexts, "limit 0 never touches the child")
	require.NoError(t, l.Close())
}

func TestLimitConstructionErrors(t *testing.T) {
	scan := NewScan("users", usersTable())
	_, err := NewLimit(-1, 0, scan)
	assert.ErrorContains(t, err, "limit must not be negative")
	_, err = NewLimit(1, -2, scan)
	assert.ErrorContains(t, err, "offset must not be negative")
}

func TestFilterProjectPipeline(t *testing.T) {
	tbl := usersTable()
	f, err := NewFilter(eqString("name", "ada"), NewScan("users", tbl))
	require.NoError(t, err)
	p, err := NewProject([]Output{{Name: "id", Expr: col("id")}}, f)
	require.NoError(t, err)

	require.NoError(t, p.Open())
	assert.Equal(t, []int64{1}, drainIDs(t, p))
	require.NoError(t, p.Close())
	assert.Equal(t, 1, tbl.cursor.closes, "close reaches the cursor through the tree")
}

func TestOpenFailureMidTree(t *testing.T) {
	tbl := usersTable()
	tbl.rowsErr = errors.New("no such file")
	f, err := NewFilter(col("active"), NewScan("users", tbl))
	require.NoError(t, err)
	p, err := NewProject([]Output{{Name: "id", Expr: col("id")}}, f)
	require.NoError(t, err)

	require.Error(t, p.Open())
	assert.ErrorIs(t, f.Open(), ErrPrecondition, "the failed open closed its subtree")
	assert.NoError(t, p.Close(), "closing a partially opened tree is safe")
}

func TestOpenCloseWithoutNext(t *testing.T) {
	tbl := usersTable()
	scan := NewScan("users", tbl)

	require.NoError(t, scan.Open())
	require.NoError(t, scan.Close())
	assert.Equal(t, 0, tbl.cursor.nexts)
	assert.Equal(t, 1, tbl.cursor.closes, "the cursor is released even when nothing was pulled")
}

func TestPipelineRepeatedMatches(t *testing.T) {
	schema := database.MustSchema(
		database.Column{Name: "id", Type: value.IntType},
		database.Column{Name: "name", Type: value.StringType},
	)
	tbl := &probeTable{
		schema: schema,
		rows: []database.Row{
			{"id": value.NewInt(1), "name": value.NewString("a")},
			{"id": value.NewInt(2), "name": value.NewString("b")},
			{"id": value.NewInt(3), "name": value.NewString("a")},
		},
	}

	f, err := NewFilter(eqString("name", "a"), NewScan("t", tbl))
	require.NoError(t, err)
	p, err := NewProject([]Output{{Name: "n", Expr: col("name")}}, f)
	require.NoError(t, err)
	assert.Equal(t, "n STRING", p.Schema().String())

	require.NoError(t, p.Open())
	var got []string
	for {
		row, err := p.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
		v, err := row.Value("n")
		require.NoError(t, err)
		s, err := v.AsString()
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []string{"a", "a"}, got, "one output row per match, in input order")
	require.NoError(t, p.Close())
}

func TestFormatPlan(t *testing.T) {
	f, err := NewFilter(eqString("name", "ada"), NewScan("users", usersTable()))
	require.NoError(t, err)
	p, err := NewProject([]Output{{Name: "id", Expr: col("id")}}, f)
	require.NoError(t, err)

	want := "└─ Project(columns: id)\n" +
		"   └─ Filter(predicate: name = 'ada')\n" +
		"      └─ Scan(table: users)\n"
	assert.Equal(t, want, FormatPlan(p))
}
