package database

import "fmt"

// Cursor streams the rows of a table. Next returns (nil, nil) once the
// table is exhausted; Close releases the underlying resource and may be
// called more than once.
type Cursor interface {
	Next() (Row, error)
	Close() error
}

// Table represents a dataset that can be scanned. Schema describes the
// rows every cursor will produce; Rows starts a fresh pass over the data.
type Table interface {
	Schema() *Schema
	Rows() (Cursor, error)
}

// MemTable is an in-memory table. It backs tests, the REPL's ad-hoc
// datasets, and anything else that wants a table without a file behind it.
type MemTable struct {
	schema *Schema
	rows   []Row
}

// NewMemTable creates an empty table with the given schema.
func NewMemTable(schema *Schema) *MemTable {
	return &MemTable{schema: schema}
}

// Append adds rows after validating each against the table schema. The
// table stores clones, so the caller's maps stay its own.
func (t *MemTable) Append(rows ...Row) error {
	for i, r := range rows {
		if err := r.ConformsTo(t.schema); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	for _, r := range rows {
		t.rows = append(t.rows, r.Clone())
	}
	return nil
}

// Len returns the number of rows currently stored.
func (t *MemTable) Len() int { return len(t.rows) }

func (t *MemTable) Schema() *Schema { return t.schema }

func (t *MemTable) Rows() (Cursor, error) {
	return &memCursor{rows: t.rows}, nil
}

type memCursor struct {
	rows []Row
	pos  int
}

func (c *memCursor) Next() (Row, error) {
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	r := c.rows[c.pos]
	c.pos++
	return r, nil
}

func (c *memCursor) Close() error {
	c.rows = nil
	return nil
}
