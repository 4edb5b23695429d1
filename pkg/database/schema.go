package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/pkg/value"
)

var (
	// ErrColumnNotFound is returned when a column name is absent from a
	// schema or a row.
	ErrColumnNotFound = errors.New("column not found")
	// ErrColumnOutOfRange is returned for positional lookups outside a
	// schema's column list.
	ErrColumnOutOfRange = errors.New("column index out of range")
	// ErrDuplicateColumn is returned when a schema is built with two
	// columns of the same name.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Column is one named, typed slot in a schema.
type Column struct {
	Name string
	Type value.Type
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}

// Schema describes the shape of the rows an operator subtree produces: an
// ordered list of columns plus a name→position index. It is built once,
// validated, and never mutated by row processing.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema builds a schema from an ordered column list. Column names must
// be unique; lookups by name and by position address the same column.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	copy(s.cols, cols)
	for i, c := range cols {
		if _, ok := s.index[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		s.index[c.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for statically-known column lists; it panics on
// the errors NewSchema would return.
func MustSchema(cols ...Column) *Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Columns returns a copy of the ordered column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// ColumnAt returns the column at a 0-based position.
func (s *Schema) ColumnAt(i int) (Column, error) {
	if i < 0 || i >= len(s.cols) {
		return Column{}, fmt.Errorf("%w: %d not in [0,%d)", ErrColumnOutOfRange, i, len(s.cols))
	}
	return s.cols[i], nil
}

// Column returns the column with the given name (exact, case-sensitive).
func (s *Schema) Column(name string) (Column, error) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return s.cols[i], nil
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return i, nil
}

// Equal reports whether two schemas have the same columns, names and types,
// in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if o == nil || len(s.cols) != len(o.cols) {
		return false
	}
	for i, c := range s.cols {
		if o.cols[i] != c {
			return false
		}
	}
	return true
}

// String renders the schema as a comma-separated column list.
func (s *Schema) String() string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
