package database

import (
	"errors"
	"fmt"

	"github.com/quarrydb/quarry/pkg/value"
)

// ErrSchemaMismatch is returned when a row does not have exactly the
// columns its schema declares.
var ErrSchemaMismatch = errors.New("row does not match schema")

// Row is a single record: column name → typed value. Rows are passed by
// reference through operator trees, so operators that reshape a row build
// a new one instead of mutating their input.
type Row map[string]value.Value

// Value returns the value stored under the given column name.
func (r Row) Value(name string) (value.Value, error) {
	v, ok := r[name]
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return v, nil
}

// ConformsTo checks the row against a schema: every schema column must be
// present with the declared type, and no extra columns may appear.
func (r Row) ConformsTo(s *Schema) error {
	for _, c := range s.Columns() {
		v, ok := r[c.Name]
		if !ok {
			return fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, c.Name)
		}
		if v.Type() != c.Type {
			return fmt.Errorf("%w: column %q has %s, want %s", ErrSchemaMismatch, c.Name, v.Type(), c.Type)
		}
	}
	if len(r) != s.Len() {
		for name := range r {
			if _, err := s.Index(name); err != nil {
				return fmt.Errorf("%w: unexpected column %q", ErrSchemaMismatch, name)
			}
		}
	}
	return nil
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
