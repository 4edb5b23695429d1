package database

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/quarrydb/quarry/pkg/value"
)

// JSONLTable adapts a JSON or JSONL file to the Table interface. Every
// call to Rows re-reads the file, so a table can be scanned any number
// of times.
type JSONLTable struct {
	path   string
	schema *Schema
}

// NewJSONLTable creates a table over a file. A nil schema is inferred
// from the file's first record.
func NewJSONLTable(path string, schema *Schema) (*JSONLTable, error) {
	if schema == nil {
		inferred, err := InferSchema(path)
		if err != nil {
			return nil, err
		}
		schema = inferred
	}
	return &JSONLTable{path: path, schema: schema}, nil
}

func (t *JSONLTable) Schema() *Schema { return t.schema }

func (t *JSONLTable) Rows() (Cursor, error) {
	r, err := NewRecordReader(t.path)
	if err != nil {
		return nil, err
	}
	return &jsonlCursor{reader: r, schema: t.schema}, nil
}

type jsonlCursor struct {
	reader *RecordReader
	schema *Schema
}

func (c *jsonlCursor) Next() (Row, error) {
	rec, err := c.reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row, err := DecodeRow(rec, c.schema)
	if err != nil && c.reader.IsLines() {
		return nil, fmt.Errorf("line %d: %w", c.reader.Line(), err)
	}
	return row, err
}

func (c *jsonlCursor) Close() error {
	return c.reader.Close()
}

// DecodeRow converts a raw record into a typed row. Every schema column
// must be present with the declared type and no extra fields may appear;
// anything else is reported, not coerced.
func DecodeRow(rec Record, schema *Schema) (Row, error) {
	row := make(Row, schema.Len())
	for _, c := range schema.Columns() {
		raw, ok := rec[c.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, c.Name)
		}
		v, err := decodeValue(raw, c.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		row[c.Name] = v
	}
	if len(rec) != schema.Len() {
		for name := range rec {
			if _, err := schema.Index(name); err != nil {
				return nil, fmt.Errorf("%w: unexpected column %q", ErrSchemaMismatch, name)
			}
		}
	}
	return row, nil
}

func decodeValue(raw interface{}, t value.Type) (value.Value, error) {
	switch t {
	case value.IntType:
		n, ok := raw.(json.Number)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: have %s, want %s", ErrSchemaMismatch, jsonTypeName(raw), t)
		}
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %q is not an integer", ErrSchemaMismatch, n.String())
		}
		return value.NewInt(i), nil
	case value.StringType:
		s, ok := raw.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: have %s, want %s", ErrSchemaMismatch, jsonTypeName(raw), t)
		}
		return value.NewString(s), nil
	case value.BoolType:
		b, ok := raw.(bool)
		if !ok {
			return value.Value{}, fmt.Errorf("%w: have %s, want %s", ErrSchemaMismatch, jsonTypeName(raw), t)
		}
		return value.NewBool(b), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported column type %v", t)
	}
}

func jsonTypeName(raw interface{}) string {
	switch raw.(type) {
	case json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

// InferSchema derives a schema from the first record of a file. Column
// names are sorted so inference is deterministic regardless of JSON key
// order.
func InferSchema(path string) (*Schema, error) {
	r, err := NewRecordReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rec, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("cannot infer schema from empty input '%s'", path)
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]Column, 0, len(names))
	for _, name := range names {
		t, err := inferType(rec[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, Column{Name: name, Type: t})
	}
	return NewSchema(cols...)
}

func inferType(raw interface{}) (value.Type, error) {
	switch v := raw.(type) {
	case json.Number:
		if _, err := strconv.ParseInt(v.String(), 10, 64); err != nil {
			return 0, fmt.Errorf("cannot infer type from non-integer number %q", v.String())
		}
		return value.IntType, nil
	case string:
		return value.StringType, nil
	case bool:
		return value.BoolType, nil
	default:
		return 0, fmt.Errorf("cannot infer type from %s value", jsonTypeName(raw))
	}
}
