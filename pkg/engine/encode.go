package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/quarrydb/quarry/pkg/database"
)

// Output formats understood by NewRowEncoder.
const (
	FormatJSONL = "jsonl"
	FormatTable = "table"
)

// RowEncoder writes result rows to an output stream. Begin is called once
// with the result schema before the first row; Flush once after the last.
type RowEncoder interface {
	Begin(schema *database.Schema) error
	Write(row database.Row) error
	Flush() error
}

// NewRowEncoder returns an encoder for the named format.
func NewRowEncoder(format string, pretty bool, w io.Writer) (RowEncoder, error) {
	switch format {
	case FormatJSONL:
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return &jsonlEncoder{enc: enc}, nil
	case FormatTable:
		return &tableEncoder{tw: tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// rowJSON renders a row with keys in schema column order, so output is
// stable regardless of map iteration order.
type rowJSON struct {
	schema *database.Schema
	row    database.Row
}

func (r rowJSON) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.schema.Columns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		v, err := r.row.Value(col.Name)
		if err != nil {
			return nil, err
		}
		valBytes, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type jsonlEncoder struct {
	enc    *json.Encoder
	schema *database.Schema
}

func (e *jsonlEncoder) Begin(schema *database.Schema) error {
	e.schema = schema
	return nil
}

func (e *jsonlEncoder) Write(row database.Row) error {
	return e.enc.Encode(rowJSON{schema: e.schema, row: row})
}

func (e *jsonlEncoder) Flush() error { return nil }

type tableEncoder struct {
	tw     *tabwriter.Writer
	schema *database.Schema
}

func (e *tableEncoder) Begin(schema *database.Schema) error {
	e.schema = schema
	for i, col := range schema.Columns() {
		if i > 0 {
			fmt.Fprint(e.tw, "\t")
		}
		fmt.Fprint(e.tw, col.Name)
	}
	_, err := fmt.Fprintln(e.tw)
	return err
}

func (e *tableEncoder) Write(row database.Row) error {
	for i, col := range e.schema.Columns() {
		if i > 0 {
			fmt.Fprint(e.tw, "\t")
		}
		v, err := row.Value(col.Name)
		if err != nil {
			return err
		}
		fmt.Fprint(e.tw, v.String())
	}
	_, err := fmt.Fprintln(e.tw)
	return err
}

func (e *tableEncoder) Flush() error { return e.tw.Flush() }
