package database

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one raw JSON object before schema checking. Numbers are kept
// as json.Number so integer fields do not lose precision on the way in.
type Record map[string]interface{}

// RecordReader streams records out of a JSON or JSONL source.
// Special cases:
// - Empty string or "-" reads from stdin
// - Strings starting with '{' or '[' are treated as inline JSON
type RecordReader struct {
	file    *os.File
	isLines bool
	tmpFile string // Path to temporary file, if created

	scanner *bufio.Scanner
	buf     *bufio.Reader
	dec     *json.Decoder

	started bool
	inArray bool
	line    int
}

// NewRecordReader opens the source. Files ending in .jsonl or .ndjson are
// read line by line; everything else is treated as a JSON value stream
// (a single object, an array of objects, or concatenated objects).
func NewRecordReader(source string) (*RecordReader, error) {
	var file *os.File
	var err error
	var isLines bool
	var tmpFile string

	switch {
	case len(source) > 0 && (source[0] == '{' || source[0] == '['):
		// Spool inline JSON to a temporary file so it reads like any other.
		tmp, err := os.CreateTemp("", "quarry-inline-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		tmpFile = tmp.Name()
		if _, err := tmp.WriteString(source); err != nil {
			tmp.Close()
			os.Remove(tmpFile)
			return nil, fmt.Errorf("failed to write inline JSON: %w", err)
		}
		if _, err := tmp.Seek(0, 0); err != nil {
			tmp.Close()
			os.Remove(tmpFile)
			return nil, fmt.Errorf("failed to seek: %w", err)
		}
		file = tmp
	case source == "" || source == "-":
		file = os.Stdin
	default:
		file, err = os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		isLines = strings.HasSuffix(source, ".jsonl") || strings.HasSuffix(source, ".ndjson")
	}

	r := &RecordReader{
		file:    file,
		isLines: isLines,
		tmpFile: tmpFile,
	}
	if r.isLines {
		r.scanner = bufio.NewScanner(r.file)
		r.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	} else {
		r.buf = bufio.NewReader(r.file)
	}
	return r, nil
}

// IsLines returns whether the reader treats the source as JSONL.
func (r *RecordReader) IsLines() bool { return r.isLines }

// Line returns the current 1-based line number for JSONL sources.
func (r *RecordReader) Line() int { return r.line }

// Close closes the underlying file and cleans up any temporary file.
func (r *RecordReader) Close() error {
	err := r.file.Close()
	if r.tmpFile != "" {
		os.Remove(r.tmpFile)
	}
	return err
}

// Read returns the next record, or io.EOF when the source is drained.
func (r *RecordReader) Read() (Record, error) {
	if r.isLines {
		return r.readLine()
	}
	return r.readStream()
}

func (r *RecordReader) readLine() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text))
		dec.UseNumber()
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse record: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (r *RecordReader) readStream() (Record, error) {
	if !r.started {
		// Peek past leading whitespace; a '[' switches the reader into
		// array mode before the decoder sees any input.
		for {
			b, err := r.buf.Peek(1)
			if err != nil {
				if err == io.EOF {
					return nil, io.EOF
				}
				return nil, err
			}
			c := b[0]
			if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
				r.buf.ReadByte()
				continue
			}
			r.dec = json.NewDecoder(r.buf)
			r.dec.UseNumber()
			if c == '[' {
				r.inArray = true
				if _, err := r.dec.Token(); err != nil {
					return nil, fmt.Errorf("failed to read array start: %w", err)
				}
			}
			r.started = true
			break
		}
	}

	if r.inArray && !r.dec.More() {
		t, err := r.dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := t.(json.Delim); ok && delim == ']' {
			r.inArray = false
			return nil, io.EOF
		}
		return nil, fmt.Errorf("expected array end, got %v", t)
	}

	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode JSON record: %w", err)
	}
	return rec, nil
}

// ReadAll drains the reader.
func (r *RecordReader) ReadAll() ([]Record, error) {
	var records []Record
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
