package plan

import (
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
)

// Scan is the leaf operator: it pulls rows straight off a table cursor.
// The cursor is acquired by Open and released by Close, so building a
// plan touches no data.
type Scan struct {
	name  string
	table database.Table
	lc    lifecycle
	cur   database.Cursor
}

// NewScan creates a scan over a table. The name is only used in
// diagnostics and plan output.
func NewScan(name string, table database.Table) *Scan {
	return &Scan{name: name, table: table}
}

func (s *Scan) Open() error {
	if err := s.lc.canOpen("scan"); err != nil {
		return err
	}
	cur, err := s.table.Rows()
	if err != nil {
		return fmt.Errorf("scan '%s': %w", s.name, err)
	}
	s.cur = cur
	s.lc.markOpen()
	return nil
}

func (s *Scan) Next() (database.Row, error) {
	if err := s.lc.requireOpen("scan"); err != nil {
		return nil, err
	}
	if s.lc.exhausted() {
		return nil, nil
	}
	row, err := s.cur.Next()
	if err != nil {
		return nil, fmt.Errorf("scan '%s': %w", s.name, err)
	}
	if row == nil {
		s.lc.markDone()
		return nil, nil
	}
	return row, nil
}

func (s *Scan) Close() error {
	if s.lc.markClosed() {
		return nil
	}
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}

func (s *Scan) Schema() *database.Schema { return s.table.Schema() }

func (s *Scan) Children() []Operator { return nil }

func (s *Scan) Explain() string {
	return fmt.Sprintf("Scan(table: %s)", s.name)
}
