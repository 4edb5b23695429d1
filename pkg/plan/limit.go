package plan

import (
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
)

// Limit emits at most a fixed number of rows, optionally skipping some
// first. Once the quota is reached it latches exhausted without draining
// its child, so upstream work stops early.
type Limit struct {
	child   Operator
	limit   int64
	offset  int64
	emitted int64
	skipped bool
	lc      lifecycle
}

// NewLimit creates a limit operator. Both counts must be non-negative.
func NewLimit(limit, offset int64, child Operator) (*Limit, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, have %d", limit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, have %d", offset)
	}
	return &Limit{child: child, limit: limit, offset: offset}, nil
}

func (l *Limit) Open() error {
	if err := l.lc.canOpen("limit"); err != nil {
		return err
	}
	if err := l.child.Open(); err != nil {
		l.child.Close()
		return err
	}
	l.lc.markOpen()
	return nil
}

func (l *Limit) Next() (database.Row, error) {
	if err := l.lc.requireOpen("limit"); err != nil {
		return nil, err
	}
	if l.lc.exhausted() {
		return nil, nil
	}
	if !l.skipped {
		l.skipped = true
		for i := int64(0); i < l.offset; i++ {
			row, err := l.child.Next()
			if err != nil {
				return nil, err
			}
			if row == nil {
				l.lc.markDone()
				return nil, nil
			}
		}
	}
	if l.emitted >= l.limit {
		l.lc.markDone()
		return nil, nil
	}
	row, err := l.child.Next()
	if err != nil {
		return nil, err
	}
	if row == nil {
		l.lc.markDone()
		return nil, nil
	}
	l.emitted++
	return row, nil
}

func (l *Limit) Close() error {
	if l.lc.markClosed() {
		return nil
	}
	return l.child.Close()
}

func (l *Limit) Schema() *database.Schema { return l.child.Schema() }

func (l *Limit) Children() []Operator { return []Operator{l.child} }

func (l *Limit) Explain() string {
	if l.offset > 0 {
		return fmt.Sprintf("Limit(count: %d, offset: %d)", l.limit, l.offset)
	}
	return fmt.Sprintf("Limit(count: %d)", l.limit)
}
