package engine

import (
	"context"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/plan"
	"github.com/quarrydb/quarry/pkg/value"
)

// ColumnStats summarizes one column of a result set. Min and Max are set
// for ordered columns once at least one row has been seen; boolean
// columns count trues instead, since they have no ordering.
type ColumnStats struct {
	Column    database.Column
	Min       *value.Value
	Max       *value.Value
	TrueCount int64
}

// TableStats summarizes a whole result set.
type TableStats struct {
	Rows    int64
	Columns []ColumnStats
}

// Collect drains an operator and computes per-column statistics. The
// operator must be unopened; Collect runs the full open/next/close
// protocol itself.
func Collect(ctx context.Context, op plan.Operator) (stats *TableStats, err error) {
	if err := op.Open(); err != nil {
		op.Close()
		return nil, err
	}
	defer func() {
		if cerr := op.Close(); cerr != nil && err == nil {
			stats, err = nil, cerr
		}
	}()

	cols := op.Schema().Columns()
	out := &TableStats{Columns: make([]ColumnStats, len(cols))}
	for i, c := range cols {
		out.Columns[i] = ColumnStats{Column: c}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := op.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}
		out.Rows++

		for i := range out.Columns {
			cs := &out.Columns[i]
			v, err := row.Value(cs.Column.Name)
			if err != nil {
				return nil, err
			}
			if cs.Column.Type == value.BoolType {
				b, err := v.AsBool()
				if err != nil {
					return nil, err
				}
				if b {
					cs.TrueCount++
				}
				continue
			}
			if cs.Min == nil {
				min, max := v, v
				cs.Min, cs.Max = &min, &max
				continue
			}
			cmp, err := v.Compare(*cs.Min)
			if err != nil {
				return nil, err
			}
			if cmp < 0 {
				*cs.Min = v
			}
			cmp, err = v.Compare(*cs.Max)
			if err != nil {
				return nil, err
			}
			if cmp > 0 {
				*cs.Max = v
			}
		}
	}
	return out, nil
}
