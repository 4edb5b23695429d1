package plan

import (
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/expr"
	"github.com/quarrydb/quarry/pkg/value"
)

// Filter passes through the rows its predicate accepts. Rows are not
// copied or modified, so the output schema is the child's.
type Filter struct {
	child Operator
	pred  expr.Expression
	lc    lifecycle
}

// NewFilter type-checks the predicate against the child's schema; only
// boolean predicates are accepted.
func NewFilter(pred expr.Expression, child Operator) (*Filter, error) {
	t, err := pred.ReturnType(child.Schema())
	if err != nil {
		return nil, fmt.Errorf("filter predicate %s: %w", pred, err)
	}
	if t != value.BoolType {
		return nil, fmt.Errorf("filter predicate %s: %w: need %s, have %s",
			pred, expr.ErrTypeCheck, value.BoolType, t)
	}
	return &Filter{child: child, pred: pred}, nil
}

func (f *Filter) Open() error {
	if err := f.lc.canOpen("filter"); err != nil {
		return err
	}
	if err := f.child.Open(); err != nil {
		f.child.Close()
		return err
	}
	f.lc.markOpen()
	return nil
}

func (f *Filter) Next() (database.Row, error) {
	if err := f.lc.requireOpen("filter"); err != nil {
		return nil, err
	}
	if f.lc.exhausted() {
		return nil, nil
	}
	for {
		row, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			f.lc.markDone()
			return nil, nil
		}
		v, err := f.pred.Eval(row)
		if err != nil {
			return nil, fmt.Errorf("filter predicate %s: %w", f.pred, err)
		}
		keep, err := v.AsBool()
		if err != nil {
			return nil, fmt.Errorf("filter predicate %s: %w", f.pred, err)
		}
		if keep {
			return row, nil
		}
	}
}

func (f *Filter) Close() error {
	if f.lc.markClosed() {
		return nil
	}
	return f.child.Close()
}

func (f *Filter) Schema() *database.Schema { return f.child.Schema() }

func (f *Filter) Children() []Operator { return []Operator{f.child} }

func (f *Filter) Explain() string {
	return fmt.Sprintf("Filter(predicate: %s)", f.pred)
}
