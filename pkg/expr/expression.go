// Package expr implements the expression trees evaluated by filters and
// projections. Expressions are checked against a schema when a plan is
// built, so type errors surface before any row is read.
package expr

import (
	"errors"
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/value"
)

// ErrTypeCheck is returned by ReturnType when an expression cannot be
// typed against a schema.
var ErrTypeCheck = errors.New("type error")

// Expression is a typed expression over the columns of a row.
//
// Eval computes the expression's value for one row. ReturnType reports
// the type the expression produces for rows of the given schema, or an
// error if the expression is ill-typed; it never looks at data.
type Expression interface {
	Eval(row database.Row) (value.Value, error)
	ReturnType(schema *database.Schema) (value.Type, error)
	String() string
}

// Variable references a column by name.
type Variable struct {
	Name string
}

func (v *Variable) Eval(row database.Row) (value.Value, error) {
	return row.Value(v.Name)
}

func (v *Variable) ReturnType(schema *database.Schema) (value.Type, error) {
	col, err := schema.Column(v.Name)
	if err != nil {
		return 0, err
	}
	return col.Type, nil
}

func (v *Variable) String() string { return v.Name }

// Literal is a constant value.
type Literal struct {
	Value value.Value
}

func (l *Literal) Eval(database.Row) (value.Value, error) {
	return l.Value, nil
}

func (l *Literal) ReturnType(*database.Schema) (value.Type, error) {
	return l.Value.Type(), nil
}

func (l *Literal) String() string {
	if l.Value.Type() == value.StringType {
		s, _ := l.Value.AsString()
		return "'" + s + "'"
	}
	return l.Value.String()
}

// Equal compares two subexpressions for equality. Both sides must have
// the same static type; at runtime the comparison itself never fails.
type Equal struct {
	Left  Expression
	Right Expression
}

func (e *Equal) Eval(row database.Row) (value.Value, error) {
	l, err := e.Left.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	r, err := e.Right.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(l.Equal(r)), nil
}

func (e *Equal) ReturnType(schema *database.Schema) (value.Type, error) {
	lt, err := e.Left.ReturnType(schema)
	if err != nil {
		return 0, err
	}
	rt, err := e.Right.ReturnType(schema)
	if err != nil {
		return 0, err
	}
	if lt != rt {
		return 0, fmt.Errorf("%w: cannot compare %s to %s in %s", ErrTypeCheck, lt, rt, e)
	}
	return value.BoolType, nil
}

func (e *Equal) String() string {
	return fmt.Sprintf("%s = %s", e.Left, e.Right)
}

// CompareOp selects an ordering comparison.
type CompareOp int

const (
	Lt CompareOp = iota
	Le
	Gt
	Ge
)

func (op CompareOp) String() string {
	switch op {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return fmt.Sprintf("CompareOp(%d)", int(op))
	}
}

// Comparison orders two subexpressions. Both sides must share an ordered
// type; booleans have no ordering and are rejected during type checking.
type Comparison struct {
	Op    CompareOp
	Left  Expression
	Right Expression
}

func (c *Comparison) Eval(row database.Row) (value.Value, error) {
	l, err := c.Left.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	r, err := c.Right.Eval(row)
	if err != nil {
		return value.Value{}, err
	}
	cmp, err := l.Compare(r)
	if err != nil {
		return value.Value{}, fmt.Errorf("%s: %w", c, err)
	}
	switch c.Op {
	case Lt:
		return value.NewBool(cmp < 0), nil
	case Le:
		return value.NewBool(cmp <= 0), nil
	case Gt:
		return value.NewBool(cmp > 0), nil
	case Ge:
		return value.NewBool(cmp >= 0), nil
	default:
		return value.Value{}, fmt.Errorf("unknown comparison operator %v", c.Op)
	}
}

func (c *Comparison) ReturnType(schema *database.Schema) (value.Type, error) {
	lt, err := c.Left.ReturnType(schema)
	if err != nil {
		return 0, err
	}
	rt, err := c.Right.ReturnType(schema)
	if err != nil {
		return 0, err
	}
	if lt != rt {
		return 0, fmt.Errorf("%w: cannot compare %s to %s in %s", ErrTypeCheck, lt, rt, c)
	}
	if lt == value.BoolType {
		return 0, fmt.Errorf("%w: %s values have no ordering in %s", ErrTypeCheck, lt, c)
	}
	return value.BoolType, nil
}

func (c *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// And is the logical conjunction of two boolean subexpressions. The right
// side is only evaluated when the left side is true.
type And struct {
	Left  Expression
	Right Expression
}

func (a *And) Eval(row database.Row) (value.Value, error) {
	l, err := evalBool(a.Left, row)
	if err != nil {
		return value.Value{}, err
	}
	if !l {
		return value.NewBool(false), nil
	}
	r, err := evalBool(a.Right, row)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(r), nil
}

func (a *And) ReturnType(schema *database.Schema) (value.Type, error) {
	return logicReturnType(schema, a, a.Left, a.Right)
}

func (a *And) String() string {
	return fmt.Sprintf("(%s AND %s)", a.Left, a.Right)
}

// Or is the logical disjunction of two boolean subexpressions. The right
// side is only evaluated when the left side is false.
type Or struct {
	Left  Expression
	Right Expression
}

func (o *Or) Eval(row database.Row) (value.Value, error) {
	l, err := evalBool(o.Left, row)
	if err != nil {
		return value.Value{}, err
	}
	if l {
		return value.NewBool(true), nil
	}
	r, err := evalBool(o.Right, row)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(r), nil
}

func (o *Or) ReturnType(schema *database.Schema) (value.Type, error) {
	return logicReturnType(schema, o, o.Left, o.Right)
}

func (o *Or) String() string {
	return fmt.Sprintf("(%s OR %s)", o.Left, o.Right)
}

// Not negates a boolean subexpression.
type Not struct {
	Expr Expression
}

func (n *Not) Eval(row database.Row) (value.Value, error) {
	b, err := evalBool(n.Expr, row)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewBool(!b), nil
}

func (n *Not) ReturnType(schema *database.Schema) (value.Type, error) {
	t, err := n.Expr.ReturnType(schema)
	if err != nil {
		return 0, err
	}
	if t != value.BoolType {
		return 0, fmt.Errorf("%w: NOT needs %s, have %s in %s", ErrTypeCheck, value.BoolType, t, n)
	}
	return value.BoolType, nil
}

func (n *Not) String() string {
	return fmt.Sprintf("NOT %s", n.Expr)
}

func evalBool(e Expression, row database.Row) (bool, error) {
	v, err := e.Eval(row)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

func logicReturnType(schema *database.Schema, parent Expression, operands ...Expression) (value.Type, error) {
	for _, operand := range operands {
		t, err := operand.ReturnType(schema)
		if err != nil {
			return 0, err
		}
		if t != value.BoolType {
			return 0, fmt.Errorf("%w: %s needs %s operands, have %s in %s",
				ErrTypeCheck, parentName(parent), value.BoolType, t, parent)
		}
	}
	return value.BoolType, nil
}

func parentName(e Expression) string {
	switch e.(type) {
	case *And:
		return "AND"
	case *Or:
		return "OR"
	default:
		return "operator"
	}
}
