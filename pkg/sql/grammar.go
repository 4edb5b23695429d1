package sql

import (
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/pkg/expr"
	"github.com/quarrydb/quarry/pkg/value"
)

// Participle AST. The struct tags are the grammar; lowering to the typed
// statement happens below so the rest of the engine never sees these
// types.

type astSelect struct {
	Explain bool           `parser:"@'EXPLAIN'?"`
	Star    bool           `parser:"'SELECT' ( @'*'"`
	Fields  []*astField    `parser:"         | @@ (',' @@)* )"`
	From    *astFrom       `parser:"('FROM' @@)?"`
	Where   *astExpression `parser:"('WHERE' @@)?"`
	Limit   *int64         `parser:"('LIMIT' @Number"`
	Offset  *int64         `parser:"('OFFSET' @Number)? )?"`
}

type astField struct {
	Expr  *astExpression `parser:"@@"`
	Alias string         `parser:"('AS' @Ident)?"`
}

type astFrom struct {
	Table    *string    `parser:"(@Ident | @String)"`
	SubQuery *astSelect `parser:"| '(' @@ ')'"`
}

// Precedence, loosest first: OR, AND, NOT, comparison.

type astExpression struct {
	Or []*astAndExpr `parser:"@@ ('OR' @@)*"`
}

type astAndExpr struct {
	And []*astNotExpr `parser:"@@ ('AND' @@)*"`
}

type astNotExpr struct {
	Not *astNotExpr    `parser:"  'NOT' @@"`
	Cmp *astComparison `parser:"| @@"`
}

type astComparison struct {
	Left  *astPrimary `parser:"@@"`
	Op    string      `parser:"( @('=' | '!=' | '<=' | '>=' | '<' | '>')"`
	Right *astPrimary `parser:"  @@ )?"`
}

type astPrimary struct {
	Literal *astLiteral    `parser:"  @@"`
	Column  *string        `parser:"| @Ident"`
	Sub     *astExpression `parser:"| '(' @@ ')'"`
}

type astLiteral struct {
	Int  *int64   `parser:"  @Number"`
	Str  *string  `parser:"| @String"`
	Bool *boolLit `parser:"| @('TRUE' | 'FALSE')"`
}

// boolLit captures a TRUE/FALSE keyword token. A plain bool field would
// latch true for either spelling.
type boolLit bool

func (b *boolLit) Capture(values []string) error {
	*b = boolLit(strings.EqualFold(values[0], "TRUE"))
	return nil
}

// Lowering: AST → SelectStatement with a typed expression tree.

func (s *astSelect) lower() (*SelectStatement, error) {
	stmt := &SelectStatement{
		Explain: s.Explain,
		Star:    s.Star,
		Limit:   s.Limit,
		Offset:  s.Offset,
	}

	for _, f := range s.Fields {
		e, err := f.Expr.lower()
		if err != nil {
			return nil, err
		}
		name := f.Alias
		if name == "" {
			name = e.String()
		}
		stmt.Fields = append(stmt.Fields, SelectField{Name: name, Expr: e})
	}

	if s.From != nil {
		switch {
		case s.From.Table != nil:
			stmt.From = *s.From.Table
		case s.From.SubQuery != nil:
			sub, err := s.From.SubQuery.lower()
			if err != nil {
				return nil, err
			}
			if sub.Explain {
				return nil, fmt.Errorf("EXPLAIN is only valid at the top level")
			}
			stmt.FromSelect = sub
		}
	}

	if s.Where != nil {
		w, err := s.Where.lower()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}
	return stmt, nil
}

func (e *astExpression) lower() (expr.Expression, error) {
	out, err := e.Or[0].lower()
	if err != nil {
		return nil, err
	}
	for _, next := range e.Or[1:] {
		right, err := next.lower()
		if err != nil {
			return nil, err
		}
		out = &expr.Or{Left: out, Right: right}
	}
	return out, nil
}

func (a *astAndExpr) lower() (expr.Expression, error) {
	out, err := a.And[0].lower()
	if err != nil {
		return nil, err
	}
	for _, next := range a.And[1:] {
		right, err := next.lower()
		if err != nil {
			return nil, err
		}
		out = &expr.And{Left: out, Right: right}
	}
	return out, nil
}

func (n *astNotExpr) lower() (expr.Expression, error) {
	if n.Not != nil {
		inner, err := n.Not.lower()
		if err != nil {
			return nil, err
		}
		return &expr.Not{Expr: inner}, nil
	}
	return n.Cmp.lower()
}

func (c *astComparison) lower() (expr.Expression, error) {
	left, err := c.Left.lower()
	if err != nil {
		return nil, err
	}
	if c.Op == "" {
		return left, nil
	}
	right, err := c.Right.lower()
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case "=":
		return &expr.Equal{Left: left, Right: right}, nil
	case "!=":
		return &expr.Not{Expr: &expr.Equal{Left: left, Right: right}}, nil
	case "<":
		return &expr.Comparison{Op: expr.Lt, Left: left, Right: right}, nil
	case "<=":
		return &expr.Comparison{Op: expr.Le, Left: left, Right: right}, nil
	case ">":
		return &expr.Comparison{Op: expr.Gt, Left: left, Right: right}, nil
	case ">=":
		return &expr.Comparison{Op: expr.Ge, Left: left, Right: right}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func (p *astPrimary) lower() (expr.Expression, error) {
	switch {
	case p.Literal != nil:
		return p.Literal.lower()
	case p.Column != nil:
		return &expr.Variable{Name: *p.Column}, nil
	case p.Sub != nil:
		return p.Sub.lower()
	default:
		return nil, fmt.Errorf("empty expression")
	}
}

func (l *astLiteral) lower() (expr.Expression, error) {
	switch {
	case l.Int != nil:
		return &expr.Literal{Value: value.NewInt(*l.Int)}, nil
	case l.Str != nil:
		return &expr.Literal{Value: value.NewString(*l.Str)}, nil
	case l.Bool != nil:
		return &expr.Literal{Value: value.NewBool(bool(*l.Bool))}, nil
	default:
		return nil, fmt.Errorf("empty literal")
	}
}
