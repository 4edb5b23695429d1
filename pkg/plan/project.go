package plan

import (
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/expr"
)

// Output is one projected column: an expression and the name it is
// published under.
type Output struct {
	Name string
	Expr expr.Expression
}

// Project evaluates a list of expressions against each input row and
// emits a fresh row per input row. The output schema is fixed at
// construction from the expressions' return types.
type Project struct {
	child   Operator
	outputs []Output
	schema  *database.Schema
	lc      lifecycle
}

// NewProject type-checks every output expression against the child's
// schema. Output names must be unique.
func NewProject(outputs []Output, child Operator) (*Project, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("project needs at least one output column")
	}
	cols := make([]database.Column, 0, len(outputs))
	for _, out := range outputs {
		t, err := out.Expr.ReturnType(child.Schema())
		if err != nil {
			return nil, fmt.Errorf("project column %q: %w", out.Name, err)
		}
		cols = append(cols, database.Column{Name: out.Name, Type: t})
	}
	schema, err := database.NewSchema(cols...)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return &Project{child: child, outputs: outputs, schema: schema}, nil
}

func (p *Project) Open() error {
	if err := p.lc.canOpen("project"); err != nil {
		return err
	}
	if err := p.child.Open(); err != nil {
		p.child.Close()
		return err
	}
	p.lc.markOpen()
	return nil
}

func (p *Project) Next() (database.Row, error) {
	if err := p.lc.requireOpen("project"); err != nil {
		return nil, err
	}
	if p.lc.exhausted() {
		return nil, nil
	}
	in, err := p.child.Next()
	if err != nil {
		return nil, err
	}
	if in == nil {
		p.lc.markDone()
		return nil, nil
	}
	row := make(database.Row, len(p.outputs))
	for _, out := range p.outputs {
		v, err := out.Expr.Eval(in)
		if err != nil {
			return nil, fmt.Errorf("project column %q: %w", out.Name, err)
		}
		row[out.Name] = v
	}
	return row, nil
}

func (p *Project) Close() error {
	if p.lc.markClosed() {
		return nil
	}
	return p.child.Close()
}

func (p *Project) Schema() *database.Schema { return p.schema }

func (p *Project) Children() []Operator { return []Operator{p.child} }

func (p *Project) Explain() string {
	parts := make([]string, len(p.outputs))
	for i, out := range p.outputs {
		if out.Expr.String() == out.Name {
			parts[i] = out.Name
		} else {
			parts[i] = fmt.Sprintf("%s AS %s", out.Expr, out.Name)
		}
	}
	return fmt.Sprintf("Project(columns: %s)", strings.Join(parts, ", "))
}
