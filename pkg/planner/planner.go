// Package planner turns parsed statements into executable operator trees.
// All name resolution and type checking happens here, through the
// operator constructors, so a plan that builds cleanly will not fail on
// those grounds during execution.
package planner

import (
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/plan"
	"github.com/quarrydb/quarry/pkg/sql"
)

// Build converts a statement into an operator tree. Table names resolve
// through the catalog; a statement without a FROM clause reads from the
// fallback table, which may be empty when no default makes sense.
func Build(stmt *sql.SelectStatement, catalog *database.Catalog, fallback string) (plan.Operator, error) {
	var root plan.Operator

	if stmt.FromSelect != nil {
		sub, err := Build(stmt.FromSelect, catalog, fallback)
		if err != nil {
			return nil, err
		}
		root = sub
	} else {
		name := stmt.From
		if name == "" {
			name = fallback
		}
		if name == "" {
			return nil, fmt.Errorf("no table to read from: add a FROM clause")
		}
		tbl, err := catalog.Table(name)
		if err != nil {
			return nil, err
		}
		root = plan.NewScan(name, tbl)
	}

	if stmt.Where != nil {
		f, err := plan.NewFilter(stmt.Where, root)
		if err != nil {
			return nil, err
		}
		root = f
	}

	if !stmt.Star && len(stmt.Fields) > 0 {
		outputs := make([]plan.Output, len(stmt.Fields))
		for i, f := range stmt.Fields {
			outputs[i] = plan.Output{Name: f.Name, Expr: f.Expr}
		}
		p, err := plan.NewProject(outputs, root)
		if err != nil {
			return nil, err
		}
		root = p
	}

	if stmt.Limit != nil {
		var offset int64
		if stmt.Offset != nil {
			offset = *stmt.Offset
		}
		l, err := plan.NewLimit(*stmt.Limit, offset, root)
		if err != nil {
			return nil, err
		}
		root = l
	}

	return root, nil
}
