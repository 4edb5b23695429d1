// Package sql parses the query language into statements the planner can
// turn into operator trees. The grammar is small: single-table SELECT
// with WHERE, LIMIT/OFFSET, subqueries in FROM, and EXPLAIN.
package sql

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/quarrydb/quarry/pkg/expr"
)

// SelectField is one projected column and the name it is published under.
type SelectField struct {
	Name string
	Expr expr.Expression
}

func (f SelectField) String() string {
	if f.Expr.String() == f.Name {
		return f.Name
	}
	return fmt.Sprintf("%s AS %s", f.Expr, f.Name)
}

// SelectStatement is a parsed query. Exactly one of Star and Fields is
// set; at most one of From and FromSelect.
type SelectStatement struct {
	Explain    bool
	Star       bool
	Fields     []SelectField
	From       string
	FromSelect *SelectStatement
	Where      expr.Expression
	Limit      *int64
	Offset     *int64
}

var (
	sqlLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Keyword", Pattern: `(?i)\b(EXPLAIN|SELECT|FROM|WHERE|LIMIT|OFFSET|AS|AND|OR|NOT|TRUE|FALSE)\b`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Number", Pattern: `[-+]?\d+`},
		{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
		{Name: "Operator", Pattern: `>=|<=|!=|[=<>]`},
		{Name: "Punct", Pattern: `[*,()]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	sqlParser = participle.MustBuild[astSelect](
		participle.Lexer(sqlLexer),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// ParseSelect parses a statement.
func ParseSelect(input string) (*SelectStatement, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty query")
	}

	ast, err := sqlParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return ast.lower()
}
