// Package engine parses, plans and executes statements against a catalog,
// streaming encoded result rows to an output writer.
package engine

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/plan"
	"github.com/quarrydb/quarry/pkg/planner"
	"github.com/quarrydb/quarry/pkg/sql"
)

// Executor runs statements against a catalog.
type Executor struct {
	catalog *database.Catalog
	logger  *zap.Logger

	// Fallback names the table used when a statement has no FROM clause.
	Fallback string
	// Format selects the output encoding; FormatJSONL by default.
	Format string
	Pretty bool
}

// NewExecutor creates an executor. A nil logger disables logging.
func NewExecutor(catalog *database.Catalog, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		catalog: catalog,
		logger:  logger,
		Format:  FormatJSONL,
	}
}

// Run parses and executes one query, writing encoded rows to w. EXPLAIN
// statements print the plan instead of executing it.
func (e *Executor) Run(ctx context.Context, input string, w io.Writer) error {
	stmt, err := sql.ParseSelect(input)
	if err != nil {
		return err
	}
	return e.RunStatement(ctx, stmt, w)
}

// RunStatement executes an already-parsed statement. The context is
// checked between row pulls, so cancellation stops a long scan promptly.
func (e *Executor) RunStatement(ctx context.Context, stmt *sql.SelectStatement, w io.Writer) (err error) {
	logger := e.logger.With(zap.String("query_id", uuid.NewString()))

	op, err := planner.Build(stmt, e.catalog, e.Fallback)
	if err != nil {
		logger.Debug("planning failed", zap.Error(err))
		return err
	}

	if stmt.Explain {
		_, err = io.WriteString(w, plan.FormatPlan(op))
		return err
	}

	if err := op.Open(); err != nil {
		op.Close()
		return err
	}
	defer func() {
		if cerr := op.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc, err := NewRowEncoder(e.Format, e.Pretty, w)
	if err != nil {
		return err
	}
	if err := enc.Begin(op.Schema()); err != nil {
		return err
	}

	rows := 0
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("query cancelled", zap.Int("rows", rows))
			return err
		}
		row, err := op.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		if err := enc.Write(row); err != nil {
			return err
		}
		rows++
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	logger.Debug("query finished", zap.Int("rows", rows))
	return nil
}
