// Package query evaluates SELECT statements directly against the rows of one
// stored table. There is no planner and no index: every query is a full scan.
package query

import (
	"context"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/parser"
	"github.com/leengari/importq/internal/parser/ast"
	"github.com/leengari/importq/internal/store"
)

// Result is the outcome of one query
type Result struct {
	Rows      []data.Row
	RowCount  int
	Columns   []string // column order for display
	Truncated bool     // rows were cut by MaxRows
	Statement *ast.SelectStatement
}

// Evaluator runs queries for a caller against a store
type Evaluator struct {
	store   store.Store
	maxRows int
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithMaxRows caps the rows any query returns. Zero means no cap.
func WithMaxRows(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxRows = n
		}
	}
}

// NewEvaluator creates an evaluator reading from s
func NewEvaluator(s store.Store, opts ...Option) *Evaluator {
	e := &Evaluator{store: s}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate parses queryText and runs it against owner's tables. A table of
// another owner is indistinguishable from a missing one.
func (e *Evaluator) Evaluate(ctx context.Context, owner, queryText string) (*Result, error) {
	stmt, err := parser.ParseSelect(queryText)
	if err != nil {
		return nil, err
	}

	meta, err := e.store.GetTableByName(ctx, owner, stmt.TableName.Value)
	if err != nil {
		return nil, err
	}

	rows, err := e.store.ListRows(ctx, meta.ID)
	if err != nil {
		return nil, err
	}

	out := Apply(stmt, rows)

	res := &Result{Statement: stmt}
	if e.maxRows > 0 && len(out) > e.maxRows {
		out = out[:e.maxRows]
		res.Truncated = true
	}
	res.Rows = out
	res.RowCount = len(out)

	switch p := stmt.Projection.(type) {
	case *ast.SelectColumns:
		res.Columns = p.Names()
	default:
		res.Columns = DisplayColumns(meta.ColumnNames(), out)
	}
	return res, nil
}

// Apply runs filter, order, limit and projection over rows, in that order.
// rows is not modified.
func Apply(stmt *ast.SelectStatement, rows []data.Row) []data.Row {
	matched := Filter(stmt.Filter, rows)

	if stmt.OrderBy != nil {
		Sort(matched, stmt.OrderBy)
	}

	if stmt.Limit >= 0 && len(matched) > stmt.Limit {
		matched = matched[:stmt.Limit]
	}

	out := make([]data.Row, len(matched))
	for i, row := range matched {
		out[i] = Project(row, stmt.Projection)
	}
	return out
}

// DisplayColumns returns the declared columns followed by any extra keys
// found in rows, in first-seen order
func DisplayColumns(declared []string, rows []data.Row) []string {
	cols := append([]string(nil), declared...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}
