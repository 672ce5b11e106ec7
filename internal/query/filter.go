package query

import (
	"sort"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/parser/ast"
)

// Filter returns the rows passing f, preserving order
func Filter(f ast.Filter, rows []data.Row) []data.Row {
	eq, ok := f.(*ast.EqualityFilter)
	if !ok {
		return append([]data.Row(nil), rows...)
	}

	var matched []data.Row
	for _, row := range rows {
		if Matches(eq, row) {
			matched = append(matched, row)
		}
	}
	return matched
}

// Matches reports whether row satisfies col = literal. A NULL literal
// matches null and absent values; anything else matches when the values
// agree as strings or as numbers.
func Matches(eq *ast.EqualityFilter, row data.Row) bool {
	v := row.Get(eq.Column.Value)
	if eq.Value.Kind == ast.LiteralNull {
		return v == nil
	}
	return data.Equal(v, eq.Value.Value)
}

// Sort orders rows in place on one column; ties keep their stored order
func Sort(rows []data.Row, ob *ast.OrderBy) {
	col := ob.Column.Value
	sort.SliceStable(rows, func(i, j int) bool {
		c := data.Compare(rows[i].Get(col), rows[j].Get(col))
		if ob.Descending {
			return c > 0
		}
		return c < 0
	})
}
