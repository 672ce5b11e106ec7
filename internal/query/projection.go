package query

import (
	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/parser/ast"
)

// Project applies the select list to a single row.
// Returns a new row; SELECT * copies the row as stored.
// A selected column the row does not carry is emitted as null.
func Project(row data.Row, proj ast.Projection) data.Row {
	cols, ok := proj.(*ast.SelectColumns)
	if !ok {
		return row.Copy()
	}

	projected := make(data.Row, len(cols.Columns))
	for _, c := range cols.Columns {
		projected[c.Value] = row.Get(c.Value)
	}
	return projected
}
