package importer

import (
	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/parser"
	"github.com/leengari/importq/internal/parser/ast"
)

// parseInserts turns a stream of INSERT statements into rows. The first
// statement fixes the column list; later statements must repeat it.
func parseInserts(raw string) (*Result, error) {
	stmts, err := parser.ParseInserts(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for i, stmt := range stmts {
		cols := stmt.ColumnNames()
		if i == 0 {
			if err := checkColumns(cols); err != nil {
				return nil, err
			}
			res.Columns = cols
		} else if !sameColumns(res.Columns, cols) {
			return nil, &domainerrors.ColumnListMismatchError{
				Statement: i + 1,
				Expected:  res.Columns,
				Got:       cols,
			}
		}

		for _, values := range stmt.Rows {
			if len(values) != len(res.Columns) {
				return nil, &domainerrors.RowArityMismatchError{
					Line:     stmt.Line,
					Expected: len(res.Columns),
					Got:      len(values),
				}
			}
			row := make(data.Row, len(res.Columns))
			for j, col := range res.Columns {
				row[col] = literalValue(values[j])
			}
			res.Rows = append(res.Rows, row)
		}
	}

	return res, nil
}

// literalValue applies the import coercion rules to a parsed literal, so a
// quoted '2010' becomes a number just as it would in delimited text
func literalValue(lit *ast.Literal) interface{} {
	switch lit.Kind {
	case ast.LiteralNull:
		return nil
	case ast.LiteralNumber:
		return lit.Value
	}
	return data.CoerceLiteral(lit.Raw)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
