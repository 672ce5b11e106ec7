// Package importer turns pasted text into a normalized table: an ordered,
// duplicate-free column list plus rows keyed by column name.
package importer

import (
	"strings"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
)

// Format names one of the accepted text encodings
type Format string

const (
	FormatDelimited Format = "delimited-text"
	FormatInserts   Format = "insert-statements"
)

// ParseFormat maps user input onto a Format. The short names "csv" and
// "sql" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(FormatDelimited), "csv", "delimited":
		return FormatDelimited, nil
	case string(FormatInserts), "sql", "inserts":
		return FormatInserts, nil
	}
	return "", &domainerrors.InvalidFormatError{Format: s}
}

// Result is the normalized output of an import
type Result struct {
	Columns  []string
	Rows     []data.Row
	Inferred []string // per column: "number", "text" or "null" (all values null)
}

// Import parses raw in the given format. It has no side effects.
func Import(format Format, raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &domainerrors.EmptyInputError{Format: string(format)}
	}

	var (
		res *Result
		err error
	)
	switch format {
	case FormatDelimited:
		res, err = parseDelimited(raw)
	case FormatInserts:
		res, err = parseInserts(raw)
	default:
		return nil, &domainerrors.InvalidFormatError{Format: string(format)}
	}
	if err != nil {
		return nil, err
	}

	if len(res.Rows) == 0 {
		return nil, &domainerrors.NoRowsParsedError{Format: string(format)}
	}
	res.Inferred = inferTypes(res.Columns, res.Rows)
	return res, nil
}

// checkColumns rejects duplicate names in a column list
func checkColumns(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return &domainerrors.DuplicateColumnError{Column: c}
		}
		seen[c] = true
	}
	return nil
}

// inferTypes reports "number" when every non-null value of a column is a
// number, "null" when all values are null, and "text" otherwise
func inferTypes(columns []string, rows []data.Row) []string {
	types := make([]string, len(columns))
	for i, col := range columns {
		kind := "null"
		for _, row := range rows {
			switch data.TypeOf(row.Get(col)) {
			case "text":
				kind = "text"
			case "number":
				if kind == "null" {
					kind = "number"
				}
			}
			if kind == "text" {
				break
			}
		}
		types[i] = kind
	}
	return types
}
