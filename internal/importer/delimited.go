package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/leengari/importq/internal/domain/data"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
)

const delimiter = ','

// parseDelimited reads a header line and positional data lines.
// Every data line must carry exactly as many fields as the header.
func parseDelimited(raw string) (*Result, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(raw)))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, malformedLine(err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = data.StripQuotes(strings.TrimSpace(h))
	}
	if err := checkColumns(columns); err != nil {
		return nil, err
	}

	res := &Result{Columns: columns}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformedLine(err)
		}
		if isBlank(record) {
			continue
		}

		line, _ := r.FieldPos(0)
		if len(record) != len(columns) {
			return nil, &domainerrors.RowArityMismatchError{
				Line:     line,
				Expected: len(columns),
				Got:      len(record),
			}
		}

		row := make(data.Row, len(columns))
		for i, col := range columns {
			row[col] = data.CoerceLiteral(record[i])
		}
		res.Rows = append(res.Rows, row)
	}

	return res, nil
}

// isBlank reports whether a record came from an empty or whitespace line
func isBlank(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}

func malformedLine(err error) error {
	var parseErr *csv.ParseError
	line := 0
	if errors.As(err, &parseErr) {
		line = parseErr.StartLine
	}
	return &domainerrors.MalformedStatementError{Line: line, Reason: err.Error()}
}
