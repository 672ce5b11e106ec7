// Package errors holds the typed failures of the import, store and query
// layers. Every one of them is a local, recoverable condition.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind groups failures by the layer that raised them
type Kind string

const (
	KindImport   Kind = "import"
	KindStore    Kind = "store"
	KindQuery    Kind = "query"
	KindRequest  Kind = "request"
	KindInternal Kind = "internal"
)

// EmptyInputError: the raw text is empty after trimming
type EmptyInputError struct {
	Format string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("empty %s input", e.Format)
}

// NoRowsParsedError: the input parsed but produced no data rows
type NoRowsParsedError struct {
	Format string
}

func (e *NoRowsParsedError) Error() string {
	return fmt.Sprintf("no data rows found in %s input", e.Format)
}

// RowArityMismatchError: a line or statement carries a different number of
// values than there are columns
type RowArityMismatchError struct {
	Line     int // 1-based line or statement number
	Expected int
	Got      int
}

func (e *RowArityMismatchError) Error() string {
	return fmt.Sprintf("row %d has %d values, expected %d", e.Line, e.Got, e.Expected)
}

// ColumnListMismatchError: a later INSERT statement names a different column
// list than the first one
type ColumnListMismatchError struct {
	Statement int
	Expected  []string
	Got       []string
}

func (e *ColumnListMismatchError) Error() string {
	return fmt.Sprintf("statement %d column list (%s) differs from first statement (%s)",
		e.Statement, strings.Join(e.Got, ", "), strings.Join(e.Expected, ", "))
}

// DuplicateColumnError: a column name appears twice in one column list
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column name %q", e.Column)
}

// MalformedStatementError: a statement or line of imported text could not be read
type MalformedStatementError struct {
	Line   int
	Reason string
}

func (e *MalformedStatementError) Error() string {
	return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Reason)
}

// InvalidFormatError: the import format is not one of the supported encodings
type InvalidFormatError struct {
	Format string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("unsupported import format %q", e.Format)
}

// InvalidTableNameError: a table name that could never be referenced by a query
type InvalidTableNameError struct {
	Name string
}

func (e *InvalidTableNameError) Error() string {
	return fmt.Sprintf("invalid table name %q: use letters, digits and underscores, not a reserved word", e.Name)
}

// InvalidOwnerError: an owner id that cannot partition storage safely
type InvalidOwnerError struct {
	Owner string
}

func (e *InvalidOwnerError) Error() string {
	return fmt.Sprintf("invalid owner %q: must be non-empty, not \".\" or \"..\", and free of path separators", e.Owner)
}

// InvalidAssistModeError: the assistant was asked for a mode it does not have
type InvalidAssistModeError struct {
	Mode string
}

func (e *InvalidAssistModeError) Error() string {
	return fmt.Sprintf("unknown assistant mode %q: want chat, generate, explain or optimize", e.Mode)
}

// AssistantUnavailableError: no language model is configured
type AssistantUnavailableError struct{}

func (e *AssistantUnavailableError) Error() string {
	return "assistant unavailable: enable insights and set the API key"
}

// TableNotFoundError: no table with that name exists for the owner
type TableNotFoundError struct {
	Owner string
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Table)
}

// DuplicateTableNameError: the owner already has a table with that name
type DuplicateTableNameError struct {
	Owner string
	Table string
}

func (e *DuplicateTableNameError) Error() string {
	return fmt.Sprintf("table %q already exists", e.Table)
}

// UnparsableQueryError: the query text does not fit the accepted grammar
type UnparsableQueryError struct {
	Query    string
	Position int // 1-based column of the offending token, 0 if unknown
	Reason   string
}

func (e *UnparsableQueryError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("could not parse query at column %d: %s", e.Position, e.Reason)
	}
	return fmt.Sprintf("could not parse query: %s", e.Reason)
}

// UnsupportedPredicateError: the WHERE clause is more than one equality
type UnsupportedPredicateError struct {
	Construct string
}

func (e *UnsupportedPredicateError) Error() string {
	return fmt.Sprintf("unsupported predicate: %s (only a single <column> = <literal> is supported)", e.Construct)
}

// KindOf classifies err; anything outside the taxonomy is internal
func KindOf(err error) Kind {
	var (
		emptyErr     *EmptyInputError
		noRowsErr    *NoRowsParsedError
		arityErr     *RowArityMismatchError
		colListErr   *ColumnListMismatchError
		dupColErr    *DuplicateColumnError
		formatErr    *InvalidFormatError
		stmtErr      *MalformedStatementError
		tableNameErr *InvalidTableNameError
		notFoundErr  *TableNotFoundError
		dupTableErr  *DuplicateTableNameError
		parseErr     *UnparsableQueryError
		predErr      *UnsupportedPredicateError
		ownerErr     *InvalidOwnerError
		modeErr      *InvalidAssistModeError
		unavailErr   *AssistantUnavailableError
	)

	switch {
	case err == nil:
		return ""
	case stderrors.As(err, &emptyErr), stderrors.As(err, &noRowsErr),
		stderrors.As(err, &arityErr), stderrors.As(err, &colListErr),
		stderrors.As(err, &dupColErr), stderrors.As(err, &formatErr),
		stderrors.As(err, &tableNameErr), stderrors.As(err, &stmtErr):
		return KindImport
	case stderrors.As(err, &notFoundErr), stderrors.As(err, &dupTableErr):
		return KindStore
	case stderrors.As(err, &parseErr), stderrors.As(err, &predErr):
		return KindQuery
	case stderrors.As(err, &ownerErr), stderrors.As(err, &modeErr),
		stderrors.As(err, &unavailErr):
		return KindRequest
	}
	return KindInternal
}

// Name returns a short stable label for err, used in metrics
func Name(err error) string {
	if err == nil {
		return ""
	}
	var (
		emptyErr     *EmptyInputError
		noRowsErr    *NoRowsParsedError
		arityErr     *RowArityMismatchError
		colListErr   *ColumnListMismatchError
		dupColErr    *DuplicateColumnError
		formatErr    *InvalidFormatError
		stmtErr      *MalformedStatementError
		tableNameErr *InvalidTableNameError
		notFoundErr  *TableNotFoundError
		dupTableErr  *DuplicateTableNameError
		parseErr     *UnparsableQueryError
		predErr      *UnsupportedPredicateError
		ownerErr     *InvalidOwnerError
		modeErr      *InvalidAssistModeError
		unavailErr   *AssistantUnavailableError
	)
	switch {
	case stderrors.As(err, &emptyErr):
		return "empty_input"
	case stderrors.As(err, &noRowsErr):
		return "no_rows_parsed"
	case stderrors.As(err, &arityErr):
		return "row_arity_mismatch"
	case stderrors.As(err, &colListErr):
		return "column_list_mismatch"
	case stderrors.As(err, &dupColErr):
		return "duplicate_column"
	case stderrors.As(err, &formatErr):
		return "invalid_format"
	case stderrors.As(err, &stmtErr):
		return "malformed_statement"
	case stderrors.As(err, &tableNameErr):
		return "invalid_table_name"
	case stderrors.As(err, &notFoundErr):
		return "table_not_found"
	case stderrors.As(err, &dupTableErr):
		return "duplicate_table_name"
	case stderrors.As(err, &parseErr):
		return "unparsable_query"
	case stderrors.As(err, &predErr):
		return "unsupported_predicate"
	case stderrors.As(err, &ownerErr):
		return "invalid_owner"
	case stderrors.As(err, &modeErr):
		return "invalid_assist_mode"
	case stderrors.As(err, &unavailErr):
		return "assistant_unavailable"
	}
	return "internal"
}
