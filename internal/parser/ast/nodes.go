package ast

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Node is the base interface for all AST nodes
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents a standalone SQL statement (SELECT, INSERT)
type Statement interface {
	Node
	statementNode()
}

// Identifier represents a column or table name
type Identifier struct {
	Value string
}

func (i *Identifier) TokenLiteral() string { return i.Value }
func (i *Identifier) String() string       { return i.Value }

// LiteralKind distinguishes the three value shapes a row can hold
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralNull
)

// Literal represents a fixed value
type Literal struct {
	Raw   string      // text as written, without quotes
	Value interface{} // string, float64 or nil
	Kind  LiteralKind
}

func (l *Literal) TokenLiteral() string { return l.Raw }
func (l *Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return "'" + strings.ReplaceAll(l.Raw, "'", "''") + "'"
	case LiteralNull:
		return "NULL"
	}
	return l.Raw
}

// NewNumberLiteral builds a number literal from its source text
func NewNumberLiteral(raw string) (*Literal, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number: %s", raw)
	}
	return &Literal{Raw: raw, Value: f, Kind: LiteralNumber}, nil
}

// Projection is the select list: SelectAll or SelectColumns
type Projection interface {
	Node
	projectionNode()
}

// SelectAll is SELECT *
type SelectAll struct{}

func (p *SelectAll) projectionNode()      {}
func (p *SelectAll) TokenLiteral() string { return "*" }
func (p *SelectAll) String() string       { return "*" }

// SelectColumns is an explicit, ordered column list
type SelectColumns struct {
	Columns []*Identifier
}

func (p *SelectColumns) projectionNode()      {}
func (p *SelectColumns) TokenLiteral() string { return p.String() }
func (p *SelectColumns) String() string {
	parts := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// Names returns the projected column names in order
func (p *SelectColumns) Names() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Value
	}
	return names
}

// Filter is the WHERE clause: NoFilter or EqualityFilter
type Filter interface {
	Node
	filterNode()
}

// NoFilter means every row passes
type NoFilter struct{}

func (f *NoFilter) filterNode()          {}
func (f *NoFilter) TokenLiteral() string { return "" }
func (f *NoFilter) String() string       { return "" }

// EqualityFilter: Column = Value
type EqualityFilter struct {
	Column *Identifier
	Value  *Literal
}

func (f *EqualityFilter) filterNode()          {}
func (f *EqualityFilter) TokenLiteral() string { return "=" }
func (f *EqualityFilter) String() string {
	return fmt.Sprintf("%s = %s", f.Column.String(), f.Value.String())
}

// OrderBy sorts the result on one column
type OrderBy struct {
	Column     *Identifier
	Descending bool
}

func (o *OrderBy) String() string {
	if o.Descending {
		return o.Column.String() + " DESC"
	}
	return o.Column.String() + " ASC"
}

// SelectStatement: SELECT <projection> FROM table [WHERE col = lit] [ORDER BY col] [LIMIT n]
type SelectStatement struct {
	Projection Projection
	TableName  *Identifier
	Filter     Filter
	OrderBy    *OrderBy // nil when absent
	Limit      int      // -1 when absent
}

func (s *SelectStatement) statementNode()       {}
func (s *SelectStatement) TokenLiteral() string { return "SELECT" }
func (s *SelectStatement) String() string {
	var out bytes.Buffer
	out.WriteString("SELECT ")
	out.WriteString(s.Projection.String())
	out.WriteString(" FROM ")
	out.WriteString(s.TableName.String())
	if eq, ok := s.Filter.(*EqualityFilter); ok {
		out.WriteString(" WHERE ")
		out.WriteString(eq.String())
	}
	if s.OrderBy != nil {
		out.WriteString(" ORDER BY ")
		out.WriteString(s.OrderBy.String())
	}
	if s.Limit >= 0 {
		out.WriteString(" LIMIT ")
		out.WriteString(strconv.Itoa(s.Limit))
	}
	return out.String()
}

// InsertStatement: INSERT INTO table (col1, col2) VALUES (val1, val2)[, (...)]
// Each entry of Rows is one parenthesized value tuple.
type InsertStatement struct {
	TableName *Identifier
	Columns   []*Identifier
	Rows      [][]*Literal
	Line      int // line the statement starts on
}

func (s *InsertStatement) statementNode()       {}
func (s *InsertStatement) TokenLiteral() string { return "INSERT" }
func (s *InsertStatement) String() string {
	var out bytes.Buffer
	out.WriteString("INSERT INTO ")
	out.WriteString(s.TableName.String())
	out.WriteString(" (")
	for i, c := range s.Columns {
		out.WriteString(c.String())
		if i < len(s.Columns)-1 {
			out.WriteString(", ")
		}
	}
	out.WriteString(") VALUES ")
	for r, values := range s.Rows {
		out.WriteString("(")
		for i, v := range values {
			out.WriteString(v.String())
			if i < len(values)-1 {
				out.WriteString(", ")
			}
		}
		out.WriteString(")")
		if r < len(s.Rows)-1 {
			out.WriteString(", ")
		}
	}
	return out.String()
}

// ColumnNames returns the statement's column list as plain strings
func (s *InsertStatement) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Value
	}
	return names
}
