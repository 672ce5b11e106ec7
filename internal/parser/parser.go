package parser

import (
	"fmt"
	"strconv"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/parser/ast"
	"github.com/leengari/importq/internal/parser/lexer"
)

type Parser struct {
	input   string
	tokens  []lexer.Token
	curPos  int
	curTok  lexer.Token
	peekTok lexer.Token
}

// New creates a parser over a token stream produced by lexer.All or
// lexer.Tokenize. input is only used for error reporting.
func New(input string, tokens []lexer.Token) *Parser {
	p := &Parser{input: input, tokens: tokens, curPos: 0}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = lexer.Token{Type: lexer.EOF}
	}
}

// ParseSelect parses a single SELECT query. Failures are
// *UnparsableQueryError or *UnsupportedPredicateError.
func ParseSelect(query string) (*ast.SelectStatement, error) {
	p := New(query, lexer.All(query))
	return p.ParseSelect()
}

// ParseSelect parses the token stream as exactly one SELECT statement
func (p *Parser) ParseSelect() (*ast.SelectStatement, error) {
	if p.curTok.Type == lexer.EOF {
		return nil, p.errorf("empty query")
	}
	if p.curTok.Type != lexer.SELECT {
		return nil, p.errorf("expected SELECT, got %s", describe(p.curTok))
	}

	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}

	if p.curTok.Type != lexer.EOF {
		return nil, p.errorf("unexpected %s after end of query", describe(p.curTok))
	}
	return stmt, nil
}

func (p *Parser) parseSelect() (*ast.SelectStatement, error) {
	stmt := &ast.SelectStatement{Filter: &ast.NoFilter{}, Limit: -1}

	// SELECT
	p.nextToken()

	// Projection
	proj, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	stmt.Projection = proj

	// FROM
	if p.curTok.Type != lexer.FROM {
		return nil, p.errorf("expected FROM, got %s", describe(p.curTok))
	}
	p.nextToken()

	// Table Name
	if p.curTok.Type != lexer.IDENTIFIER {
		return nil, p.errorf("expected table name after FROM, got %s", describe(p.curTok))
	}
	stmt.TableName = &ast.Identifier{Value: p.curTok.Literal}
	p.nextToken()

	// WHERE (Optional)
	if p.curTok.Type == lexer.WHERE {
		p.nextToken()
		filter, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		stmt.Filter = filter
	}

	// ORDER BY (Optional)
	if p.curTok.Type == lexer.ORDER {
		p.nextToken()
		if p.curTok.Type != lexer.BY {
			return nil, p.errorf("expected BY after ORDER, got %s", describe(p.curTok))
		}
		p.nextToken()
		column, err := p.columnName("expected column after ORDER BY")
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = &ast.OrderBy{Column: column}
		p.nextToken()
		switch p.curTok.Type {
		case lexer.ASC:
			p.nextToken()
		case lexer.DESC:
			stmt.OrderBy.Descending = true
			p.nextToken()
		}
		if p.curTok.Type == lexer.COMMA {
			return nil, p.errorf("ORDER BY supports a single column")
		}
	}

	// LIMIT (Optional)
	if p.curTok.Type == lexer.LIMIT {
		p.nextToken()
		if p.curTok.Type != lexer.NUMBER {
			return nil, p.errorf("expected row count after LIMIT, got %s", describe(p.curTok))
		}
		n, err := strconv.Atoi(p.curTok.Literal)
		if err != nil || n < 0 {
			return nil, p.errorf("invalid LIMIT %s", p.curTok.Literal)
		}
		stmt.Limit = n
		p.nextToken()
	}

	// Semicolon (Optional)
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}

	return stmt, nil
}

func (p *Parser) parseProjection() (ast.Projection, error) {
	if p.curTok.Type == lexer.ASTERISK {
		p.nextToken()
		return &ast.SelectAll{}, nil
	}

	cols, err := p.parseIdentifierList()
	if err != nil {
		return nil, err
	}
	return &ast.SelectColumns{Columns: cols}, nil
}

func (p *Parser) parseIdentifierList() ([]*ast.Identifier, error) {
	var identifiers []*ast.Identifier
	seen := make(map[string]bool)

	for {
		column, err := p.columnName("expected column name")
		if err != nil {
			return nil, err
		}
		if p.peekTok.Type == lexer.PAREN_OPEN {
			return nil, p.errorf("function calls such as %s(...) are not supported", p.curTok.Literal)
		}
		if p.peekTok.Type == lexer.DOT {
			return nil, p.errorf("qualified column names are not supported")
		}
		name := column.Value
		if !seen[name] {
			identifiers = append(identifiers, &ast.Identifier{Value: name})
			seen[name] = true
		}
		p.nextToken()

		if p.curTok.Type != lexer.COMMA {
			return identifiers, nil
		}
		p.nextToken()
	}
}

// parseEquality reads exactly one "<column> = <literal>" condition and
// rejects everything richer with UnsupportedPredicateError
func (p *Parser) parseEquality() (ast.Filter, error) {
	if p.curTok.Type == lexer.PAREN_OPEN {
		return nil, unsupported("parenthesized condition")
	}
	if p.curTok.Type == lexer.NOT {
		return nil, unsupported("NOT")
	}
	column, err := p.columnName("expected column name after WHERE")
	if err != nil {
		return nil, err
	}
	p.nextToken()

	if p.curTok.Type != lexer.EQUALS {
		if isUnsupportedOperator(p.curTok.Type) {
			return nil, unsupported(fmt.Sprintf("operator %s", p.curTok.Type))
		}
		return nil, p.errorf("expected = after %s, got %s", column.Value, describe(p.curTok))
	}
	p.nextToken()

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}

	if isLogicalOperator(p.curTok.Type) {
		return nil, unsupported(fmt.Sprintf("%s combinator", p.curTok.Type))
	}
	if isComparisonOperator(p.curTok.Type) {
		return nil, unsupported("chained comparison")
	}

	return &ast.EqualityFilter{Column: column, Value: value}, nil
}

func (p *Parser) parseLiteral() (*ast.Literal, error) {
	switch p.curTok.Type {
	case lexer.STRING:
		lit := &ast.Literal{Raw: p.curTok.Literal, Value: p.curTok.Literal, Kind: ast.LiteralString}
		p.nextToken()
		return lit, nil
	case lexer.NUMBER:
		lit, err := ast.NewNumberLiteral(p.curTok.Literal)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		p.nextToken()
		return lit, nil
	case lexer.MINUS:
		if p.peekTok.Type != lexer.NUMBER {
			return nil, p.errorf("expected number after -, got %s", describe(p.peekTok))
		}
		p.nextToken()
		lit, err := ast.NewNumberLiteral("-" + p.curTok.Literal)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		p.nextToken()
		return lit, nil
	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{Raw: "NULL", Value: nil, Kind: ast.LiteralNull}, nil
	case lexer.IDENTIFIER:
		return nil, unsupported("column-to-column comparison")
	case lexer.PAREN_OPEN, lexer.SELECT:
		return nil, unsupported("subquery")
	default:
		return nil, p.errorf("expected literal value, got %s", describe(p.curTok))
	}
}

// errorf builds an UnparsableQueryError positioned at the current token
func (p *Parser) errorf(format string, args ...interface{}) error {
	reason := fmt.Sprintf(format, args...)
	if p.curTok.Type == lexer.ILLEGAL {
		reason = fmt.Sprintf("illegal character %q", p.curTok.Literal)
	}
	return &domainerrors.UnparsableQueryError{
		Query:    p.input,
		Position: p.curTok.Column,
		Reason:   reason,
	}
}

func unsupported(construct string) error {
	return &domainerrors.UnsupportedPredicateError{Construct: construct}
}
