package parser

import (
	"fmt"

	"github.com/leengari/importq/internal/parser/ast"
	"github.com/leengari/importq/internal/parser/lexer"
)

// isComparisonOperator checks if a token type is a comparison operator
func isComparisonOperator(t lexer.TokenType) bool {
	return t == lexer.EQUALS ||
		t == lexer.LESS_THAN ||
		t == lexer.GREATER_THAN ||
		t == lexer.LESS_EQUAL ||
		t == lexer.GREATER_EQUAL ||
		t == lexer.NOT_EQUAL
}

// isLogicalOperator checks if a token type is a logical operator (AND, OR)
func isLogicalOperator(t lexer.TokenType) bool {
	return t == lexer.AND || t == lexer.OR
}

// isUnsupportedOperator covers everything that may follow a column in a
// WHERE clause but is not plain equality
func isUnsupportedOperator(t lexer.TokenType) bool {
	switch t {
	case lexer.LIKE, lexer.IN, lexer.BETWEEN, lexer.IS, lexer.NOT:
		return true
	}
	return isComparisonOperator(t) && t != lexer.EQUALS
}

// describe renders a token for error messages
func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.STRING:
		return fmt.Sprintf("string '%s'", tok.Literal)
	case lexer.IDENTIFIER, lexer.NUMBER:
		return fmt.Sprintf("%s %s", tok.Type, tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// isSoftKeyword reports reserved words that can only be a column name where
// a column is expected, so they need no quoting there
func isSoftKeyword(t lexer.TokenType) bool {
	switch t {
	case lexer.ORDER, lexer.BY, lexer.ASC, lexer.DESC, lexer.LIMIT,
		lexer.LIKE, lexer.IN, lexer.BETWEEN, lexer.IS,
		lexer.INSERT, lexer.INTO, lexer.VALUES:
		return true
	}
	return false
}

// columnName reads the current token as a column name without advancing.
// expected prefixes the error message.
func (p *Parser) columnName(expected string) (*ast.Identifier, error) {
	tok := p.curTok
	switch {
	case tok.Type == lexer.IDENTIFIER, isSoftKeyword(tok.Type):
		return &ast.Identifier{Value: tok.Literal}, nil
	case tok.Type.IsKeyword() && tok.Type != lexer.FROM:
		return nil, p.errorf("%s, got reserved word %s; write `%s` to use it as a column name",
			expected, tok.Type, tok.Literal)
	}
	return nil, p.errorf("%s, got %s", expected, describe(tok))
}
