package parser

import (
	"fmt"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/parser/ast"
	"github.com/leengari/importq/internal/parser/lexer"
)

// ParseInserts scans text for INSERT statements and parses each of them.
// Anything between statements (CREATE TABLE, SET, comments) is skipped up to
// the next semicolon, so SQL dumps can be pasted as they are.
func ParseInserts(text string) ([]*ast.InsertStatement, error) {
	p := New(text, lexer.All(text))

	var stmts []*ast.InsertStatement
	for p.curTok.Type != lexer.EOF {
		if p.curTok.Type != lexer.INSERT {
			p.skipStatement()
			continue
		}
		stmt, err := p.parseInsert()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// skipStatement advances past the next semicolon or to EOF
func (p *Parser) skipStatement() {
	for p.curTok.Type != lexer.EOF && p.curTok.Type != lexer.SEMICOLON {
		p.nextToken()
	}
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
}

func (p *Parser) parseInsert() (*ast.InsertStatement, error) {
	stmt := &ast.InsertStatement{Line: p.curTok.Line}

	// INSERT
	p.nextToken()

	// INTO
	if p.curTok.Type != lexer.INTO {
		return nil, p.malformed(stmt, "expected INTO, got %s", describe(p.curTok))
	}
	p.nextToken()

	// Table Name, optionally schema-qualified. Double-quoted names lex as
	// strings.
	if !isInsertName(p.curTok) {
		return nil, p.malformed(stmt, "expected table name, got %s", describe(p.curTok))
	}
	stmt.TableName = &ast.Identifier{Value: p.curTok.Literal}
	p.nextToken()
	if p.curTok.Type == lexer.DOT {
		p.nextToken()
		if !isInsertName(p.curTok) {
			return nil, p.malformed(stmt, "expected table name after '.', got %s", describe(p.curTok))
		}
		stmt.TableName = &ast.Identifier{Value: p.curTok.Literal}
		p.nextToken()
	}

	// Columns
	if p.curTok.Type != lexer.PAREN_OPEN {
		return nil, p.malformed(stmt, "a column list is required, got %s", describe(p.curTok))
	}
	p.nextToken()
	for {
		if !isInsertName(p.curTok) && !p.curTok.Type.IsKeyword() {
			return nil, p.malformed(stmt, "expected column name, got %s", describe(p.curTok))
		}
		stmt.Columns = append(stmt.Columns, &ast.Identifier{Value: p.curTok.Literal})
		p.nextToken()
		if p.curTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		if p.curTok.Type != lexer.PAREN_CLOSE {
			return nil, p.malformed(stmt, "expected , or ) in column list, got %s", describe(p.curTok))
		}
		p.nextToken()
		break
	}

	// VALUES
	if p.curTok.Type != lexer.VALUES {
		return nil, p.malformed(stmt, "expected VALUES, got %s", describe(p.curTok))
	}
	p.nextToken()

	// One or more value tuples
	for {
		values, err := p.parseValueTuple(stmt)
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, values)
		if p.curTok.Type != lexer.COMMA {
			break
		}
		p.nextToken()
	}

	// Semicolon (Optional)
	switch p.curTok.Type {
	case lexer.SEMICOLON:
		p.nextToken()
	case lexer.EOF, lexer.INSERT:
	default:
		return nil, p.malformed(stmt, "unexpected %s after VALUES", describe(p.curTok))
	}

	return stmt, nil
}

func isInsertName(tok lexer.Token) bool {
	return tok.Type == lexer.IDENTIFIER || tok.Type == lexer.STRING
}

func (p *Parser) parseValueTuple(stmt *ast.InsertStatement) ([]*ast.Literal, error) {
	if p.curTok.Type != lexer.PAREN_OPEN {
		return nil, p.malformed(stmt, "expected ( before values, got %s", describe(p.curTok))
	}
	p.nextToken()

	var values []*ast.Literal
	for {
		lit, err := p.parseValue(stmt)
		if err != nil {
			return nil, err
		}
		values = append(values, lit)
		if p.curTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}
		if p.curTok.Type != lexer.PAREN_CLOSE {
			return nil, p.malformed(stmt, "expected , or ) in value list, got %s", describe(p.curTok))
		}
		p.nextToken()
		return values, nil
	}
}

// parseValue accepts quoted strings, numbers, NULL and bare words, the
// latter kept as text
func (p *Parser) parseValue(stmt *ast.InsertStatement) (*ast.Literal, error) {
	switch p.curTok.Type {
	case lexer.STRING:
		lit := &ast.Literal{Raw: p.curTok.Literal, Value: p.curTok.Literal, Kind: ast.LiteralString}
		p.nextToken()
		return lit, nil
	case lexer.NUMBER:
		lit, err := ast.NewNumberLiteral(p.curTok.Literal)
		if err != nil {
			return nil, p.malformed(stmt, "%v", err)
		}
		p.nextToken()
		return lit, nil
	case lexer.MINUS:
		if p.peekTok.Type != lexer.NUMBER {
			return nil, p.malformed(stmt, "expected number after -, got %s", describe(p.peekTok))
		}
		p.nextToken()
		lit, err := ast.NewNumberLiteral("-" + p.curTok.Literal)
		if err != nil {
			return nil, p.malformed(stmt, "%v", err)
		}
		p.nextToken()
		return lit, nil
	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{Raw: "NULL", Kind: ast.LiteralNull}, nil
	case lexer.IDENTIFIER:
		if p.peekTok.Type == lexer.PAREN_OPEN {
			return nil, p.malformed(stmt, "function call %s(...) is not supported as a value", p.curTok.Literal)
		}
		lit := &ast.Literal{Raw: p.curTok.Literal, Value: p.curTok.Literal, Kind: ast.LiteralString}
		p.nextToken()
		return lit, nil
	}
	return nil, p.malformed(stmt, "expected value, got %s", describe(p.curTok))
}

func (p *Parser) malformed(stmt *ast.InsertStatement, format string, args ...interface{}) error {
	reason := fmt.Sprintf(format, args...)
	if p.curTok.Type == lexer.ILLEGAL {
		reason = fmt.Sprintf("illegal character %q", p.curTok.Literal)
	}
	return &domainerrors.MalformedStatementError{Line: stmt.Line, Reason: reason}
}
