package lexer

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENTIFIER // table_name, column_name, `quoted name`
	STRING     // 'value' or "value"
	NUMBER     // 123, 1.23, 1e3

	// Keywords
	SELECT
	FROM
	WHERE
	INSERT
	INTO
	VALUES
	AND
	OR
	NOT
	NULL
	ORDER
	BY
	ASC
	DESC
	LIMIT
	LIKE
	IN
	BETWEEN
	IS

	// Operators & Punctuation
	ASTERISK      // *
	COMMA         // ,
	DOT           // .
	PAREN_OPEN    // (
	PAREN_CLOSE   // )
	EQUALS        // =
	NOT_EQUAL     // != or <>
	LESS_THAN     // <
	LESS_EQUAL    // <=
	GREATER_THAN  // >
	GREATER_EQUAL // >=
	MINUS         // -
	SEMICOLON     // ;
)

var keywords = map[string]TokenType{
	"SELECT":  SELECT,
	"FROM":    FROM,
	"WHERE":   WHERE,
	"INSERT":  INSERT,
	"INTO":    INTO,
	"VALUES":  VALUES,
	"AND":     AND,
	"OR":      OR,
	"NOT":     NOT,
	"NULL":    NULL,
	"ORDER":   ORDER,
	"BY":      BY,
	"ASC":     ASC,
	"DESC":    DESC,
	"LIMIT":   LIMIT,
	"LIKE":    LIKE,
	"IN":      IN,
	"BETWEEN": BETWEEN,
	"IS":      IS,
}

var names = map[TokenType]string{
	ILLEGAL:       "ILLEGAL",
	EOF:           "end of input",
	IDENTIFIER:    "identifier",
	STRING:        "string",
	NUMBER:        "number",
	ASTERISK:      "*",
	COMMA:         ",",
	DOT:           ".",
	PAREN_OPEN:    "(",
	PAREN_CLOSE:   ")",
	EQUALS:        "=",
	NOT_EQUAL:     "!=",
	LESS_THAN:     "<",
	LESS_EQUAL:    "<=",
	GREATER_THAN:  ">",
	GREATER_EQUAL: ">=",
	MINUS:         "-",
	SEMICOLON:     ";",
}

func init() {
	for word, tt := range keywords {
		names[tt] = word
	}
}

func (t TokenType) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether t is a reserved word
func (t TokenType) IsKeyword() bool {
	return t >= SELECT && t <= IS
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int // byte offset of the token's first character
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%s, %q)", t.Type, t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition += 1
	l.column++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespaceAndComments()

	line, col, offset := l.line, l.column, l.position

	switch l.ch {
	case '*':
		tok = newToken(ASTERISK, l.ch)
	case ',':
		tok = newToken(COMMA, l.ch)
	case '.':
		tok = newToken(DOT, l.ch)
	case '(':
		tok = newToken(PAREN_OPEN, l.ch)
	case ')':
		tok = newToken(PAREN_CLOSE, l.ch)
	case '=':
		tok = newToken(EQUALS, l.ch)
	case ';':
		tok = newToken(SEMICOLON, l.ch)
	case '-':
		tok = newToken(MINUS, l.ch)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: NOT_EQUAL, Literal: "!="}
		} else {
			tok = newToken(ILLEGAL, l.ch)
		}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: LESS_EQUAL, Literal: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: NOT_EQUAL, Literal: "<>"}
		default:
			tok = newToken(LESS_THAN, l.ch)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: GREATER_EQUAL, Literal: ">="}
		} else {
			tok = newToken(GREATER_THAN, l.ch)
		}
	case '\'', '"':
		lit, ok := l.readQuoted(l.ch)
		tok = Token{Type: STRING, Literal: lit}
		if !ok {
			tok.Type = ILLEGAL
		}
		return at(tok, line, col, offset)
	case '`':
		lit, ok := l.readQuoted('`')
		tok = Token{Type: IDENTIFIER, Literal: lit}
		if !ok {
			tok.Type = ILLEGAL
		}
		return at(tok, line, col, offset)
	case 0:
		return at(Token{Type: EOF}, line, col, offset)
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			return at(Token{Type: LookupIdent(lit), Literal: lit}, line, col, offset)
		} else if isDigit(l.ch) {
			return at(Token{Type: NUMBER, Literal: l.readNumber()}, line, col, offset)
		}
		tok = newToken(ILLEGAL, l.ch)
	}

	l.readChar()
	return at(tok, line, col, offset)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			if l.ch == '\n' {
				l.line++
				l.column = 0
			}
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			// line comment, as found in SQL dumps
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
				if l.ch == '\n' {
					l.line++
					l.column = 0
				}
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1])) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[position:l.position]
}

// readQuoted reads a literal enclosed in quote. A doubled quote inside the
// literal stands for one quote character; a backslash escapes the next byte.
// ok is false when the input ends before the closing quote.
func (l *Lexer) readQuoted(quote byte) (string, bool) {
	var sb strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case 0:
			return sb.String(), false
		case '\\':
			if quote != '`' && l.peekChar() != 0 {
				l.readChar()
				sb.WriteByte(l.ch)
				continue
			}
			sb.WriteByte(l.ch)
		case quote:
			if l.peekChar() == quote {
				l.readChar()
				sb.WriteByte(quote)
				continue
			}
			l.readChar()
			return sb.String(), true
		case '\n':
			l.line++
			l.column = 0
			sb.WriteByte(l.ch)
		default:
			sb.WriteByte(l.ch)
		}
	}
}

func newToken(tokenType TokenType, ch byte) Token {
	return Token{Type: tokenType, Literal: string(ch)}
}

func at(tok Token, line, col, offset int) Token {
	tok.Line = line
	tok.Column = col
	tok.Offset = offset
	return tok
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToUpper(ident)]; ok {
		return tok
	}
	return IDENTIFIER
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// IllegalError reports the first token the lexer could not recognize
type IllegalError struct {
	Token Token
}

func (e *IllegalError) Error() string {
	return fmt.Sprintf("illegal token at line %d, col %d: %s", e.Token.Line, e.Token.Column, e.Token.Literal)
}

// Tokenize lexes the entire input at once. The returned slice does not
// include the trailing EOF token.
func Tokenize(input string) ([]Token, error) {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == ILLEGAL {
			return nil, &IllegalError{Token: tok}
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// All lexes the entire input, keeping ILLEGAL tokens in place so the caller
// can decide which of them matter. The last token is always EOF.
func All(input string) []Token {
	l := New(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens
		}
	}
}
