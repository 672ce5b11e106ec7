// Package assistant builds the prompts of the SQL assistant: generating
// queries from a plain-language request, explaining or optimizing a query,
// or answering free-form questions about the caller's tables.
package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/insights"
)

// Mode selects what the assistant is asked to do
type Mode string

const (
	ModeChat     Mode = "chat"
	ModeGenerate Mode = "generate"
	ModeExplain  Mode = "explain"
	ModeOptimize Mode = "optimize"
)

// ParseMode maps user input to a Mode. Empty input means chat.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeChat, nil
	case ModeChat, ModeGenerate, ModeExplain, ModeOptimize:
		return m, nil
	}
	return "", &domainerrors.InvalidAssistModeError{Mode: s}
}

// dialect tells the model which queries importq can run
const dialect = `Dialect:
- Only SELECT <columns|*> FROM <table> is supported, with no joins or functions
- WHERE takes at most one <column> = <literal> condition
- ORDER BY takes one column, optionally ASC or DESC, then an optional LIMIT <n>
- Quote column names that are reserved words with backticks`

// tableSchema is how a table is described to the model
type tableSchema struct {
	Table    string          `json:"table"`
	RowCount int64           `json:"row_count"`
	Columns  []schema.Column `json:"columns"`
}

// BuildPrompt renders the request for mode. tables describes the schema the
// model may refer to.
func BuildPrompt(mode Mode, message string, tables []*schema.TableMeta) (insights.Prompt, error) {
	described := make([]tableSchema, 0, len(tables))
	for _, t := range tables {
		described = append(described, tableSchema{Table: t.Name, RowCount: t.RowCount, Columns: t.Columns})
	}
	b, err := json.MarshalIndent(described, "", "  ")
	if err != nil {
		return insights.Prompt{}, fmt.Errorf("encode schema: %w", err)
	}

	var system string
	switch mode {
	case ModeGenerate:
		system = fmt.Sprintf(`You are an expert SQL assistant. Generate SQL queries based on natural language requests.

Database Schema:
%s

%s

Rules:
- Generate syntactically correct SQL
- Use the exact table and column names from the schema
- Return ONLY the SQL query in a single sql code block, no explanations unless asked
- If the request is unclear, ask clarifying questions`, b, dialect)
	case ModeExplain:
		system = `You are an expert SQL tutor. Explain SQL queries in clear, simple terms.

Break down:
- What the query does
- Each clause's purpose
- Performance considerations
- Potential improvements`
	case ModeOptimize:
		system = `You are a database optimization expert.

Analyze the SQL query and provide:
- Performance issues
- Index suggestions
- Query rewrite recommendations
- Best practices violations`
	case ModeChat:
		system = fmt.Sprintf(`You are a helpful SQL assistant. Help users understand and work with their database.

Database Schema:
%s

%s

You can:
- Generate SQL queries from natural language
- Explain existing queries
- Suggest optimizations
- Diagnose errors
- Provide data insights`, b, dialect)
	default:
		return insights.Prompt{}, &domainerrors.InvalidAssistModeError{Mode: string(mode)}
	}

	return insights.Prompt{System: system, User: strings.TrimSpace(message)}, nil
}

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:sql|SQL)?[ \\t]*\\n(.*?)```")
	selectPattern = regexp.MustCompile(`(?is)\bSELECT\b.*?(?:;|\n\s*\n|$)`)
)

// ExtractSQL returns the first query in a model answer: the body of the
// first code fence, else the first run of text starting at SELECT. It
// returns "" when there is none.
func ExtractSQL(text string) string {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := selectPattern.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}
