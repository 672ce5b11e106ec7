package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/domain/schema"
)

func tables() []*schema.TableMeta {
	return []*schema.TableMeta{{
		Name:     "movies",
		RowCount: 3,
		Columns:  schema.NewColumns([]string{"id", "title"}, []string{"number", "text"}),
	}}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeChat},
		{"chat", ModeChat},
		{" Generate ", ModeGenerate},
		{"EXPLAIN", ModeExplain},
		{"optimize", ModeOptimize},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseMode("poem")
	var invalid *domainerrors.InvalidAssistModeError
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestBuildPromptGenerateCarriesSchema(t *testing.T) {
	p, err := BuildPrompt(ModeGenerate, "  titles of every movie \n", tables())
	require.NoError(t, err)

	assert.Contains(t, p.System, "Generate SQL queries based on natural language requests")
	assert.Contains(t, p.System, `"table": "movies"`)
	assert.Contains(t, p.System, `"inferred_type": "number"`)
	assert.Contains(t, p.System, `"row_count": 3`)
	assert.Contains(t, p.System, "at most one <column> = <literal> condition")
	assert.Equal(t, "titles of every movie", p.User)
}

func TestBuildPromptModes(t *testing.T) {
	chat, err := BuildPrompt(ModeChat, "what is in movies?", tables())
	require.NoError(t, err)
	assert.Contains(t, chat.System, "helpful SQL assistant")
	assert.Contains(t, chat.System, `"table": "movies"`)

	explain, err := BuildPrompt(ModeExplain, "SELECT * FROM movies", tables())
	require.NoError(t, err)
	assert.Contains(t, explain.System, "Explain SQL queries")
	assert.NotContains(t, explain.System, "movies")

	optimize, err := BuildPrompt(ModeOptimize, "SELECT * FROM movies", nil)
	require.NoError(t, err)
	assert.Contains(t, optimize.System, "Index suggestions")

	_, err = BuildPrompt(Mode("poem"), "x", nil)
	var invalid *domainerrors.InvalidAssistModeError
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestBuildPromptNoTables(t *testing.T) {
	p, err := BuildPrompt(ModeGenerate, "anything", nil)
	require.NoError(t, err)
	assert.Contains(t, p.System, "Database Schema:\n[]")
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"sql fence", "Here you go:\n```sql\nSELECT title FROM movies WHERE id = 1;\n```\nEnjoy.", "SELECT title FROM movies WHERE id = 1;"},
		{"bare fence", "```\nSELECT * FROM movies\n```", "SELECT * FROM movies"},
		{"plain answer", "SELECT id FROM movies ORDER BY id DESC LIMIT 2", "SELECT id FROM movies ORDER BY id DESC LIMIT 2"},
		{"stops at semicolon", "Try select id from movies; then look at the ids.", "select id from movies;"},
		{"stops at blank line", "SELECT *\nFROM movies\n\nThis lists everything.", "SELECT *\nFROM movies"},
		{"none", "Which table do you mean?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSQL(tt.text))
		})
	}
}
