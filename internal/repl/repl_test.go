package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/importer"
	"github.com/leengari/importq/internal/insights"
	"github.com/leengari/importq/internal/store"
)

// cannedGenerator always answers with the same query
type cannedGenerator string

func (g cannedGenerator) Generate(ctx context.Context, prompt insights.Prompt) (string, error) {
	return string(g), nil
}

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(store.NewMemory(), engine.Options{
		Generator: cannedGenerator("```sql\nSELECT title FROM movies WHERE id = 1\n```"),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	_, err := eng.ImportTable(context.Background(), "U", "movies", importer.FormatDelimited,
		"id,title,rating\n1,Inception,8.8\n2,Up,")
	require.NoError(t, err)
	return eng
}

func TestSession(t *testing.T) {
	eng := newEngine(t)
	in := strings.NewReader("\\dt\n\nSELECT title, rating FROM movies WHERE id = 2\nSELECT * FROM nope\n\\d movies\n\\q\nSELECT * FROM movies\n")
	var out bytes.Buffer

	require.NoError(t, Start(context.Background(), eng, "U", in, &out))

	s := out.String()
	assert.Contains(t, s, "movies")
	assert.Contains(t, s, "Up")
	assert.Contains(t, s, "NULL")
	assert.Contains(t, s, "(1 row)")
	assert.Contains(t, s, `Error: table "nope" not found`)
	assert.Contains(t, s, "inferred")
	// Nothing after \q runs
	assert.NotContains(t, s, "Inception")
}

func TestSessionEndsOnEOF(t *testing.T) {
	eng := newEngine(t)
	var out bytes.Buffer

	require.NoError(t, Start(context.Background(), eng, "U", strings.NewReader("SELECT id FROM movies"), &out))
	assert.Contains(t, out.String(), "(2 rows)")
}

func TestSessionAsk(t *testing.T) {
	eng := newEngine(t)
	var out bytes.Buffer

	require.NoError(t, Start(context.Background(), eng, "U", strings.NewReader("\\ask title of movie one\n"), &out))
	s := out.String()
	assert.Contains(t, s, "SELECT title FROM movies WHERE id = 1")
	assert.Contains(t, s, "Inception")
	assert.Contains(t, s, "(1 row)")
}

func TestPrintAssist(t *testing.T) {
	var out bytes.Buffer
	PrintAssist(&out, &engine.AssistResult{Response: "Use ORDER BY."})
	assert.Equal(t, "Use ORDER BY.\n", out.String())

	out.Reset()
	PrintAssist(&out, &engine.AssistResult{SQL: "SELECT * FROM t WHERE a > 1", RunErr: errors.New("unsupported predicate")})
	assert.Equal(t, "SELECT * FROM t WHERE a > 1\nError: unsupported predicate\n", out.String())
}

func TestPrintResult(t *testing.T) {
	var out bytes.Buffer
	PrintResult(&out, &engine.QueryResult{
		Columns:   []string{"id", "name"},
		Rows:      []data.Row{{"id": float64(1), "name": "a"}, {"id": float64(1500)}},
		RowCount:  2,
		Truncated: true,
		Insights:  "Mostly ones.",
	})

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "id    name", strings.TrimRight(lines[0], " "))
	assert.Equal(t, "1500  NULL", strings.TrimRight(lines[3], " "))
	assert.Contains(t, out.String(), "(2 rows, truncated)")
	assert.Contains(t, out.String(), "Mostly ones.")
}

func TestPrintTablesEmpty(t *testing.T) {
	var out bytes.Buffer
	PrintTables(&out, nil)
	assert.Equal(t, "No tables.\n", out.String())
}
