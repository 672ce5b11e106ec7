// Package insights produces a short natural-language reading of a query
// result through an external text-generation model.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leengari/importq/internal/domain/data"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.5-flash"
	// DefaultSampleRows is how many result rows are shown to the model
	DefaultSampleRows = 10

	systemInstruction = "You are a data analyst providing concise insights."
)

// Summarizer turns a query and its result into prose
type Summarizer interface {
	Summarize(ctx context.Context, query string, rows []data.Row) (string, error)
}

// Generator sends one prompt to a text-generation model and returns its
// answer
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the request sent to the model
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the analysis request for query and its rows. At most
// sampleRows rows are included; the total is always stated.
func BuildPrompt(query string, rows []data.Row, sampleRows int) (Prompt, error) {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	sample := rows
	if len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}
	if sample == nil {
		sample = []data.Row{}
	}

	b, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("encode sample rows: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Analyze this SQL query result and provide brief business insights:\n\n")
	fmt.Fprintf(&sb, "Query: %s\n", query)
	fmt.Fprintf(&sb, "Result: %s", b)
	if len(rows) > len(sample) {
		fmt.Fprintf(&sb, " ... (%d total rows)", len(rows))
	}
	sb.WriteString("\n\nProvide 2-3 key insights in plain English.")

	return Prompt{System: systemInstruction, User: sb.String()}, nil
}
