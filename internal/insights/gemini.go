package insights

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/leengari/importq/internal/domain/data"
)

// Gemini summarizes results and answers assistant prompts through Google's
// Gemini API
type Gemini struct {
	client     *genai.Client
	model      string
	sampleRows int
}

// NewGemini creates a Gemini summarizer
func NewGemini(ctx context.Context, apiKey, model string, sampleRows int) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{client: client, model: model, sampleRows: sampleRows}, nil
}

var (
	_ Summarizer = (*Gemini)(nil)
	_ Generator  = (*Gemini)(nil)
)

// Summarize implements Summarizer
func (g *Gemini) Summarize(ctx context.Context, query string, rows []data.Row) (string, error) {
	prompt, err := BuildPrompt(query, rows, g.sampleRows)
	if err != nil {
		return "", err
	}
	return g.Generate(ctx, prompt)
}

// Generate implements Generator
func (g *Gemini) Generate(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt.User),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no text returned")
	}
	return text, nil
}
