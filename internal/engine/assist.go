package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leengari/importq/internal/assistant"
	domainerrors "github.com/leengari/importq/internal/domain/errors"
)

// AssistResult is the assistant's answer. For generate requests SQL holds
// the extracted query and, when it was run, Result or RunErr its outcome.
type AssistResult struct {
	Mode     assistant.Mode
	Response string
	SQL      string
	Result   *QueryResult
	RunErr   error
}

// Assist asks the configured model about owner's tables. With run set, a
// query extracted from a generate answer is evaluated too; its failure is
// reported in RunErr and does not fail the call.
func (e *Engine) Assist(ctx context.Context, owner string, mode assistant.Mode, message string, run bool) (res *AssistResult, err error) {
	req := newRequest(owner)
	defer func() {
		ev := req.endEvent(EventAssist, 0, err)
		ev.Data = string(mode)
		if res != nil && res.Result != nil {
			ev.Rows = res.Result.RowCount
		}
		e.notify(ev)
	}()

	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if e.generator == nil {
		return nil, &domainerrors.AssistantUnavailableError{}
	}
	if strings.TrimSpace(message) == "" {
		return nil, &domainerrors.EmptyInputError{Format: "assistant"}
	}

	tables, err := e.store.ListTables(ctx, owner)
	if err != nil {
		return nil, err
	}
	prompt, err := assistant.BuildPrompt(mode, message, tables)
	if err != nil {
		return nil, err
	}

	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	res = &AssistResult{Mode: mode, Response: text}
	if mode != assistant.ModeGenerate {
		return res, nil
	}

	res.SQL = assistant.ExtractSQL(text)
	if run && res.SQL != "" {
		res.Result, res.RunErr = e.RunQuery(ctx, owner, res.SQL, false)
		if res.RunErr != nil {
			e.logger.Debug("generated query failed",
				slog.String("request_id", req.ID),
				slog.String("sql", res.SQL),
				slog.Any("error", res.RunErr),
			)
		}
	}
	return res, nil
}
