// Package engine is the caller surface of the service: import a table, query
// it, list and drop tables, ask the assistant. Every call takes the owner
// explicitly.
package engine

import (
	"context"
	"log/slog"

	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/importer"
	"github.com/leengari/importq/internal/insights"
	"github.com/leengari/importq/internal/query"
	"github.com/leengari/importq/internal/store"
)

// Engine is the main entry point for imports and queries
type Engine struct {
	store      store.Store
	evaluator  *query.Evaluator
	summarizer insights.Summarizer // nil disables insights
	generator  insights.Generator  // nil disables the assistant
	logger     *slog.Logger
	observers  []Observer // Observers for lifecycle events
}

// Options configure an Engine
type Options struct {
	MaxRows    int                 // cap on rows per query, 0 for none
	Summarizer insights.Summarizer // optional
	Generator  insights.Generator  // optional, backs Assist
	Logger     *slog.Logger        // defaults to slog.Default()
}

// New creates a new Engine over s
func New(s store.Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      s,
		evaluator:  query.NewEvaluator(s, query.WithMaxRows(opts.MaxRows)),
		summarizer: opts.Summarizer,
		generator:  opts.Generator,
		logger:     logger,
		observers:  make([]Observer, 0),
	}
}

// ImportResult describes a freshly imported table
type ImportResult struct {
	TableID  string          `json:"table_id"`
	RowCount int             `json:"row_count"`
	Columns  []schema.Column `json:"columns"`
}

// ImportTable parses raw and stores it as a new table named tableName.
// The table is created together with all its rows or not at all.
func (e *Engine) ImportTable(ctx context.Context, owner, tableName string, format importer.Format, raw string) (res *ImportResult, err error) {
	req := newRequest(owner)

	start := req.event(EventImportStart)
	start.Format = string(format)
	start.Data = tableName
	e.notify(start)
	defer func() {
		rows := 0
		if res != nil {
			rows = res.RowCount
		}
		end := req.endEvent(EventImportEnd, rows, err)
		end.Format = string(format)
		end.Data = tableName
		e.notify(end)
	}()

	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	parsed, err := importer.Import(format, raw)
	if err != nil {
		return nil, err
	}

	columns := schema.NewColumns(parsed.Columns, parsed.Inferred)
	tableID, err := e.store.CreateTableWithRows(ctx, owner, tableName, columns, parsed.Rows)
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		TableID:  tableID,
		RowCount: len(parsed.Rows),
		Columns:  columns,
	}, nil
}

// QueryResult is what a caller receives for a successful query
type QueryResult struct {
	Rows      []data.Row
	RowCount  int
	Columns   []string
	Truncated bool
	Insights  string // empty when not requested or unavailable
}

// RunQuery evaluates queryText against owner's tables. With withInsights
// set and a summarizer configured, a non-empty result is also summarized;
// a summarizer failure never fails the query.
func (e *Engine) RunQuery(ctx context.Context, owner, queryText string, withInsights bool) (res *QueryResult, err error) {
	req := newRequest(owner)

	start := req.event(EventQueryStart)
	start.Data = queryText
	e.notify(start)

	var evaluated *query.Result
	if err = validateOwner(owner); err == nil {
		evaluated, err = e.evaluator.Evaluate(ctx, owner, queryText)
	}

	rows := 0
	if evaluated != nil {
		rows = evaluated.RowCount
	}
	end := req.endEvent(EventQueryEnd, rows, err)
	end.Data = queryText
	e.notify(end)

	if err != nil {
		return nil, err
	}

	res = &QueryResult{
		Rows:      evaluated.Rows,
		RowCount:  evaluated.RowCount,
		Columns:   evaluated.Columns,
		Truncated: evaluated.Truncated,
	}

	if withInsights && e.summarizer != nil && res.RowCount > 0 {
		res.Insights = e.summarize(ctx, req, queryText, res.Rows)
	}
	return res, nil
}

func (e *Engine) summarize(ctx context.Context, req *request, queryText string, rows []data.Row) string {
	text, err := e.summarizer.Summarize(ctx, queryText, rows)

	ev := req.event(EventInsights)
	ev.Err = err
	e.notify(ev)

	if err != nil {
		return ""
	}
	return text
}

// ListTables returns owner's tables ordered by name
func (e *Engine) ListTables(ctx context.Context, owner string) ([]*schema.TableMeta, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	return e.store.ListTables(ctx, owner)
}

// DropTable removes owner's table and its rows
func (e *Engine) DropTable(ctx context.Context, owner, tableName string) error {
	req := newRequest(owner)
	err := validateOwner(owner)
	if err == nil {
		err = e.store.DropTable(ctx, owner, tableName)
	}

	ev := req.event(EventTableDrop)
	ev.Data = tableName
	ev.Err = err
	e.notify(ev)

	return err
}
