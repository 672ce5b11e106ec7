package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
)

// LoggingObserver logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer. A nil logger means
// slog.Default().
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	attrs := []any{
		"event", event.Type,
		"request_id", event.RequestID,
		"owner", event.Owner,
	}
	if event.Data != nil {
		attrs = append(attrs, "data", event.Data)
	}
	if event.Format != "" {
		attrs = append(attrs, "format", event.Format)
	}

	switch event.Type {
	case EventImportEnd, EventQueryEnd, EventAssist:
		attrs = append(attrs,
			"duration", event.Duration,
			"rows", humanize.Comma(int64(event.Rows)),
		)
	}

	if event.Err != nil {
		attrs = append(attrs, "error", event.Err, "error_kind", domainerrors.KindOf(event.Err))
		// Caller mistakes are expected; only internal failures are errors
		if domainerrors.KindOf(event.Err) == domainerrors.KindInternal {
			lo.logger.Error("request_lifecycle", attrs...)
		} else {
			lo.logger.Warn("request_lifecycle", attrs...)
		}
		return
	}

	lo.logger.Info("request_lifecycle", attrs...)
}
