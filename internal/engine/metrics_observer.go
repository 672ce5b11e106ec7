package engine

import (
	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/metrics"
)

// MetricsObserver feeds lifecycle events into Prometheus collectors
type MetricsObserver struct {
	m *metrics.Metrics
}

// NewMetricsObserver creates an observer recording into m
func NewMetricsObserver(m *metrics.Metrics) *MetricsObserver {
	return &MetricsObserver{m: m}
}

// OnEvent implements the Observer interface
func (mo *MetricsObserver) OnEvent(event Event) {
	failed := event.Err != nil

	switch event.Type {
	case EventImportEnd:
		mo.m.ObserveImport(event.Format, event.Rows, failed)
	case EventQueryEnd:
		mo.m.ObserveQuery(event.Duration, event.Rows, failed)
	case EventInsights:
		mo.m.ObserveInsights(failed)
	case EventAssist:
		mode, _ := event.Data.(string)
		mo.m.ObserveAssist(mode, failed)
	case EventTableDrop:
		if !failed {
			mo.m.ObserveDrop()
		}
	default:
		return
	}

	if failed {
		mo.m.ObserveError(string(domainerrors.KindOf(event.Err)), domainerrors.Name(event.Err))
	}
}
