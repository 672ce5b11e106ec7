// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "importq"

// Metrics groups every collector. Each instance owns its registry so tests
// and multiple engines never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	importCounter    *prometheus.CounterVec
	importedRows     *prometheus.CounterVec
	queryCounter     *prometheus.CounterVec
	queryHistogram   prometheus.Histogram
	resultRows       prometheus.Histogram
	errorCounter     *prometheus.CounterVec
	insightsCounter  *prometheus.CounterVec
	assistCounter    *prometheus.CounterVec
	tableDropCounter prometheus.Counter
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		importCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "total",
				Help:      "Total imports by format and result.",
			}, []string{"format", "result"}),

		importedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "rows_total",
				Help:      "Total rows stored by successful imports.",
			}, []string{"format"}),

		queryCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "total",
				Help:      "Total queries by result.",
			}, []string{"result"}),

		queryHistogram: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Bucketed histogram of query evaluation time (s).",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 18),
			}),

		resultRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "result_rows",
				Help:      "Bucketed histogram of rows returned per query.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			}),

		errorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total failed operations by error kind and name.",
			}, []string{"kind", "name"}),

		insightsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "insights",
				Name:      "total",
				Help:      "Total insight requests by result.",
			}, []string{"result"}),

		assistCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "assistant",
				Name:      "total",
				Help:      "Total assistant requests by mode and result.",
			}, []string{"mode", "result"}),

		tableDropCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "tables_dropped_total",
				Help:      "Total tables dropped.",
			}),
	}

	m.Registry.MustRegister(
		m.importCounter,
		m.importedRows,
		m.queryCounter,
		m.queryHistogram,
		m.resultRows,
		m.errorCounter,
		m.insightsCounter,
		m.assistCounter,
		m.tableDropCounter,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(failed bool) string {
	if failed {
		return "failed"
	}
	return "success"
}

// ObserveImport records one import attempt
func (m *Metrics) ObserveImport(format string, rows int, failed bool) {
	m.importCounter.WithLabelValues(format, result(failed)).Inc()
	if !failed {
		m.importedRows.WithLabelValues(format).Add(float64(rows))
	}
}

// ObserveQuery records one query evaluation
func (m *Metrics) ObserveQuery(d time.Duration, rows int, failed bool) {
	m.queryCounter.WithLabelValues(result(failed)).Inc()
	m.queryHistogram.Observe(d.Seconds())
	if !failed {
		m.resultRows.Observe(float64(rows))
	}
}

// ObserveError counts a failure by kind and name
func (m *Metrics) ObserveError(kind, name string) {
	m.errorCounter.WithLabelValues(kind, name).Inc()
}

// ObserveInsights records a summarizer call
func (m *Metrics) ObserveInsights(failed bool) {
	m.insightsCounter.WithLabelValues(result(failed)).Inc()
}

// ObserveAssist records one assistant request
func (m *Metrics) ObserveAssist(mode string, failed bool) {
	m.assistCounter.WithLabelValues(mode, result(failed)).Inc()
}

// ObserveDrop counts a dropped table
func (m *Metrics) ObserveDrop() {
	m.tableDropCounter.Inc()
}
