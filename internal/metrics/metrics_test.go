package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveImport(t *testing.T) {
	m := New()

	m.ObserveImport("delimited-text", 3, false)
	m.ObserveImport("delimited-text", 0, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.importCounter.WithLabelValues("delimited-text", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importCounter.WithLabelValues("delimited-text", "failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importedRows.WithLabelValues("delimited-text")))
}

func TestObserveQueryAndErrors(t *testing.T) {
	m := New()

	m.ObserveQuery(2*time.Millisecond, 5, false)
	m.ObserveQuery(time.Millisecond, 0, true)
	m.ObserveError("store", "table_not_found")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryCounter.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryCounter.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorCounter.WithLabelValues("store", "table_not_found")))
}

func TestRegistryGathers(t *testing.T) {
	m := New()
	m.ObserveDrop()
	m.ObserveInsights(false)
	m.ObserveAssist("generate", false)

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["importq_store_tables_dropped_total"])
	assert.True(t, names["importq_insights_total"])
	assert.True(t, names["importq_assistant_total"])
	assert.True(t, names["go_goroutines"])
}

func TestObserveAssist(t *testing.T) {
	m := New()

	m.ObserveAssist("generate", false)
	m.ObserveAssist("generate", true)
	m.ObserveAssist("explain", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.assistCounter.WithLabelValues("generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assistCounter.WithLabelValues("generate", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.assistCounter.WithLabelValues("explain", "success")))
}
