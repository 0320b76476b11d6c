package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilReceiverIsSafe(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.ObserveCollected(10, 3)
		m.ObserveClassified(9, 1)
		m.ObserveClassifyRetries(2)
		m.ObserveRateLimits(2)
		m.ObservePersisted(9, 0)
		m.ObserveModelLatency(time.Second)
		m.ObserveSearch("found")
	})
}

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveCollected(10, 3)
	m.ObserveClassified(9, 1)
	m.ObserveClassifyRetries(3)
	m.ObservePersisted(8, 1)
	m.ObserveSearch("found")
	m.ObserveSearch("no_results")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["opskb_messages_collected_total"])
	assert.True(t, names["opskb_messages_classified_total"])
	assert.True(t, names["opskb_classify_retries_total"])
	assert.True(t, names["opskb_rows_persisted_total"])
	assert.True(t, names["opskb_searches_total"])
}

func TestDoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPipelineMetrics(reg)
	assert.Panics(t, func() { NewPipelineMetrics(reg) })
}
