// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the search API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics instruments one ingestion run and the search path. All
// observe methods are nil-receiver safe so wiring metrics stays optional.
type PipelineMetrics struct {
	messagesCollected prometheus.Counter
	messagesFiltered  prometheus.Counter
	classified        *prometheus.CounterVec
	classifyRetries   prometheus.Counter
	rateLimitHits     prometheus.Counter
	rowsPersisted     *prometheus.CounterVec
	modelLatency      prometheus.Histogram
	searches          *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		messagesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opskb_messages_collected_total",
			Help: "Messages kept after filtering, per run.",
		}),
		messagesFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opskb_messages_filtered_total",
			Help: "Raw messages dropped by the content filter.",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opskb_messages_classified_total",
			Help: "Classification outcomes by status.",
		}, []string{"status"}),
		classifyRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opskb_classify_retries_total",
			Help: "Model call retries during classification.",
		}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opskb_slack_rate_limit_hits_total",
			Help: "Rate-limited responses observed while collecting.",
		}),
		rowsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opskb_rows_persisted_total",
			Help: "Archive rows written, by status.",
		}, []string{"status"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "opskb_model_latency_seconds",
			Help:    "Latency of model completions.",
			Buckets: prometheus.DefBuckets,
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opskb_searches_total",
			Help: "Search requests by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.messagesCollected,
			m.messagesFiltered,
			m.classified,
			m.classifyRetries,
			m.rateLimitHits,
			m.rowsPersisted,
			m.modelLatency,
			m.searches,
		)
	}
	return m
}

func (m *PipelineMetrics) ObserveCollected(kept, dropped int) {
	if m == nil {
		return
	}
	m.messagesCollected.Add(float64(kept))
	m.messagesFiltered.Add(float64(dropped))
}

func (m *PipelineMetrics) ObserveClassified(succeeded, failed int) {
	if m == nil {
		return
	}
	m.classified.WithLabelValues("ok").Add(float64(succeeded))
	m.classified.WithLabelValues("fallback").Add(float64(failed))
}

func (m *PipelineMetrics) ObserveClassifyRetries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.classifyRetries.Add(float64(n))
}

func (m *PipelineMetrics) ObserveRateLimits(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rateLimitHits.Add(float64(n))
}

func (m *PipelineMetrics) ObservePersisted(written, failed int) {
	if m == nil {
		return
	}
	m.rowsPersisted.WithLabelValues("ok").Add(float64(written))
	m.rowsPersisted.WithLabelValues("failed").Add(float64(failed))
}

func (m *PipelineMetrics) ObserveModelLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(d.Seconds())
}

func (m *PipelineMetrics) ObserveSearch(outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
}
