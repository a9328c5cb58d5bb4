package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CollaboratorMetrics tracks calls to the external AI collaborators.
type CollaboratorMetrics struct {
	callsTotal     *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	fallbacksTotal *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

// NewCollaboratorMetrics creates and registers the collaborator metrics.
func NewCollaboratorMetrics(registry *prometheus.Registry) (*CollaboratorMetrics, error) {
	m := &CollaboratorMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaborator_calls_total",
				Help: "Total number of calls to external collaborators",
			},
			[]string{"collaborator", "provider", "status"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collaborator_call_duration_seconds",
				Help:    "Latency of external collaborator calls",
				Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount14),
			},
			[]string{"collaborator", "provider"},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaborator_fallbacks_total",
				Help: "Total number of times a local fallback replaced a collaborator result",
			},
			[]string{"collaborator"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collaborator_cache_lookups_total",
				Help: "Narrative cache lookups by result",
			},
			[]string{"result"},
		),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register collaborator metrics: %w", err)
	}
	return m, nil
}

func (m *CollaboratorMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.callsTotal, m.callDuration, m.fallbacksTotal, m.cacheLookups}
}

// Describe implements the Collector interface.
func (m *CollaboratorMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface.
func (m *CollaboratorMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordCall records the outcome and latency of one collaborator call.
func (m *CollaboratorMetrics) RecordCall(collaborator, provider string, duration time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.callsTotal.WithLabelValues(collaborator, provider, status).Inc()
	m.callDuration.WithLabelValues(collaborator, provider).Observe(duration.Seconds())
}

// RecordFallback counts a degraded result.
func (m *CollaboratorMetrics) RecordFallback(collaborator string) {
	m.fallbacksTotal.WithLabelValues(collaborator).Inc()
}

// RecordCacheLookup counts a narrative cache hit or miss.
func (m *CollaboratorMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
