// Package metrics provides datastore metrics for observability
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/litterscan/litterscan/internal/logger"
)

// DatastoreMetrics contains Prometheus metrics for the bounded detection store
type DatastoreMetrics struct {
	registry *prometheus.Registry

	recordsHeld      prometheus.Gauge
	capacity         prometheus.Gauge
	evictionsTotal   prometheus.Counter
	operationsTotal  *prometheus.CounterVec
	persistDuration  *prometheus.HistogramVec
	persistErrors    *prometheus.CounterVec
	persistedRecords prometheus.Histogram

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers the store metrics
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.recordsHeld = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_records",
		Help: "Number of detection records currently retained",
	})
	m.capacity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datastore_capacity",
		Help: "Maximum number of detection records retained",
	})
	m.evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datastore_evictions_total",
		Help: "Total number of records evicted to honor the capacity",
	})
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation", "status"},
	)
	m.persistDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datastore_persist_duration_seconds",
			Help:    "Time taken to mirror the store to durable storage",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"backend"},
	)
	m.persistErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_persist_errors_total",
			Help: "Total number of failed durable writes",
		},
		[]string{"backend"},
	)
	m.persistedRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "datastore_persisted_records",
		Help:    "Number of records written per durable save",
		Buckets: prometheus.LinearBuckets(0, 25, 5),
	})

	m.collectors = []prometheus.Collector{
		m.recordsHeld,
		m.capacity,
		m.evictionsTotal,
		m.operationsTotal,
		m.persistDuration,
		m.persistErrors,
		m.persistedRecords,
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// SetRecordsHeld updates the retained record gauge
func (m *DatastoreMetrics) SetRecordsHeld(n int) {
	m.recordsHeld.Set(float64(n))
}

// SetCapacity updates the capacity gauge
func (m *DatastoreMetrics) SetCapacity(n int) {
	m.capacity.Set(float64(n))
}

// RecordEvictions adds n evicted records
func (m *DatastoreMetrics) RecordEvictions(n int) {
	if n > 0 {
		m.evictionsTotal.Add(float64(n))
	}
}

// RecordOperation counts a store operation
func (m *DatastoreMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordPersist records one durable save
func (m *DatastoreMetrics) RecordPersist(backend string, records int, duration time.Duration, err error) {
	m.persistDuration.WithLabelValues(backend).Observe(duration.Seconds())
	m.persistedRecords.Observe(float64(records))
	if err != nil {
		m.persistErrors.WithLabelValues(backend).Inc()
	}
}

// GetRecordsHeld returns the current value of the retained record gauge
func (m *DatastoreMetrics) GetRecordsHeld() float64 {
	metric := &dto.Metric{}
	if err := m.recordsHeld.Write(metric); err != nil {
		getLogger().Warn("failed to read datastore records gauge", logger.Error(err))
		return 0
	}
	if metric.Gauge != nil && metric.Gauge.Value != nil {
		return *metric.Gauge.Value
	}
	return 0
}
