package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for detection ingestion.
type IngestMetrics struct {
	ingestsTotal   *prometheus.CounterVec
	itemsTotal     *prometheus.CounterVec
	itemsPerIngest prometheus.Histogram
	imageSize      prometheus.Histogram
	alertsTotal    prometheus.Counter
}

// NewIngestMetrics creates and registers the ingest metrics.
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{
		ingestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_requests_total",
				Help: "Total number of ingest requests by outcome",
			},
			[]string{"outcome"},
		),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_items_total",
				Help: "Total number of classified items by disposal category",
			},
			[]string{"disposal_category"},
		),
		itemsPerIngest: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_items_per_detection",
			Help:    "Number of items found per stored detection",
			Buckets: prometheus.ExponentialBuckets(1, BucketFactor2, BucketCount8),
		}),
		imageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_image_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: prometheus.ExponentialBuckets(BucketStart64B*1024, BucketFactor2, BucketCount10),
		}),
		alertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_hotspot_alerts_total",
			Help: "Total number of hotspot threshold crossings",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register ingest metrics: %w", err)
	}
	return m, nil
}

func (m *IngestMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.ingestsTotal, m.itemsTotal, m.itemsPerIngest, m.imageSize, m.alertsTotal}
}

// Describe implements the Collector interface.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// RecordIngest counts one ingest request. Items are only observed for stored detections.
func (m *IngestMetrics) RecordIngest(outcome string, items int) {
	m.ingestsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeStored {
		m.itemsPerIngest.Observe(float64(items))
	}
}

// RecordItem counts one classified item.
func (m *IngestMetrics) RecordItem(disposalCategory string) {
	m.itemsTotal.WithLabelValues(disposalCategory).Inc()
}

// ObserveImageSize records the size of an uploaded image.
func (m *IngestMetrics) ObserveImageSize(sizeBytes int) {
	m.imageSize.Observe(float64(sizeBytes))
}

// RecordAlert counts a hotspot threshold crossing.
func (m *IngestMetrics) RecordAlert() {
	m.alertsTotal.Inc()
}
