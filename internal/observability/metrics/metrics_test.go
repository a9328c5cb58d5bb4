package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatastoreMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewDatastoreMetrics(registry)
	require.NoError(t, err)

	m.SetCapacity(100)
	m.SetRecordsHeld(42)
	m.RecordEvictions(2)
	m.RecordEvictions(0)
	m.RecordOperation(OpAppend, StatusSuccess)
	m.RecordOperation(OpAppend, StatusSuccess)
	m.RecordPersist("json", 42, 3*time.Millisecond, nil)
	m.RecordPersist("json", 42, 3*time.Millisecond, errors.New("disk full"))

	assert.InDelta(t, 42, m.GetRecordsHeld(), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(m.capacity), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.evictionsTotal), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpAppend, StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.persistErrors.WithLabelValues("json")), 0)

	_, err = NewDatastoreMetrics(registry)
	require.Error(t, err, "duplicate registration must fail")
}

func TestIngestMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewIngestMetrics(registry)
	require.NoError(t, err)

	m.RecordIngest(OutcomeStored, 3)
	m.RecordIngest(OutcomeEmpty, 0)
	m.RecordIngest(OutcomeEmpty, 0)
	m.RecordItem("recyclable")
	m.ObserveImageSize(200_000)
	m.RecordAlert()

	assert.InDelta(t, 1, testutil.ToFloat64(m.ingestsTotal.WithLabelValues(OutcomeStored)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ingestsTotal.WithLabelValues(OutcomeEmpty)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.itemsTotal.WithLabelValues("recyclable")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.alertsTotal), 0)
}

func TestCollaboratorMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m, err := NewCollaboratorMetrics(registry)
	require.NoError(t, err)

	m.RecordCall(CollaboratorClassifier, "gemini", time.Second, nil)
	m.RecordCall(CollaboratorNarrative, "anthropic", time.Second, errors.New("timeout"))
	m.RecordFallback(CollaboratorNarrative)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.callsTotal.WithLabelValues(CollaboratorClassifier, "gemini", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.callsTotal.WithLabelValues(CollaboratorNarrative, "anthropic", StatusError)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fallbacksTotal.WithLabelValues(CollaboratorNarrative)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")), 0)
}

func TestHTTPMQTTAndNotificationMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	httpMetrics, err := NewHTTPMetrics(registry)
	require.NoError(t, err)
	mqttMetrics, err := NewMQTTMetrics(registry)
	require.NoError(t, err)
	notifyMetrics, err := NewNotificationMetrics(registry)
	require.NoError(t, err)

	httpMetrics.RecordHTTPRequest("GET", "/api/v2/stats", 200, 0.01)
	httpMetrics.RecordHTTPRequestError("POST", "/api/v2/upload", "validation")
	assert.InDelta(t, 1, testutil.ToFloat64(httpMetrics.httpRequestsTotal.WithLabelValues("GET", "/api/v2/stats", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(httpMetrics.httpRequestErrors.WithLabelValues("POST", "/api/v2/upload", "validation")), 0)

	mqttMetrics.UpdateConnectionStatus(true)
	mqttMetrics.IncrementMessagesDelivered()
	mqttMetrics.IncrementErrors("publish")
	mqttMetrics.ObserveMessageSize(180)
	mqttMetrics.StartPublishTimer().ObserveDuration()
	assert.InDelta(t, 1, testutil.ToFloat64(mqttMetrics.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(mqttMetrics.Errors.WithLabelValues("publish")), 0)
	mqttMetrics.UpdateConnectionStatus(false)
	assert.InDelta(t, 0, testutil.ToFloat64(mqttMetrics.ConnectionStatus), 0)

	notifyMetrics.RecordDelivery("generic", 10*time.Millisecond, nil)
	notifyMetrics.RecordDelivery("generic", 10*time.Millisecond, errors.New("refused"))
	assert.InDelta(t, 1, testutil.ToFloat64(notifyMetrics.deliveriesTotal.WithLabelValues("generic", StatusError)), 0)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
