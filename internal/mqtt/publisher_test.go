package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (f *fakeClient) Connect(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool             { return true }
func (f *fakeClient) Disconnect()                   {}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message{topic: topic, payload: payload})
	return f.err
}

func TestPublishDetection(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, "litterscan/")
	assert.Equal(t, "litterscan/detections", p.Topic())

	lat, lon := 40.7128, -74.006
	rec := &detection.Record{
		ID:        "det_1",
		Timestamp: "2024-05-01T10:00:00",
		GPS:       &detection.GPS{Latitude: &lat, Longitude: &lon, LocationName: "Pier 17"},
		Items: []detection.Item{
			{Type: "can"}, {Type: "bottle"}, {Type: "can"},
		},
		DeviceID: "robot-1",
	}
	require.NoError(t, p.PublishDetection(context.Background(), rec))

	require.Len(t, fc.messages, 1)
	assert.Equal(t, "litterscan/detections", fc.messages[0].topic)
	assert.JSONEq(t, `{
		"detection_id": "det_1",
		"timestamp": "2024-05-01T10:00:00",
		"location": "Pier 17",
		"latitude": 40.7128,
		"longitude": -74.006,
		"items_found": 3,
		"types": ["can", "bottle"],
		"device_id": "robot-1"
	}`, string(fc.messages[0].payload))
}

func TestDetectionEventWithoutGPS(t *testing.T) {
	ev := NewDetectionEvent(&detection.Record{ID: "x", Items: []detection.Item{{Type: "bag"}}})
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "latitude")
	assert.Equal(t, detection.UnknownLocation, ev.Location)
}

func TestPublishDetectionPropagatesClientError(t *testing.T) {
	p := NewPublisher(&fakeClient{err: assert.AnError}, "")
	assert.Equal(t, DetectionsSubtopic, p.Topic())
	assert.ErrorIs(t, p.PublishDetection(context.Background(), &detection.Record{ID: "x"}), assert.AnError)
}

func TestNewClientRequiresBroker(t *testing.T) {
	_, err := NewClient(&conf.MQTTSettings{}, nil)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	c, err := NewClient(&conf.MQTTSettings{Broker: "tcp://127.0.0.1:1883", ClientID: "litterscan"}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.(*client).config.ClientID, "litterscan-"))
	assert.False(t, c.IsConnected())
}

func TestConnectRejectsInvalidBroker(t *testing.T) {
	c, err := NewClient(&conf.MQTTSettings{Broker: "::not a url"}, nil)
	require.NoError(t, err)
	err = c.Connect(context.Background())
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestPublishWhenDisconnected(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.NewMQTTMetrics(registry)
	require.NoError(t, err)

	c, err := NewClient(&conf.MQTTSettings{Broker: "tcp://127.0.0.1:1883"}, m)
	require.NoError(t, err)

	err = c.Publish(context.Background(), "t", []byte("{}"))
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("publish")), 1e-9)
	c.Disconnect()
}
