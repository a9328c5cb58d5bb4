package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	m.Datastore.SetRecordsHeld(7)
	m.Ingest.RecordIngest("stored", 2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "datastore_records 7")
	assert.Contains(t, string(body), `ingest_requests_total{outcome="stored"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewEndpointRequiresEnabledTelemetry(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)

	_, err = NewEndpoint(conf.TelemetrySettings{Enabled: false, Listen: "127.0.0.1:0"}, m)
	require.Error(t, err)

	_, err = NewEndpoint(conf.TelemetrySettings{Enabled: true, Listen: "127.0.0.1:0"}, nil)
	require.Error(t, err)
}

func TestEndpointRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	m, err := NewMetrics()
	require.NoError(t, err)
	e, err := NewEndpoint(conf.TelemetrySettings{Enabled: true, Listen: "127.0.0.1:0"}, m)
	require.NoError(t, err)
	assert.Same(t, m, e.GetMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("endpoint did not stop")
	}
}
