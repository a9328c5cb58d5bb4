package ingest

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubClassifier struct {
	items []detection.Item
	err   error
}

func (c *stubClassifier) Classify(context.Context, []byte, string) ([]detection.Item, error) {
	return c.items, c.err
}
func (c *stubClassifier) ModelVersion() string { return "stub-vision" }
func (c *stubClassifier) Provider() string     { return "stub" }

type memoryImages struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (m *memoryImages) Save(id string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[id] = data
	return "/images/" + id + ".jpeg", nil
}

type recordingSink struct {
	mu        sync.Mutex
	published []string
	alerts    []string
	totals    []int
	err       error
}

func (r *recordingSink) PublishDetection(_ context.Context, rec *detection.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, rec.ID)
	return r.err
}

func (r *recordingSink) NotifyHotspot(_ context.Context, location string, items, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, location)
	r.totals = append(r.totals, items)
	return r.err
}

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func items(n int) []detection.Item {
	out := make([]detection.Item, n)
	for i := range out {
		out[i] = detection.Item{Type: "bottle", Material: "plastic", Confidence: 0.9, DisposalCategory: detection.DisposalRecyclable}
	}
	return out
}

func newStore(t *testing.T, capacity int) *datastore.Store {
	t.Helper()
	store, err := datastore.New(capacity, nil, datastore.WithLogger(quietLogger()))
	require.NoError(t, err)
	return store
}

var fixedNow = time.Date(2024, 5, 1, 14, 30, 15, 0, time.UTC)

func newService(c *stubClassifier, images ImageSaver, store *datastore.Store, opts ...Option) *Service {
	opts = append([]Option{WithLogger(quietLogger()), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(c, images, store, opts...)
}

func TestIngestStoresDetection(t *testing.T) {
	store := newStore(t, 100)
	images := &memoryImages{}
	svc := newService(&stubClassifier{items: items(2)}, images, store)

	lat, lon := 51.5, -0.12
	res, err := svc.Ingest(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", Metadata{
		GPS: &detection.GPS{Latitude: &lat, Longitude: &lon, LocationName: "Park"},
	})
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "det_20240501_143015", res.DetectionID)
	assert.Equal(t, 2, res.ItemsFound)
	assert.Equal(t, "Detected 2 items", res.Message)
	assert.True(t, res.Stored)

	records := store.Snapshot()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "2024-05-01T14:30:15.000000", rec.Timestamp)
	assert.Equal(t, DefaultDeviceID, rec.DeviceID)
	assert.Equal(t, "stub-vision", rec.ModelVersion)
	assert.Equal(t, "/images/det_20240501_143015.jpeg", rec.ImageRef)
	assert.Equal(t, 2, rec.TotalItems)
	assert.Contains(t, images.saved, "det_20240501_143015")
}

func TestIngestKeepsCallerFields(t *testing.T) {
	store := newStore(t, 100)
	svc := newService(&stubClassifier{items: items(1)}, nil, store)

	res, err := svc.Ingest(context.Background(), []byte{1}, "", Metadata{
		DetectionID: "robot-7-0001",
		Timestamp:   "2024-01-02T03:04:05",
		DeviceID:    "robot-7",
	})
	require.NoError(t, err)
	assert.Equal(t, "robot-7-0001", res.DetectionID)

	rec := store.Snapshot()[0]
	assert.Equal(t, "2024-01-02T03:04:05", rec.Timestamp)
	assert.Equal(t, "robot-7", rec.DeviceID)
	assert.Equal(t, detection.UnknownLocation, rec.Location())
}

func TestIngestEmptyResultIsNotStored(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubClassifier
	}{
		{"nothing found", &stubClassifier{}},
		{"classifier failure", &stubClassifier{err: assert.AnError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, 100)
			images := &memoryImages{}
			svc := newService(tt.classifier, images, store)

			res, err := svc.Ingest(context.Background(), []byte{1}, "image/jpeg", Metadata{})
			require.NoError(t, err)
			assert.Equal(t, 0, res.ItemsFound)
			assert.Equal(t, "No trash detected", res.Message)
			assert.NotNil(t, res.Items)
			assert.False(t, res.Stored)
			assert.Equal(t, 0, store.Len())
			assert.Len(t, images.saved, 1, "image is kept even when nothing was found")
		})
	}
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	store := newStore(t, 100)
	svc := newService(&stubClassifier{items: items(1)}, nil, store)

	_, err := svc.Ingest(context.Background(), nil, "image/jpeg", Metadata{})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	lat := 123.0
	_, err = svc.Ingest(context.Background(), []byte{1}, "image/jpeg", Metadata{GPS: &detection.GPS{Latitude: &lat}})
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Equal(t, 0, store.Len())
}

func TestIngestImageFailure(t *testing.T) {
	store := newStore(t, 100)
	svc := newService(&stubClassifier{items: items(1)}, &memoryImages{err: assert.AnError}, store)

	_, err := svc.Ingest(context.Background(), []byte{1}, "image/jpeg", Metadata{})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, store.Len())
}

func TestIngestCapacityAndAdditivity(t *testing.T) {
	store := newStore(t, 3)
	c := &stubClassifier{}
	svc := newService(c, nil, store)

	total := 0
	for i := 1; i <= 5; i++ {
		c.items = items(i)
		res, err := svc.Ingest(context.Background(), []byte{1}, "", Metadata{DetectionID: string(rune('a' + i - 1))})
		require.NoError(t, err)
		total += res.ItemsFound
		assert.LessOrEqual(t, store.Len(), 3)
	}

	ids := make([]string, 0, 3)
	for _, r := range store.Snapshot() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "d", "e"}, ids)
	assert.Equal(t, 15, total)
}

func TestIngestSideEffects(t *testing.T) {
	store := newStore(t, 100)
	sink := &recordingSink{}
	svc := newService(&stubClassifier{items: items(4)}, nil, store,
		WithPublisher(sink), WithNotifier(sink, 10))

	park := func() Metadata { return Metadata{GPS: &detection.GPS{LocationName: "Park"}} }
	for i := 0; i < 4; i++ {
		_, err := svc.Ingest(context.Background(), []byte{1}, "", park())
		require.NoError(t, err)
	}
	svc.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.published, 4)
	assert.Equal(t, []string{"Park"}, sink.alerts, "alert fires once when the total crosses the threshold")
	assert.Equal(t, []int{12}, sink.totals)
}

func TestIngestConcurrentUploadsAlertOnce(t *testing.T) {
	store := newStore(t, 100)
	_, err := store.Append(context.Background(), &detection.Record{
		ID: "seed", GPS: &detection.GPS{LocationName: "Park"}, Items: items(8),
	})
	require.NoError(t, err)

	sink := &recordingSink{}
	svc := newService(&stubClassifier{items: items(1)}, nil, store, WithNotifier(sink, 10))

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_, err := svc.Ingest(context.Background(), []byte{1}, "",
				Metadata{GPS: &detection.GPS{LocationName: "Park"}})
			assert.NoError(t, err)
		})
	}
	wg.Wait()
	svc.Wait()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{"Park"}, sink.alerts)
	assert.Equal(t, []int{10}, sink.totals)
}

func TestIngestSideEffectFailuresAreIgnored(t *testing.T) {
	store := newStore(t, 100)
	sink := &recordingSink{err: assert.AnError}
	svc := newService(&stubClassifier{items: items(20)}, nil, store,
		WithPublisher(sink), WithNotifier(sink, 5))

	res, err := svc.Ingest(context.Background(), []byte{1}, "", Metadata{})
	require.NoError(t, err)
	svc.Wait()
	assert.True(t, res.Stored)
}

func TestIngestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	require.NoError(t, err)
	collabMetrics, err := metrics.NewCollaboratorMetrics(registry)
	require.NoError(t, err)

	store := newStore(t, 100)
	c := &stubClassifier{items: items(3)}
	svc := newService(c, nil, store, WithMetrics(ingestMetrics, collabMetrics))

	_, err = svc.Ingest(context.Background(), []byte{1}, "", Metadata{})
	require.NoError(t, err)
	c.items, c.err = nil, assert.AnError
	_, err = svc.Ingest(context.Background(), []byte{1}, "", Metadata{})
	require.NoError(t, err)
	_, _ = svc.Ingest(context.Background(), nil, "", Metadata{})

	assert.Equal(t, 3, testutil.CollectAndCount(ingestMetrics, "ingest_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(collabMetrics, "collaborator_fallbacks_total"))
}

func TestParseMetadata(t *testing.T) {
	m, err := ParseMetadata(`{"device_id":"robot-1","gps":{"latitude":1.5,"longitude":2.5,"location_name":" Pier "},"extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, "robot-1", m.DeviceID)
	require.NotNil(t, m.GPS)
	assert.InDelta(t, 1.5, *m.GPS.Latitude, 1e-9)
	assert.Equal(t, "Pier", m.GPS.LocationName)

	for _, raw := range []string{"", "   ", "{not json", `{"gps":{"longitude":200}}`} {
		_, err := ParseMetadata(raw)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation), raw)
	}
}
