package engine

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/insights"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/suncalc"
)

func quietLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	store, err := datastore.New(100, nil, datastore.WithLogger(quietLogger()))
	require.NoError(t, err)
	synth := insights.NewSynthesizer(nil, insights.WithLogger(quietLogger()))
	return New(store, synth, opts...)
}

func add(t *testing.T, e *Engine, ts, location string, lat, lon float64, items int) {
	t.Helper()
	rec := detection.Record{
		ID:        fmt.Sprintf("det_%s_%s", location, ts),
		Timestamp: ts,
		GPS:       &detection.GPS{Latitude: &lat, Longitude: &lon, LocationName: location},
	}
	for i := 0; i < items; i++ {
		rec.Items = append(rec.Items, detection.Item{Type: "can", DisposalCategory: detection.DisposalRecyclable})
	}
	_, err := e.Store().Append(context.Background(), &rec)
	require.NoError(t, err)
}

func TestQueriesReflectCurrentState(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, 0, e.Heatmap().TotalPoints)

	add(t, e, "2024-05-01T08:10:00", "Park", 51.5, -0.12, 3)
	add(t, e, "2024-05-01T09:10:00", "Beach", 51.6, -0.12, 1)

	assert.Equal(t, 2, e.Heatmap().TotalPoints)
	assert.Equal(t, 4, e.Stats().TotalItems)
	assert.Equal(t, "Park", e.Hotspots(0)[0].Location)
	assert.Len(t, e.Hotspots(1), 1)
	assert.Equal(t, "2024-05-01T09:10:00", e.List(1)[0].Timestamp)

	got := e.Insights(context.Background())
	assert.Equal(t, insights.SourceFallback, got.Source)
	assert.Equal(t, "Detected 4 items across 2 locations. Most common: can.", got.Summary)
}

func TestClearResetsEverything(t *testing.T) {
	e := newEngine(t)
	add(t, e, "2024-05-01T08:10:00", "Park", 51.5, -0.12, 3)

	assert.Equal(t, 1, e.Clear(context.Background()))
	assert.Empty(t, e.List(0))
	assert.Equal(t, 0, e.Stats().TotalDetections)
	assert.Equal(t, 0, e.Heatmap().TotalPoints)
	assert.Equal(t, insights.SourceEmpty, e.Insights(context.Background()).Source)
}

func TestPredictionsAnnotatePeriods(t *testing.T) {
	sc := suncalc.NewSunCalc(51.5074, -0.1278, time.UTC)
	ref := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	e := newEngine(t, WithSunCalc(sc), WithClock(func() time.Time { return ref }))

	for i := 0; i < 4; i++ {
		add(t, e, "2024-05-01T12:00:00", "Park", 51.5, -0.12, 2)
	}
	add(t, e, "2024-05-01T02:00:00", "Park", 51.5, -0.12, 1)

	p := e.Predictions()
	require.True(t, p.Sufficient)
	require.Len(t, p.PeakTrashHours, 2)
	assert.Equal(t, analytics.PeakHour{Hour: 12, ExpectedItems: 8, Period: suncalc.PeriodDay}, p.PeakTrashHours[0])
	assert.Equal(t, suncalc.PeriodNight, p.PeakTrashHours[1].Period)
	assert.Equal(t, analytics.TrendIncreasing, p.HighRiskLocations[0].Trend)
}

func TestPredictionsWithoutObserver(t *testing.T) {
	e := newEngine(t)
	for i := 0; i < 4; i++ {
		add(t, e, "2024-05-01T12:00:00", "Park", 51.5, -0.12, 1)
	}

	p := e.Predictions()
	assert.False(t, p.Sufficient)
	assert.Equal(t, analytics.InsufficientDataMessage, p.Message)
	assert.Empty(t, p.PeakTrashHours)

	add(t, e, "2024-05-01T13:00:00", "Park", 51.5, -0.12, 1)
	p = e.Predictions()
	require.True(t, p.Sufficient)
	assert.Empty(t, p.PeakTrashHours[0].Period)
}
