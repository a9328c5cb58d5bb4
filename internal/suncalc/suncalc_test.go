package suncalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSunEventTimesOrderedAndCached(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(51.5074, -0.1278, time.UTC)
	date := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

	times, err := sc.GetSunEventTimes(date)
	require.NoError(t, err)

	assert.True(t, times.CivilDawn.Before(times.Sunrise))
	assert.True(t, times.Sunrise.Before(times.Sunset))
	assert.True(t, times.Sunset.Before(times.CivilDusk))
	assert.Equal(t, 6, times.Sunrise.Hour())
	assert.Equal(t, 18, times.Sunset.Hour())

	again, err := sc.GetSunEventTimes(date.Add(3 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, times, again)
	assert.Len(t, sc.cache, 1)
}

func TestPeriodOf(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(51.5074, -0.1278, time.UTC)
	date := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		hour int
		want string
	}{
		{2, PeriodNight},
		{12, PeriodDay},
		{18, PeriodDusk},
		{22, PeriodNight},
	}
	for _, tt := range tests {
		got, err := sc.PeriodOf(date, tt.hour)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "hour %d", tt.hour)
	}

	_, err := sc.PeriodOf(date, 24)
	require.Error(t, err)
}

func TestNewSunCalcDefaultsToLocal(t *testing.T) {
	t.Parallel()

	sc := NewSunCalc(1, 2, nil)
	assert.Equal(t, time.Local, sc.location)
	assert.InDelta(t, 1, sc.observer.Latitude, 0)
}
