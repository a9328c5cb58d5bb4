package analytics

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/detection"
)

type fixture struct {
	ts       string
	location string
	lat, lon *float64
	types    []string
}

func ptr(v float64) *float64 { return &v }

func build(fixtures ...fixture) []detection.Record {
	out := make([]detection.Record, 0, len(fixtures))
	for i, s := range fixtures {
		rec := detection.Record{ID: fmt.Sprintf("det_%d", i), Timestamp: s.ts}
		if s.location != "" || s.lat != nil || s.lon != nil {
			rec.GPS = &detection.GPS{Latitude: s.lat, Longitude: s.lon, LocationName: s.location}
		}
		for _, typ := range s.types {
			rec.Items = append(rec.Items, detection.Item{Type: typ, DisposalCategory: detection.DisposalRecyclable})
		}
		rec.TotalItems = len(rec.Items)
		out = append(out, rec)
	}
	return out
}

func repeat(typ string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = typ
	}
	return out
}

func TestHeatmapSaturation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		items int
		want  float64
	}{
		{5, 0.5},
		{10, 1.0},
		{11, 1.0},
		{25, 1.0},
		{1, 0.1},
	}
	for _, tt := range tests {
		records := build(fixture{lat: ptr(10), lon: ptr(20), types: repeat("bottle", tt.items)})
		hm := ComputeHeatmap(records, DefaultOptions())
		require.Len(t, hm.Points, 1)
		assert.InDelta(t, tt.want, hm.Points[0].Intensity, 1e-9, "items=%d", tt.items)
	}
}

func TestHeatmapAccumulatesAcrossRecordsBeforeEmitting(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{lat: ptr(40.7128), lon: ptr(-74.0060), types: repeat("can", 3)},
		fixture{lat: ptr(40.7132), lon: ptr(-74.0058), types: repeat("can", 2)},
		fixture{lat: ptr(40.7140), lon: ptr(-74.0060), types: repeat("cup", 4)},
		fixture{location: "No GPS", types: repeat("cup", 9)},
		fixture{lat: ptr(40.7128), types: repeat("cup", 9)},
	)

	hm := ComputeHeatmap(records, DefaultOptions())
	require.Equal(t, 2, hm.TotalPoints, "one point per distinct cell")
	require.Len(t, hm.Points, 2)

	first := hm.Points[0]
	assert.InDelta(t, 40.713, first.Latitude, 1e-12)
	assert.InDelta(t, -74.006, first.Longitude, 1e-12)
	assert.Equal(t, 5, first.Items)
	assert.Equal(t, 2, first.Records)
	assert.InDelta(t, 0.5, first.Intensity, 1e-9)

	second := hm.Points[1]
	assert.InDelta(t, 40.714, second.Latitude, 1e-12)
	assert.InDelta(t, 0.4, second.Intensity, 1e-9)
}

func TestHeatmapGridSnapping(t *testing.T) {
	t.Parallel()

	same := build(
		fixture{lat: ptr(51.5004), lon: ptr(0.1), types: []string{"a"}},
		fixture{lat: ptr(51.4996), lon: ptr(0.1), types: []string{"a"}},
	)
	assert.Equal(t, 1, ComputeHeatmap(same, DefaultOptions()).TotalPoints)

	adjacent := build(
		fixture{lat: ptr(51.500), lon: ptr(0.1), types: []string{"a"}},
		fixture{lat: ptr(51.501), lon: ptr(0.1), types: []string{"a"}},
	)
	hm := ComputeHeatmap(adjacent, DefaultOptions())
	require.Equal(t, 2, hm.TotalPoints)
	assert.InDelta(t, 0.001, hm.Points[1].Latitude-hm.Points[0].Latitude, 1e-9)
}

func TestHeatmapJSONShape(t *testing.T) {
	t.Parallel()

	hm := ComputeHeatmap(build(fixture{lat: ptr(1), lon: ptr(2), types: repeat("x", 5)}), DefaultOptions())
	data, err := json.Marshal(hm)
	require.NoError(t, err)
	assert.JSONEq(t, `{"heatmap_points":[[1,2,0.5]],"total_points":1}`, string(data))

	empty, err := json.Marshal(ComputeHeatmap(nil, DefaultOptions()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"heatmap_points":[],"total_points":0}`, string(empty))
}

func TestRankHotspots(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{location: "D", types: []string{"cup"}},
		fixture{location: "B", types: repeat("can", 7)},
		fixture{location: "A", types: repeat("bottle", 6)},
		fixture{location: "C", types: repeat("bag", 7)},
		fixture{location: "A", types: repeat("wrapper", 6)},
	)

	got := RankHotspots(records, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Location)
	assert.Equal(t, 12, got[0].ItemsCount)
	assert.Equal(t, "B", got[1].Location, "ties keep first-seen order")
	assert.Equal(t, "C", got[2].Location)
	for _, h := range got {
		assert.NotEqual(t, "D", h.Location)
	}

	all := RankHotspots(records, 0)
	assert.Len(t, all, 4)
	assert.Equal(t, "D", all[3].Location)
}

func TestRankHotspotsTopTypes(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{types: []string{"cup", "can", "bag", "can", "straw", "bag", "can"}},
		fixture{location: "Pier", types: []string{"lid"}},
	)

	got := RankHotspots(records, 3)
	require.Len(t, got, 2)
	assert.Equal(t, detection.UnknownLocation, got[0].Location)
	assert.Equal(t, []string{"can", "bag", "cup"}, got[0].TopTypes)
	assert.Equal(t, []string{"lid"}, got[1].TopTypes)

	data, err := json.Marshal(RankHotspots(nil, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestLocationItems(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{location: "Pier", types: repeat("can", 2)},
		fixture{location: "Beach", types: repeat("can", 5)},
		fixture{location: "Pier", types: repeat("cup", 3)},
	)
	assert.Equal(t, 5, LocationItems(records, "Pier"))
	assert.Equal(t, 0, LocationItems(records, "Dock"))
}

func TestPredictThreshold(t *testing.T) {
	t.Parallel()

	four := build(
		fixture{ts: "2024-01-01T10:00:00", types: []string{"a"}},
		fixture{ts: "2024-01-01T11:00:00", types: []string{"a"}},
		fixture{ts: "2024-01-01T12:00:00", types: []string{"a"}},
		fixture{ts: "2024-01-01T13:00:00", types: []string{"a"}},
	)
	p := Predict(four, DefaultOptions())
	assert.False(t, p.Sufficient)
	assert.Equal(t, InsufficientDataMessage, p.Message)
	assert.Empty(t, p.PeakTrashHours)
	assert.Empty(t, p.HighRiskLocations)

	five := append(four, build(fixture{ts: "2024-01-01T14:00:00", types: []string{"a"}})...)
	p = Predict(five, DefaultOptions())
	assert.True(t, p.Sufficient)
	assert.Empty(t, p.Message)
	assert.Len(t, p.PeakTrashHours, 3)
}

func TestPredictRanksHoursAndTrends(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{ts: "2024-01-01T08:15:00", location: "Pier", types: repeat("can", 2)},
		fixture{ts: "2024-01-02T17:30:00", location: "Pier", types: repeat("can", 6)},
		fixture{ts: "2024-01-03T08:45:00.123456", location: "Beach", types: repeat("cup", 3)},
		fixture{ts: "2024-01-03T12:00:00", location: "Pier", types: repeat("cup", 1)},
		fixture{ts: "not-a-time", location: "Dock", types: repeat("bag", 9)},
		fixture{ts: "2024-01-04T21:00:00", types: repeat("bag", 1)},
	)

	p := Predict(records, DefaultOptions())
	require.True(t, p.Sufficient)
	assert.Equal(t, []PeakHour{
		{Hour: 17, ExpectedItems: 6},
		{Hour: 8, ExpectedItems: 5},
		{Hour: 12, ExpectedItems: 1},
	}, p.PeakTrashHours)
	assert.Equal(t, 1, p.SkippedRecords)
	assert.Equal(t, "Focus patrols around 17:00 when trash accumulation is highest.", p.Recommendation)

	assert.Equal(t, []LocationTrend{
		{Location: "Pier", Trend: TrendIncreasing, Visits: 3},
		{Location: "Beach", Trend: TrendStable, Visits: 1},
		{Location: "Dock", Trend: TrendStable, Visits: 1},
		{Location: detection.UnknownLocation, Trend: TrendStable, Visits: 1},
	}, p.HighRiskLocations)
}

func TestPredictLimitsHighRiskLocations(t *testing.T) {
	t.Parallel()

	var fixtures []fixture
	for i := range 7 {
		fixtures = append(fixtures, fixture{ts: "2024-01-01T10:00:00", location: fmt.Sprintf("L%d", i), types: []string{"a"}})
	}
	p := Predict(build(fixtures...), DefaultOptions())
	require.Len(t, p.HighRiskLocations, DefaultHighRiskLimit)
	assert.Equal(t, "L0", p.HighRiskLocations[0].Location)
	assert.Equal(t, "L4", p.HighRiskLocations[4].Location)
}

func TestPredictWithoutParsableTimestamps(t *testing.T) {
	t.Parallel()

	var fixtures []fixture
	for range 5 {
		fixtures = append(fixtures, fixture{ts: "garbage", types: []string{"a"}})
	}
	p := Predict(build(fixtures...), DefaultOptions())
	assert.True(t, p.Sufficient)
	assert.Empty(t, p.PeakTrashHours)
	assert.Equal(t, noHourRecommendation, p.Recommendation)
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	records := build(
		fixture{types: []string{"can", "cup"}},
		fixture{types: []string{"cup", "bag", "cup"}},
	)
	records[1].Items[2].DisposalCategory = ""
	records[1].Items[1].DisposalCategory = detection.DisposalLandfill

	s := ComputeStats(records)
	assert.Equal(t, 2, s.TotalDetections)
	assert.Equal(t, 5, s.TotalItems)
	assert.Equal(t, map[string]int{"can": 1, "cup": 3, "bag": 1}, s.TrashTypes)
	assert.Equal(t, map[string]int{"recyclable": 3, "landfill": 1, "unknown": 1}, s.DisposalCategories)

	common, ok := s.MostCommonType()
	require.True(t, ok)
	assert.Equal(t, "cup", common)
	assert.Equal(t, []TypeCount{{"cup", 3}, {"can", 1}, {"bag", 1}}, s.RankedTypes())
}

func TestComputeStatsEmpty(t *testing.T) {
	t.Parallel()

	s := ComputeStats(nil)
	_, ok := s.MostCommonType()
	assert.False(t, ok)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_detections":0,"total_items":0,"trash_types":{},"disposal_categories":{}}`, string(data))
}

func TestMostCommonTypeTieGoesToFirstSeen(t *testing.T) {
	t.Parallel()

	s := ComputeStats(build(fixture{types: []string{"lid", "can", "can", "lid"}}))
	common, _ := s.MostCommonType()
	assert.Equal(t, "lid", common)
}

func TestOptionsFromSettings(t *testing.T) {
	t.Parallel()

	opts := OptionsFromSettings(&conf.AnalyticsSettings{GridSize: 0.01, HotspotLimit: -1, TrendThreshold: 0})
	assert.InDelta(t, 0.01, opts.GridSize, 0)
	assert.InDelta(t, DefaultSaturationItems, opts.SaturationItems, 0)
	assert.Equal(t, DefaultHotspotLimit, opts.HotspotLimit)
	assert.Equal(t, 0, opts.TrendThreshold)
}
