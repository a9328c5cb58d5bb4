package detection

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisposalCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DisposalRecyclable, ParseDisposalCategory("Recyclable"))
	assert.Equal(t, DisposalCompost, ParseDisposalCategory(" compost "))
	assert.Equal(t, DisposalLandfill, ParseDisposalCategory("landfill"))
	assert.Equal(t, DisposalUnknown, ParseDisposalCategory("hazardous"))
	assert.Equal(t, DisposalUnknown, ParseDisposalCategory(""))
}

func TestItemNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Item
		want Item
	}{
		{
			Item{Type: " bottle ", Material: "plastic", Confidence: 1.4, DisposalCategory: "RECYCLABLE"},
			Item{Type: "bottle", Material: "plastic", Confidence: 1, DisposalCategory: DisposalRecyclable},
		},
		{
			Item{Type: "can", Confidence: -0.2, DisposalCategory: "metal bin"},
			Item{Type: "can", Confidence: 0, DisposalCategory: DisposalUnknown},
		},
		{
			Item{Type: "cup", Confidence: math.NaN()},
			Item{Type: "cup", Confidence: 0, DisposalCategory: DisposalUnknown},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestRecordLocationAndCoordinates(t *testing.T) {
	t.Parallel()

	lat, lon := 40.7128, -74.006
	withGPS := Record{GPS: &GPS{Latitude: &lat, Longitude: &lon, LocationName: "Pier 17"}}
	gotLat, gotLon, ok := withGPS.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, lat, gotLat, 0)
	assert.InDelta(t, lon, gotLon, 0)
	assert.Equal(t, "Pier 17", withGPS.Location())

	onlyLat := Record{GPS: &GPS{Latitude: &lat}}
	_, _, ok = onlyLat.Coordinates()
	assert.False(t, ok)
	assert.Equal(t, UnknownLocation, onlyLat.Location())

	var bare Record
	_, _, ok = bare.Coordinates()
	assert.False(t, ok)
	assert.Equal(t, UnknownLocation, bare.Location())
}

func TestRecordJSONCurrentLayout(t *testing.T) {
	t.Parallel()

	lat := 1.5
	rec := Record{
		ID:           "det_1",
		Timestamp:    "2024-05-01T14:03:00",
		GPS:          &GPS{Latitude: &lat, LocationName: "Beach"},
		Items:        []Item{{Type: "bottle", Material: "plastic", Confidence: 0.9, DisposalCategory: DisposalRecyclable}},
		ImageRef:     "/images/det_1.jpeg",
		DeviceID:     "cam-1",
		ModelVersion: "gemini-vision",
		TotalItems:   1,
	}

	data, err := json.Marshal(&rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"image_ref":"/images/det_1.jpeg"`)
	assert.NotContains(t, string(data), `"longitude"`)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestRecordJSONLegacyLayout(t *testing.T) {
	t.Parallel()

	legacy := `{
		"detection_id": "det_20240101_101500",
		"timestamp": "2024-01-01T10:15:00.123456",
		"gps": {"latitude": 37.7749, "longitude": -122.4194, "location_name": "Market St"},
		"detections": [
			{"type": "paper cup", "material": "paper", "confidence": 0.8, "disposal_category": "compost"},
			{"type": "can", "material": "metal", "confidence": 0.7, "disposal_category": "recyclable"}
		],
		"image_url": "/images/det_20240101_101500.jpeg",
		"metadata": {"device_id": "robot-01", "model_version": "gemini-vision", "total_items": 2}
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(legacy), &rec))

	assert.Equal(t, "det_20240101_101500", rec.ID)
	assert.Equal(t, "/images/det_20240101_101500.jpeg", rec.ImageRef)
	assert.Equal(t, "robot-01", rec.DeviceID)
	assert.Equal(t, "gemini-vision", rec.ModelVersion)
	assert.Equal(t, 2, rec.TotalItems)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, DisposalCompost, rec.Items[0].DisposalCategory)
	assert.Equal(t, "Market St", rec.Location())
}

func TestRecordJSONMissingItems(t *testing.T) {
	t.Parallel()

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","timestamp":"2024-01-01T00:00:00"}`), &rec))
	assert.NotNil(t, rec.Items)
	assert.Empty(t, rec.Items)
	assert.Equal(t, 0, rec.TotalItems)
}

func TestNewIDAndTimestamp(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 9, 7, 5, 2, 123456000, time.UTC)
	assert.Equal(t, "det_20240309_070502", NewID(at))
	assert.Equal(t, "2024-03-09T07:05:02.123456", FormatTimestamp(at))

	parsed, err := ParseTimestamp(FormatTimestamp(at))
	require.NoError(t, err)
	assert.Equal(t, 7, parsed.Hour())
}

func TestRecordHour(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ts      string
		want    int
		wantErr bool
	}{
		{"2024-01-01T10:15:00", 10, false},
		{"2024-01-01T23:59:59.999999", 23, false},
		{"2024-01-01T08:00:00+02:00", 8, false},
		{"2024-01-01T08:00:00Z", 8, false},
		{"2024-01-01 17:30:00", 17, false},
		{"yesterday", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		rec := Record{Timestamp: tt.ts}
		got, err := rec.Hour()
		if tt.wantErr {
			assert.Error(t, err, tt.ts)
			continue
		}
		require.NoError(t, err, tt.ts)
		assert.Equal(t, tt.want, got, tt.ts)
	}
}
