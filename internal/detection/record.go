// Package detection defines the detection record exchanged by the store,
// the analytics and the transport layer.
package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// UnknownLocation is the location bucket for records without a location name.
const UnknownLocation = "Unknown"

// DisposalCategory classifies how an item should be disposed of.
type DisposalCategory string

const (
	DisposalRecyclable DisposalCategory = "recyclable"
	DisposalCompost    DisposalCategory = "compost"
	DisposalLandfill   DisposalCategory = "landfill"
	DisposalUnknown    DisposalCategory = "unknown"
)

// ParseDisposalCategory maps free text onto a known category, defaulting to unknown.
func ParseDisposalCategory(s string) DisposalCategory {
	switch c := DisposalCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case DisposalRecyclable, DisposalCompost, DisposalLandfill:
		return c
	default:
		return DisposalUnknown
	}
}

// GPS is the optional position attached to a record. Any field may be absent.
type GPS struct {
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
}

// Item is one classified piece of waste.
type Item struct {
	Type             string           `json:"type"`
	Material         string           `json:"material"`
	Confidence       float64          `json:"confidence"`
	DisposalCategory DisposalCategory `json:"disposal_category"`
}

// Normalize trims text fields, clamps confidence to [0,1] and coerces the
// disposal category onto the known set.
func (it Item) Normalize() Item {
	it.Type = strings.TrimSpace(it.Type)
	it.Material = strings.TrimSpace(it.Material)
	switch {
	case math.IsNaN(it.Confidence), it.Confidence < 0:
		it.Confidence = 0
	case it.Confidence > 1:
		it.Confidence = 1
	}
	it.DisposalCategory = ParseDisposalCategory(string(it.DisposalCategory))
	return it
}

// Record is one ingested observation. Records are never mutated after creation.
type Record struct {
	ID           string `json:"id"`
	Timestamp    string `json:"timestamp"`
	GPS          *GPS   `json:"gps,omitempty"`
	Items        []Item `json:"items"`
	ImageRef     string `json:"image_ref"`
	DeviceID     string `json:"device_id"`
	ModelVersion string `json:"model_version"`
	TotalItems   int    `json:"total_items"`
}

// ItemCount returns the number of classified items on the record.
func (r *Record) ItemCount() int {
	return len(r.Items)
}

// Location returns the location name, or UnknownLocation when absent.
func (r *Record) Location() string {
	if r.GPS == nil || r.GPS.LocationName == "" {
		return UnknownLocation
	}
	return r.GPS.LocationName
}

// Coordinates returns latitude and longitude when both are present.
func (r *Record) Coordinates() (lat, lon float64, ok bool) {
	if r.GPS == nil || r.GPS.Latitude == nil || r.GPS.Longitude == nil {
		return 0, 0, false
	}
	return *r.GPS.Latitude, *r.GPS.Longitude, true
}

// Hour returns the hour of day of the record timestamp.
func (r *Record) Hour() (int, error) {
	t, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return 0, err
	}
	return t.Hour(), nil
}

// legacyMetadata is the nested provenance block of the older file layout.
type legacyMetadata struct {
	DeviceID     string `json:"device_id"`
	ModelVersion string `json:"model_version"`
	TotalItems   *int   `json:"total_items"`
}

// wireRecord accepts both the current layout and the older
// detection_id/detections/image_url/metadata layout.
type wireRecord struct {
	ID           string          `json:"id"`
	Timestamp    string          `json:"timestamp"`
	GPS          *GPS            `json:"gps"`
	Items        []Item          `json:"items"`
	ImageRef     string          `json:"image_ref"`
	DeviceID     string          `json:"device_id"`
	ModelVersion string          `json:"model_version"`
	TotalItems   *int            `json:"total_items"`
	DetectionID  string          `json:"detection_id"`
	Detections   []Item          `json:"detections"`
	ImageURL     string          `json:"image_url"`
	Metadata     *legacyMetadata `json:"metadata"`
}

// UnmarshalJSON decodes a record in either supported layout.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode detection record: %w", err)
	}

	rec := Record{
		ID:           firstNonEmpty(w.ID, w.DetectionID),
		Timestamp:    w.Timestamp,
		GPS:          w.GPS,
		Items:        w.Items,
		ImageRef:     firstNonEmpty(w.ImageRef, w.ImageURL),
		DeviceID:     w.DeviceID,
		ModelVersion: w.ModelVersion,
	}
	if rec.Items == nil {
		rec.Items = w.Detections
	}
	if rec.Items == nil {
		rec.Items = []Item{}
	}

	switch {
	case w.TotalItems != nil:
		rec.TotalItems = *w.TotalItems
	case w.Metadata != nil && w.Metadata.TotalItems != nil:
		rec.TotalItems = *w.Metadata.TotalItems
	default:
		rec.TotalItems = len(rec.Items)
	}
	if w.Metadata != nil {
		rec.DeviceID = firstNonEmpty(rec.DeviceID, w.Metadata.DeviceID)
		rec.ModelVersion = firstNonEmpty(rec.ModelVersion, w.Metadata.ModelVersion)
	}

	*r = rec
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const (
	idLayout        = "20060102_150405"
	timestampLayout = "2006-01-02T15:04:05.000000"
)

// NewID returns the generated record id for an ingestion time.
func NewID(t time.Time) string {
	return "det_" + t.Format(idLayout)
}

// FormatTimestamp renders an ingestion time as a zone-less ISO-8601 string.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses the ISO-8601 variants devices send. Zone-less values
// are taken as wall-clock time so the hour of day is preserved.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
