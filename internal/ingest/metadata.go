package ingest

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
)

// DefaultDeviceID is recorded when the uploader does not identify itself.
const DefaultDeviceID = "unknown"

// Metadata is the JSON document sent alongside an uploaded image.
type Metadata struct {
	DetectionID string         `json:"detection_id"`
	Timestamp   string         `json:"timestamp"`
	DeviceID    string         `json:"device_id"`
	GPS         *detection.GPS `json:"gps"`
}

// ParseMetadata decodes and validates upload metadata. An empty document is
// rejected; unknown fields are ignored.
func ParseMetadata(raw string) (Metadata, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Metadata{}, errors.Newf("no metadata provided").
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}

	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}, errors.Newf("invalid metadata: %w", err).
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate checks coordinate ranges. Timestamps are kept verbatim.
func (m *Metadata) Validate() error {
	if m.GPS == nil {
		return nil
	}
	if lat := m.GPS.Latitude; lat != nil && (math.IsNaN(*lat) || *lat < -90 || *lat > 90) {
		return errors.Newf("latitude %v out of range", *lat).
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("field", "gps.latitude").
			Build()
	}
	if lon := m.GPS.Longitude; lon != nil && (math.IsNaN(*lon) || *lon < -180 || *lon > 180) {
		return errors.Newf("longitude %v out of range", *lon).
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("field", "gps.longitude").
			Build()
	}
	m.GPS.LocationName = strings.TrimSpace(m.GPS.LocationName)
	return nil
}
