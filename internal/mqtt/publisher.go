package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
)

// DetectionsSubtopic is appended to the base topic for detection events.
const DetectionsSubtopic = "detections"

// DetectionEvent is the JSON payload published for every stored detection.
type DetectionEvent struct {
	DetectionID string   `json:"detection_id"`
	Timestamp   string   `json:"timestamp"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	ItemsFound  int      `json:"items_found"`
	Types       []string `json:"types"`
	ImageRef    string   `json:"image_url,omitempty"`
	DeviceID    string   `json:"device_id"`
}

// NewDetectionEvent builds the event for rec. Types are distinct, in item order.
func NewDetectionEvent(rec *detection.Record) DetectionEvent {
	ev := DetectionEvent{
		DetectionID: rec.ID,
		Timestamp:   rec.Timestamp,
		Location:    rec.Location(),
		ItemsFound:  rec.ItemCount(),
		Types:       make([]string, 0, len(rec.Items)),
		ImageRef:    rec.ImageRef,
		DeviceID:    rec.DeviceID,
	}
	if lat, lon, ok := rec.Coordinates(); ok {
		ev.Latitude, ev.Longitude = &lat, &lon
	}
	seen := make(map[string]struct{}, len(rec.Items))
	for _, it := range rec.Items {
		if _, dup := seen[it.Type]; dup {
			continue
		}
		seen[it.Type] = struct{}{}
		ev.Types = append(ev.Types, it.Type)
	}
	return ev
}

// Publisher sends detection events through a Client.
type Publisher struct {
	client Client
	topic  string
}

// NewPublisher publishes to <baseTopic>/detections.
func NewPublisher(client Client, baseTopic string) *Publisher {
	base := strings.TrimRight(baseTopic, "/")
	topic := DetectionsSubtopic
	if base != "" {
		topic = base + "/" + DetectionsSubtopic
	}
	return &Publisher{client: client, topic: topic}
}

// Topic returns the detection topic.
func (p *Publisher) Topic() string { return p.topic }

// PublishDetection publishes the event for rec.
func (p *Publisher) PublishDetection(ctx context.Context, rec *detection.Record) error {
	payload, err := json.Marshal(NewDetectionEvent(rec))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Build()
	}
	return p.client.Publish(ctx, p.topic, payload)
}
