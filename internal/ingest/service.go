// Package ingest turns an uploaded image and its metadata into a stored
// detection record. Classifier failures degrade to "nothing found"; side
// effects such as MQTT events and hotspot alerts never fail an upload.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/litterscan/litterscan/internal/classifier"
	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

const (
	StatusSuccess = "success"

	defaultClassifyTimeout = 30 * time.Second
	sideEffectTimeout      = 15 * time.Second
)

// ImageSaver persists image bytes and returns the reference stored on the record.
type ImageSaver interface {
	Save(id string, data []byte) (string, error)
}

// EventPublisher announces stored detections.
type EventPublisher interface {
	PublishDetection(ctx context.Context, rec *detection.Record) error
}

// HotspotNotifier is told when a location's item total reaches the alert threshold.
type HotspotNotifier interface {
	NotifyHotspot(ctx context.Context, location string, items, threshold int) error
}

// Result is returned to the uploader.
type Result struct {
	Status      string           `json:"status"`
	DetectionID string           `json:"detection_id"`
	ItemsFound  int              `json:"items_found"`
	Items       []detection.Item `json:"items"`
	ImageRef    string           `json:"image_url,omitempty"`
	Message     string           `json:"message"`
	Stored      bool             `json:"-"`
}

// Service runs the ingest pipeline.
type Service struct {
	classifier      classifier.Classifier
	images          ImageSaver
	store           *datastore.Store
	publisher       EventPublisher
	notifier        HotspotNotifier
	threshold       int
	classifyTimeout time.Duration
	ingestMetrics   *metrics.IngestMetrics
	collabMetrics   *metrics.CollaboratorMetrics
	log             logger.Logger
	now             func() time.Time

	wg sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends an event for every stored detection.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier alerts when a location crosses threshold items. A non-positive
// threshold disables alerts.
func WithNotifier(n HotspotNotifier, threshold int) Option {
	return func(s *Service) {
		s.notifier = n
		s.threshold = threshold
	}
}

// WithClassifyTimeout bounds each classifier call.
func WithClassifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.classifyTimeout = d
		}
	}
}

// WithMetrics records ingest outcomes and classifier calls.
func WithMetrics(ingest *metrics.IngestMetrics, collab *metrics.CollaboratorMetrics) Option {
	return func(s *Service) {
		s.ingestMetrics = ingest
		s.collabMetrics = collab
	}
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the ingest pipeline.
func NewService(c classifier.Classifier, images ImageSaver, store *datastore.Store, opts ...Option) *Service {
	if c == nil {
		c = classifier.Noop{}
	}
	s := &Service{
		classifier:      c,
		images:          images,
		store:           store,
		classifyTimeout: defaultClassifyTimeout,
		log:             logger.Global().Module("ingest"),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest saves the image, classifies it and stores a record when items were
// found. Errors are returned only for invalid input and local failures;
// classifier failures are treated as an empty result.
func (s *Service) Ingest(ctx context.Context, image []byte, mimeType string, meta Metadata) (Result, error) {
	if len(image) == 0 {
		s.recordIngest(metrics.OutcomeRejected, 0)
		return Result{}, errors.Newf("no image provided").
			Component("ingest").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := meta.Validate(); err != nil {
		s.recordIngest(metrics.OutcomeRejected, 0)
		return Result{}, err
	}
	if s.ingestMetrics != nil {
		s.ingestMetrics.ObserveImageSize(len(image))
	}

	now := s.now()
	rec := detection.Record{
		ID:           meta.DetectionID,
		Timestamp:    meta.Timestamp,
		GPS:          meta.GPS,
		DeviceID:     meta.DeviceID,
		ModelVersion: s.classifier.ModelVersion(),
	}
	if rec.ID == "" {
		rec.ID = detection.NewID(now)
	}
	if rec.Timestamp == "" {
		rec.Timestamp = detection.FormatTimestamp(now)
	}
	if rec.DeviceID == "" {
		rec.DeviceID = DefaultDeviceID
	}

	if s.images != nil {
		ref, err := s.images.Save(rec.ID, image)
		if err != nil {
			s.recordIngest(metrics.OutcomeError, 0)
			return Result{}, err
		}
		rec.ImageRef = ref
	}

	rec.Items = s.classify(ctx, image, mimeType, rec.ID)
	rec.TotalItems = len(rec.Items)

	result := Result{
		Status:      StatusSuccess,
		DetectionID: rec.ID,
		ItemsFound:  rec.TotalItems,
		Items:       rec.Items,
		ImageRef:    rec.ImageRef,
	}
	if rec.TotalItems == 0 {
		result.Items = []detection.Item{}
		result.Message = "No trash detected"
		s.recordIngest(metrics.OutcomeEmpty, 0)
		s.log.Info("no trash detected", logger.String("detection_id", rec.ID))
		return result, nil
	}

	appended, err := s.store.Append(ctx, &rec)
	if err != nil {
		s.recordIngest(metrics.OutcomeError, 0)
		return Result{}, err
	}
	result.Stored = true
	result.Message = fmt.Sprintf("Detected %d items", rec.TotalItems)

	s.recordIngest(metrics.OutcomeStored, rec.TotalItems)
	if s.ingestMetrics != nil {
		for _, it := range rec.Items {
			s.ingestMetrics.RecordItem(string(it.DisposalCategory))
		}
	}
	s.log.Info("detection stored",
		logger.String("detection_id", rec.ID),
		logger.String("location", rec.Location()),
		logger.Int("items", rec.TotalItems),
		logger.Int("evicted", len(appended.Evicted)),
		logger.Bool("persisted", appended.Persisted))

	s.dispatch(rec, appended)
	return result, nil
}

// classify calls the classifier with a timeout and swallows its failures.
func (s *Service) classify(ctx context.Context, image []byte, mimeType, id string) []detection.Item {
	ctx, cancel := context.WithTimeout(ctx, s.classifyTimeout)
	defer cancel()

	start := time.Now()
	items, err := s.classifier.Classify(ctx, image, mimeType)
	if s.collabMetrics != nil {
		s.collabMetrics.RecordCall(metrics.CollaboratorClassifier, s.classifier.Provider(), time.Since(start), err)
	}
	if err != nil {
		if s.collabMetrics != nil {
			s.collabMetrics.RecordFallback(metrics.CollaboratorClassifier)
		}
		s.log.Warn("classification failed, treating as no trash found",
			logger.String("detection_id", id),
			logger.String("provider", s.classifier.Provider()),
			logger.Error(err))
		return nil
	}
	return items
}

// dispatch runs the post-store side effects in the background.
// The threshold crossing uses the totals captured by the append itself, so
// concurrent appends at one location see distinct before/after pairs.
func (s *Service) dispatch(rec detection.Record, appended datastore.AppendResult) {
	if s.publisher == nil && (s.notifier == nil || s.threshold <= 0) {
		return
	}

	total := appended.LocationItemsAfter
	crossed := s.notifier != nil && s.threshold > 0 &&
		appended.LocationItemsBefore < s.threshold && total >= s.threshold

	s.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if s.publisher != nil {
			if err := s.publisher.PublishDetection(ctx, &rec); err != nil {
				s.log.Warn("failed to publish detection event",
					logger.String("detection_id", rec.ID),
					logger.Error(err))
			}
		}
		if crossed {
			if s.ingestMetrics != nil {
				s.ingestMetrics.RecordAlert()
			}
			if err := s.notifier.NotifyHotspot(ctx, rec.Location(), total, s.threshold); err != nil {
				s.log.Warn("failed to send hotspot alert",
					logger.String("location", rec.Location()),
					logger.Int("items", total),
					logger.Error(err))
			}
		}
	})
}

// Wait blocks until background side effects have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) recordIngest(outcome string, items int) {
	if s.ingestMetrics != nil {
		s.ingestMetrics.RecordIngest(outcome, items)
	}
}
