package datastore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

const persistTimeout = 30 * time.Second

// ErrEmptyRecord is returned when appending a record without items.
var ErrEmptyRecord = errors.NewStd("record has no items")

// AppendResult describes the effect of one Append.
type AppendResult struct {
	Evicted   []detection.Record // records dropped to honor the capacity, oldest first
	Len       int                // records held after the append
	Revision  uint64
	Persisted bool // false when the durable mirror could not be written

	// Item totals at the appended record's location immediately before and
	// after this append, taken under the same lock as the mutation.
	LocationItemsBefore int
	LocationItemsAfter  int
}

// Store is the bounded, insertion-ordered history of detection records.
// Mutations are serialized and mirrored to the persister while the lock is
// held, so the durable copy always matches some state the store passed through.
type Store struct {
	mu        sync.RWMutex
	records   []detection.Record
	capacity  int
	revision  uint64
	persister Persister
	metrics   *metrics.DatastoreMetrics
	log       logger.Logger
	closed    bool
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics attaches Prometheus metrics to the store.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger overrides the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New creates an empty store. A nil persister keeps the store memory-only.
func New(capacity int, persister Persister, opts ...Option) (*Store, error) {
	if capacity < 1 {
		return nil, errors.Newf("store capacity must be at least 1, got %d", capacity).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if persister == nil {
		persister = nopPersister{}
	}
	s := &Store{
		capacity:  capacity,
		persister: persister,
		records:   make([]detection.Record, 0, capacity),
		log:       GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		s.metrics.SetCapacity(capacity)
		s.metrics.SetRecordsHeld(0)
	}
	return s, nil
}

// Load replaces the in-memory state with the persisted collection. A missing
// or unreadable mirror leaves the store empty; the error is logged, not returned,
// because the store is usable either way. Only the newest records up to the
// capacity are kept.
func (s *Store) Load(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Warn("failed to load persisted detections, starting empty",
			logger.String("backend", s.persister.Backend()),
			logger.Error(err))
		s.recordOperation(metrics.OpLoad, metrics.StatusError)
		loaded = nil
	} else {
		s.recordOperation(metrics.OpLoad, metrics.StatusSuccess)
	}

	if excess := len(loaded) - s.capacity; excess > 0 {
		s.log.Info("persisted collection exceeds capacity, dropping oldest",
			logger.Int("dropped", excess),
			logger.Int("capacity", s.capacity))
		loaded = loaded[excess:]
	}

	s.records = append(make([]detection.Record, 0, s.capacity), loaded...)
	s.revision++
	s.updateGauge()

	s.log.Info("detection store loaded",
		logger.Int("records", len(s.records)),
		logger.String("backend", s.persister.Backend()))
	return len(s.records)
}

// Append adds a record, evicting the oldest records beyond capacity, and
// mirrors the new state. Records without items are rejected.
func (s *Store) Append(ctx context.Context, rec *detection.Record) (AppendResult, error) {
	if rec == nil || rec.ItemCount() == 0 {
		return AppendResult{}, ErrEmptyRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return AppendResult{}, errors.Newf("store is closed").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	location := rec.Location()
	before := analytics.LocationItems(s.records, location)
	s.records = append(s.records, *rec)

	var evicted []detection.Record
	if excess := len(s.records) - s.capacity; excess > 0 {
		evicted = slices.Clone(s.records[:excess])
		s.records = slices.Delete(s.records, 0, excess)
		for i := range evicted {
			s.log.Debug("evicted oldest detection",
				logger.String("detection_id", evicted[i].ID),
				logger.String("timestamp", evicted[i].Timestamp))
		}
		if s.metrics != nil {
			s.metrics.RecordEvictions(len(evicted))
		}
	}
	s.revision++
	s.updateGauge()

	persisted := s.persistLocked(ctx)
	s.recordOperation(metrics.OpAppend, metrics.StatusSuccess)

	return AppendResult{
		Evicted:             evicted,
		Len:                 len(s.records),
		Revision:            s.revision,
		Persisted:           persisted,
		LocationItemsBefore: before,
		LocationItemsAfter:  analytics.LocationItems(s.records, location),
	}, nil
}

// Clear empties the store, mirrors the empty state and returns the prior count.
func (s *Store) Clear(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.records)
	s.records = make([]detection.Record, 0, s.capacity)
	s.revision++
	s.updateGauge()
	s.persistLocked(ctx)
	s.recordOperation(metrics.OpClear, metrics.StatusSuccess)

	s.log.Info("detection store cleared", logger.Int("records", count))
	return count
}

// List returns records ordered by timestamp descending, comparing the
// timestamp strings. Records with equal timestamps keep insertion order.
// A limit of zero or less returns every record.
func (s *Store) List(limit int) []detection.Record {
	out := s.Snapshot()
	if out == nil {
		out = []detection.Record{}
	}
	slices.SortStableFunc(out, func(a, b detection.Record) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Snapshot returns a copy of the records in insertion order.
func (s *Store) Snapshot() []detection.Record {
	records, _ := s.SnapshotWithRevision()
	return records
}

// SnapshotWithRevision returns a copy of the records together with the
// revision they belong to. The revision changes on every mutation.
func (s *Store) SnapshotWithRevision() ([]detection.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), s.revision
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the maximum number of records held.
func (s *Store) Capacity() int {
	return s.capacity
}

// Revision returns the current mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Close releases the persister. Further appends fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.persister.Close()
}

// persistLocked writes the current sequence to the persister. Failures are
// logged and counted; the in-memory state stays authoritative.
// The mirror is written even when ctx is cancelled, so a caller that goes
// away mid-request cannot leave it behind the in-memory state.
func (s *Store) persistLocked(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	start := time.Now()
	err := s.persister.Save(ctx, s.records)
	if s.metrics != nil {
		s.metrics.RecordPersist(s.persister.Backend(), len(s.records), time.Since(start), err)
	}
	if err != nil {
		s.log.Error("failed to persist detections",
			logger.String("backend", s.persister.Backend()),
			logger.Int("records", len(s.records)),
			logger.Error(err))
		return false
	}
	return true
}

func (s *Store) updateGauge() {
	if s.metrics != nil {
		s.metrics.SetRecordsHeld(len(s.records))
	}
}

func (s *Store) recordOperation(op, status string) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, status)
	}
}
