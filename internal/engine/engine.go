// Package engine answers analytics queries against the live detection store.
// Every query reads a fresh snapshot; nothing is precomputed.
package engine

import (
	"context"
	"time"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/insights"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/suncalc"
)

// Engine wires the store to the analytics functions and the insight synthesizer.
type Engine struct {
	store       *datastore.Store
	synthesizer *insights.Synthesizer
	opts        analytics.Options
	sun         *suncalc.SunCalc
	now         func() time.Time
	log         logger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyticsOptions overrides grid and ranking settings.
func WithAnalyticsOptions(opts analytics.Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithSunCalc annotates peak hours with the sun period of the current day.
func WithSunCalc(sc *suncalc.SunCalc) Option {
	return func(e *Engine) { e.sun = sc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. A nil synthesizer yields fallback insights only.
func New(store *datastore.Store, synthesizer *insights.Synthesizer, opts ...Option) *Engine {
	if synthesizer == nil {
		synthesizer = insights.NewSynthesizer(nil)
	}
	e := &Engine{
		store:       store,
		synthesizer: synthesizer,
		opts:        analytics.DefaultOptions(),
		now:         time.Now,
		log:         logger.Global().Module("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() *datastore.Store { return e.store }

// List returns records newest first, at most limit when limit is positive.
func (e *Engine) List(limit int) []detection.Record {
	return e.store.List(limit)
}

// Heatmap bins the snapshot onto the grid.
func (e *Engine) Heatmap() analytics.Heatmap {
	return analytics.ComputeHeatmap(e.store.Snapshot(), e.opts)
}

// Hotspots ranks locations; a non-positive limit uses the configured default.
func (e *Engine) Hotspots(limit int) []analytics.Hotspot {
	if limit <= 0 {
		limit = e.opts.HotspotLimit
	}
	return analytics.RankHotspots(e.store.Snapshot(), limit)
}

// Stats counts the snapshot.
func (e *Engine) Stats() analytics.Stats {
	return analytics.ComputeStats(e.store.Snapshot())
}

// Predictions ranks peak hours and labels locations. When a sun observer is
// configured each peak hour carries its period for today.
func (e *Engine) Predictions() analytics.Predictions {
	p := analytics.Predict(e.store.Snapshot(), e.opts)
	if e.sun == nil || !p.Sufficient {
		return p
	}

	today := e.now()
	for i := range p.PeakTrashHours {
		period, err := e.sun.PeriodOf(today, p.PeakTrashHours[i].Hour)
		if err != nil {
			e.log.Debug("sun period unavailable", logger.Int("hour", p.PeakTrashHours[i].Hour), logger.Error(err))
			continue
		}
		p.PeakTrashHours[i].Period = period
	}
	return p
}

// Insights synthesizes the narrative report for the current snapshot.
func (e *Engine) Insights(ctx context.Context) insights.Insights {
	records, revision := e.store.SnapshotWithRevision()
	return e.synthesizer.Synthesize(ctx, records, revision)
}

// Clear empties the store and returns the number of records removed.
func (e *Engine) Clear(ctx context.Context) int {
	return e.store.Clear(ctx)
}
