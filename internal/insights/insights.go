// Package insights turns the current detection snapshot into a narrative
// report. A hosted language model writes the narrative; whenever it fails the
// report is built locally, so callers always get a result.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/llmjson"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/narrative"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

// Report sources.
const (
	SourceNarrative = "narrative"
	SourceFallback  = "fallback"
	SourceEmpty     = "empty"
)

// EmptySummary is reported while the store holds no records.
const EmptySummary = "No data available yet. Waiting for detections to start arriving."

// FallbackRecommendations are used whenever the narrative cannot be generated.
var FallbackRecommendations = []string{
	"Focus cleanup efforts on high-traffic areas",
	"Install more recycling bins in detected hotspots",
	"Organize community cleanup events",
	"Increase public awareness about proper waste disposal",
}

const defaultTimeout = 30 * time.Second

// Insights is the synthesized report. Hotspots are always computed locally.
type Insights struct {
	Summary         string              `json:"summary"`
	Recommendations []string            `json:"recommendations"`
	HotspotAnalysis []json.RawMessage   `json:"hotspot_analysis"`
	Hotspots        []analytics.Hotspot `json:"hotspots"`
	Source          string              `json:"source"`
}

// Synthesizer composes stats and hotspots with a narrative generator.
type Synthesizer struct {
	generator narrative.Generator
	opts      analytics.Options
	timeout   time.Duration
	cache     *cache.Cache
	group     singleflight.Group
	metrics   *metrics.CollaboratorMetrics
	log       logger.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTimeout bounds each narrative call.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCacheTTL caches narrative reports per store revision. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Synthesizer) {
		if ttl > 0 {
			s.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// WithAnalyticsOptions overrides the hotspot settings.
func WithAnalyticsOptions(opts analytics.Options) Option {
	return func(s *Synthesizer) { s.opts = opts }
}

// WithMetrics records narrative calls, fallbacks and cache lookups.
func WithMetrics(m *metrics.CollaboratorMetrics) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Synthesizer) { s.log = l }
}

// NewSynthesizer creates a synthesizer. A nil generator always falls back.
func NewSynthesizer(generator narrative.Generator, opts ...Option) *Synthesizer {
	if generator == nil {
		generator = narrative.Disabled{}
	}
	s := &Synthesizer{
		generator: generator,
		opts:      analytics.DefaultOptions(),
		timeout:   defaultTimeout,
		log:       logger.Global().Module("insights"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds the report for records, which must be the store snapshot
// taken at revision. It never fails.
func (s *Synthesizer) Synthesize(ctx context.Context, records []detection.Record, revision uint64) Insights {
	if len(records) == 0 {
		return Empty()
	}

	key := strconv.FormatUint(revision, 10)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			s.recordCacheLookup(true)
			return cached.(Insights)
		}
		s.recordCacheLookup(false)
	}

	// The call is shared by every waiter on this revision, so it must not
	// end when the first caller goes away; synthesize bounds it by s.timeout.
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(key, func() (any, error) {
		return s.synthesize(shared, records, key), nil
	})
	return v.(Insights)
}

func (s *Synthesizer) synthesize(ctx context.Context, records []detection.Record, key string) Insights {
	stats := analytics.ComputeStats(records)
	hotspots := analytics.RankHotspots(records, s.opts.HotspotLimit)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.generator.Generate(ctx, BuildPrompt(&stats, hotspots))
	if err == nil {
		var report Insights
		report, err = decodeReply(reply)
		if err == nil {
			s.recordCall(time.Since(start), nil)
			report.Hotspots = hotspots
			report.Source = SourceNarrative
			if s.cache != nil {
				s.cache.SetDefault(key, report)
			}
			return report
		}
	}

	s.recordCall(time.Since(start), err)
	if s.metrics != nil {
		s.metrics.RecordFallback(metrics.CollaboratorNarrative)
	}
	s.log.Warn("narrative unavailable, using local summary",
		logger.String("provider", s.generator.Provider()),
		logger.Int("records", len(records)),
		logger.Error(err))
	return Fallback(&stats, hotspots)
}

func (s *Synthesizer) recordCall(d time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.RecordCall(metrics.CollaboratorNarrative, s.generator.Provider(), d, err)
	}
}

func (s *Synthesizer) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

// Empty is the placeholder report for an empty store.
func Empty() Insights {
	return Insights{
		Summary:         EmptySummary,
		Recommendations: []string{},
		HotspotAnalysis: []json.RawMessage{},
		Hotspots:        []analytics.Hotspot{},
		Source:          SourceEmpty,
	}
}

// Fallback builds the deterministic local report.
func Fallback(stats *analytics.Stats, hotspots []analytics.Hotspot) Insights {
	common, ok := stats.MostCommonType()
	if !ok {
		common = "none"
	}
	if hotspots == nil {
		hotspots = []analytics.Hotspot{}
	}
	return Insights{
		Summary: fmt.Sprintf("Detected %d items across %d locations. Most common: %s.",
			stats.TotalItems, stats.TotalDetections, common),
		Recommendations: append([]string(nil), FallbackRecommendations...),
		HotspotAnalysis: []json.RawMessage{},
		Hotspots:        hotspots,
		Source:          SourceFallback,
	}
}

// textList accepts an array of strings or of arbitrary values; non-string
// entries are kept as compact JSON text.
type textList []string

func (t *textList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(r))
	}
	*t = out
	return nil
}

type narrativeReply struct {
	Summary         string            `json:"summary"`
	Recommendations textList          `json:"recommendations"`
	HotspotAnalysis []json.RawMessage `json:"hotspot_analysis"`
}

func decodeReply(reply string) (Insights, error) {
	var r narrativeReply
	if err := llmjson.Decode(reply, &r); err != nil {
		return Insights{}, err
	}
	if r.Summary == "" {
		return Insights{}, fmt.Errorf("narrative reply has no summary")
	}
	if r.Recommendations == nil {
		r.Recommendations = textList{}
	}
	if r.HotspotAnalysis == nil {
		r.HotspotAnalysis = []json.RawMessage{}
	}
	return Insights{
		Summary:         r.Summary,
		Recommendations: r.Recommendations,
		HotspotAnalysis: r.HotspotAnalysis,
	}, nil
}
