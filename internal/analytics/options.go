// Package analytics derives the heatmap, hotspot ranking, peak-hour
// predictions and summary statistics from a point-in-time snapshot of
// detection records. Every function here is pure.
package analytics

import "github.com/litterscan/litterscan/internal/conf"

const (
	DefaultGridSize             = 0.001
	DefaultSaturationItems      = 10.0
	DefaultHotspotLimit         = 3
	DefaultMinPredictionRecords = 5
	DefaultTrendThreshold       = 2
	DefaultHighRiskLimit        = 5
	DefaultTopTypes             = 3
	DefaultPeakHours            = 3
)

// Options tunes the analytics. Non-positive sizes and limits, and a negative
// trend threshold, fall back to their defaults.
type Options struct {
	GridSize             float64
	SaturationItems      float64
	HotspotLimit         int
	MinPredictionRecords int
	TrendThreshold       int
	HighRiskLimit        int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		GridSize:             DefaultGridSize,
		SaturationItems:      DefaultSaturationItems,
		HotspotLimit:         DefaultHotspotLimit,
		MinPredictionRecords: DefaultMinPredictionRecords,
		TrendThreshold:       DefaultTrendThreshold,
		HighRiskLimit:        DefaultHighRiskLimit,
	}
}

// OptionsFromSettings maps the analytics configuration section onto Options.
func OptionsFromSettings(s *conf.AnalyticsSettings) Options {
	return Options{
		GridSize:             s.GridSize,
		SaturationItems:      s.SaturationItems,
		HotspotLimit:         s.HotspotLimit,
		MinPredictionRecords: s.MinPredictionRecords,
		TrendThreshold:       s.TrendThreshold,
		HighRiskLimit:        s.HighRiskLimit,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GridSize <= 0 {
		o.GridSize = d.GridSize
	}
	if o.SaturationItems <= 0 {
		o.SaturationItems = d.SaturationItems
	}
	if o.HotspotLimit <= 0 {
		o.HotspotLimit = d.HotspotLimit
	}
	if o.MinPredictionRecords <= 0 {
		o.MinPredictionRecords = d.MinPredictionRecords
	}
	if o.TrendThreshold < 0 {
		o.TrendThreshold = d.TrendThreshold
	}
	if o.HighRiskLimit <= 0 {
		o.HighRiskLimit = d.HighRiskLimit
	}
	return o
}
