package analytics

import (
	"fmt"
	"slices"

	"github.com/litterscan/litterscan/internal/detection"
)

const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"

	InsufficientDataMessage = "Need more data for predictions"
	noHourRecommendation    = "Not enough timestamped detections to recommend patrol hours."
)

// PeakHour is an hour of day ranked by accumulated items.
type PeakHour struct {
	Hour          int    `json:"hour"`
	ExpectedItems int    `json:"expected_items"`
	Period        string `json:"period,omitempty"` // night, dawn, day or dusk when an observer is configured
}

// LocationTrend is the visit-count heuristic for one location.
type LocationTrend struct {
	Location string `json:"location"`
	Trend    string `json:"trend"`
	Visits   int    `json:"visits"`
}

// Predictions is the temporal analysis result. When Sufficient is false the
// lists are empty and Message explains why.
type Predictions struct {
	Sufficient        bool            `json:"-"`
	Message           string          `json:"message,omitempty"`
	PeakTrashHours    []PeakHour      `json:"peak_trash_hours"`
	HighRiskLocations []LocationTrend `json:"high_risk_locations"`
	Recommendation    string          `json:"recommendation,omitempty"`
	SkippedRecords    int             `json:"skipped_records,omitempty"`
}

// Predict ranks hours of day by accumulated item count and labels locations
// by visit count. Fewer than MinPredictionRecords records yields an
// insufficient result rather than an error. Records whose timestamp cannot be
// parsed are left out of the hour ranking but still count as visits.
func Predict(records []detection.Record, opts Options) Predictions {
	opts = opts.withDefaults()
	if len(records) < opts.MinPredictionRecords {
		return Predictions{
			Message:           InsufficientDataMessage,
			PeakTrashHours:    []PeakHour{},
			HighRiskLocations: []LocationTrend{},
		}
	}

	hours := newGroups[int, int]()
	visits := newGroups[string, int]()
	skipped := 0
	for i := range records {
		*visits.get(records[i].Location())++

		hour, err := records[i].Hour()
		if err != nil {
			skipped++
			continue
		}
		*hours.get(hour) += records[i].ItemCount()
	}

	ranked := make([]PeakHour, 0, hours.len())
	hours.each(func(h int, items *int) {
		ranked = append(ranked, PeakHour{Hour: h, ExpectedItems: *items})
	})
	slices.SortStableFunc(ranked, func(a, b PeakHour) int {
		return b.ExpectedItems - a.ExpectedItems
	})
	if len(ranked) > DefaultPeakHours {
		ranked = ranked[:DefaultPeakHours]
	}

	trends := make([]LocationTrend, 0, min(visits.len(), opts.HighRiskLimit))
	visits.each(func(loc string, count *int) {
		if len(trends) >= opts.HighRiskLimit {
			return
		}
		trend := TrendStable
		if *count > opts.TrendThreshold {
			trend = TrendIncreasing
		}
		trends = append(trends, LocationTrend{Location: loc, Trend: trend, Visits: *count})
	})

	recommendation := noHourRecommendation
	if len(ranked) > 0 {
		recommendation = fmt.Sprintf("Focus patrols around %d:00 when trash accumulation is highest.", ranked[0].Hour)
	}

	return Predictions{
		Sufficient:        true,
		PeakTrashHours:    ranked,
		HighRiskLocations: trends,
		Recommendation:    recommendation,
		SkippedRecords:    skipped,
	}
}
