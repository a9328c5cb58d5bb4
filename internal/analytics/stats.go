package analytics

import (
	"slices"

	"github.com/litterscan/litterscan/internal/detection"
)

// Stats is the counting fold over a snapshot.
type Stats struct {
	TotalDetections    int            `json:"total_detections"`
	TotalItems         int            `json:"total_items"`
	TrashTypes         map[string]int `json:"trash_types"`
	DisposalCategories map[string]int `json:"disposal_categories"`

	typeOrder []string
}

// ComputeStats counts records, items, item types and disposal categories.
// Items without a disposal category count as unknown.
func ComputeStats(records []detection.Record) Stats {
	s := Stats{
		TotalDetections:    len(records),
		TrashTypes:         make(map[string]int),
		DisposalCategories: make(map[string]int),
	}
	for i := range records {
		s.TotalItems += records[i].ItemCount()
		for _, item := range records[i].Items {
			if _, seen := s.TrashTypes[item.Type]; !seen {
				s.typeOrder = append(s.typeOrder, item.Type)
			}
			s.TrashTypes[item.Type]++

			category := string(item.DisposalCategory)
			if category == "" {
				category = string(detection.DisposalUnknown)
			}
			s.DisposalCategories[category]++
		}
	}
	return s
}

// TypeCount is one entry of the type breakdown.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// RankedTypes returns the type breakdown by count descending, ties in first-seen order.
func (s *Stats) RankedTypes() []TypeCount {
	out := make([]TypeCount, 0, len(s.TrashTypes))
	for _, t := range s.typeOrder {
		out = append(out, TypeCount{Type: t, Count: s.TrashTypes[t]})
	}
	slices.SortStableFunc(out, func(a, b TypeCount) int {
		return b.Count - a.Count
	})
	return out
}

// MostCommonType returns the most frequent item type; ties go to the type seen first.
func (s *Stats) MostCommonType() (string, bool) {
	ranked := s.RankedTypes()
	if len(ranked) == 0 {
		return "", false
	}
	return ranked[0].Type, true
}
