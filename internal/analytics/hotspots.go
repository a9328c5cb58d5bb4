package analytics

import (
	"slices"

	"github.com/litterscan/litterscan/internal/detection"
)

// Hotspot is a named location ranked by item volume.
type Hotspot struct {
	Location   string   `json:"location"`
	ItemsCount int      `json:"items_count"`
	TopTypes   []string `json:"top_types"`
}

type locationTotals struct {
	items int
	types *groups[string, int]
}

// RankHotspots groups records by location name, ranks locations by summed
// item count (ties keep first-seen order) and returns the first limit entries.
// A limit of zero or less returns every location.
//
// TopTypes lists up to three distinct item types of the location, most
// frequent first, ties in first-seen order.
func RankHotspots(records []detection.Record, limit int) []Hotspot {
	locations := newGroups[string, locationTotals]()
	for i := range records {
		loc := locations.get(records[i].Location())
		if loc.types == nil {
			loc.types = newGroups[string, int]()
		}
		loc.items += records[i].ItemCount()
		for _, item := range records[i].Items {
			*loc.types.get(item.Type)++
		}
	}

	hotspots := make([]Hotspot, 0, locations.len())
	locations.each(func(name string, loc *locationTotals) {
		hotspots = append(hotspots, Hotspot{
			Location:   name,
			ItemsCount: loc.items,
			TopTypes:   topKeys(loc.types, DefaultTopTypes),
		})
	})

	slices.SortStableFunc(hotspots, func(a, b Hotspot) int {
		return b.ItemsCount - a.ItemsCount
	})
	if limit > 0 && limit < len(hotspots) {
		hotspots = hotspots[:limit]
	}
	return hotspots
}

// LocationItems returns the summed item count of one location.
func LocationItems(records []detection.Record, location string) int {
	total := 0
	for i := range records {
		if records[i].Location() == location {
			total += records[i].ItemCount()
		}
	}
	return total
}

type keyCount struct {
	key   string
	count int
}

// topKeys returns up to n keys by count descending, ties in first-seen order.
func topKeys(g *groups[string, int], n int) []string {
	if g == nil {
		return []string{}
	}
	ranked := make([]keyCount, 0, g.len())
	g.each(func(k string, c *int) {
		ranked = append(ranked, keyCount{key: k, count: *c})
	})
	slices.SortStableFunc(ranked, func(a, b keyCount) int {
		return b.count - a.count
	})

	out := make([]string, 0, min(n, len(ranked)))
	for i := 0; i < len(ranked) && i < n; i++ {
		out = append(out, ranked[i].key)
	}
	return out
}
