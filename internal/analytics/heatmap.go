package analytics

import (
	"encoding/json"
	"math"

	"github.com/litterscan/litterscan/internal/detection"
)

// coordinatePrecision trims float noise from snapped grid coordinates.
const coordinatePrecision = 1e9

// HeatmapPoint is one non-empty grid cell. It encodes as [lat, lon, intensity].
type HeatmapPoint struct {
	Latitude  float64
	Longitude float64
	Intensity float64
	Records   int
	Items     int
}

// MarshalJSON encodes the point as a three-element array.
func (p HeatmapPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.Latitude, p.Longitude, p.Intensity})
}

// Heatmap is the spatial aggregation of a record snapshot.
type Heatmap struct {
	Points      []HeatmapPoint `json:"heatmap_points"`
	TotalPoints int            `json:"total_points"`
}

type cellKey struct {
	lat, lon int64
}

type cellTotals struct {
	records int
	items   int
}

// ComputeHeatmap snaps every record with coordinates to the nearest grid line,
// accumulates item counts per cell over all records and then emits one point
// per non-empty cell in first-seen order. Intensity is items/saturation capped at 1.
func ComputeHeatmap(records []detection.Record, opts Options) Heatmap {
	opts = opts.withDefaults()
	cells := newGroups[cellKey, cellTotals]()

	for i := range records {
		lat, lon, ok := records[i].Coordinates()
		if !ok {
			continue
		}
		key := cellKey{
			lat: int64(math.Round(lat / opts.GridSize)),
			lon: int64(math.Round(lon / opts.GridSize)),
		}
		cell := cells.get(key)
		cell.records++
		cell.items += records[i].ItemCount()
	}

	points := make([]HeatmapPoint, 0, cells.len())
	cells.each(func(key cellKey, cell *cellTotals) {
		if cell.items == 0 {
			return
		}
		points = append(points, HeatmapPoint{
			Latitude:  snap(key.lat, opts.GridSize),
			Longitude: snap(key.lon, opts.GridSize),
			Intensity: math.Min(float64(cell.items)/opts.SaturationItems, 1.0),
			Records:   cell.records,
			Items:     cell.items,
		})
	})

	return Heatmap{Points: points, TotalPoints: len(points)}
}

func snap(index int64, grid float64) float64 {
	return math.Round(float64(index)*grid*coordinatePrecision) / coordinatePrecision
}
