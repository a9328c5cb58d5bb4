package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/datastore"
	"github.com/litterscan/litterscan/internal/engine"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/suncalc"
)

// Report is the offline analytics summary of the persisted store.
type Report struct {
	Stats       analytics.Stats       `json:"stats"`
	Hotspots    []analytics.Hotspot   `json:"hotspots"`
	HeatmapSize int                   `json:"heatmap_points"`
	Predictions analytics.Predictions `json:"predictions"`
}

// Command creates the report command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analytics for the persisted detection store",
		Long:  "Load the persisted detections read-only and print statistics, hotspots, heatmap size and predictions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := Build(cmd.Context(), settings)
			if err != nil {
				return err
			}
			if asJSON {
				return WriteJSON(cmd.OutOrStdout(), r)
			}
			return WriteText(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// Build loads the configured store and computes the report. The store is
// never written.
func Build(ctx context.Context, settings *conf.Settings) (*Report, error) {
	persister, err := datastore.NewPersister(&settings.Store)
	if err != nil {
		return nil, err
	}
	store, err := datastore.New(settings.Store.Capacity, persister)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Global().Module("report").Warn("failed to close store", logger.Error(err))
		}
	}()
	store.Load(ctx)

	opts := []engine.Option{engine.WithAnalyticsOptions(analytics.OptionsFromSettings(&settings.Analytics))}
	if settings.Analytics.SunObserverEnabled() {
		opts = append(opts, engine.WithSunCalc(
			suncalc.NewSunCalc(settings.Analytics.Latitude, settings.Analytics.Longitude, time.Local)))
	}
	eng := engine.New(store, nil, opts...)

	return &Report{
		Stats:       eng.Stats(),
		Hotspots:    eng.Hotspots(0),
		HeatmapSize: eng.Heatmap().TotalPoints,
		Predictions: eng.Predictions(),
	}, nil
}

// WriteJSON prints r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText prints r as aligned tables.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Detections:\t%d\n", r.Stats.TotalDetections)
	fmt.Fprintf(tw, "Items:\t%d\n", r.Stats.TotalItems)
	fmt.Fprintf(tw, "Heatmap cells:\t%d\n", r.HeatmapSize)

	fmt.Fprintln(tw, "\nTYPE\tCOUNT")
	for _, tc := range r.Stats.RankedTypes() {
		fmt.Fprintf(tw, "%s\t%d\n", tc.Type, tc.Count)
	}

	fmt.Fprintln(tw, "\nHOTSPOT\tITEMS\tTOP TYPES")
	for _, h := range r.Hotspots {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", h.Location, h.ItemsCount, strings.Join(h.TopTypes, ", "))
	}

	if !r.Predictions.Sufficient {
		fmt.Fprintf(tw, "\nPredictions:\t%s\n", r.Predictions.Message)
		return tw.Flush()
	}

	fmt.Fprintln(tw, "\nPEAK HOUR\tEXPECTED ITEMS\tPERIOD")
	for _, p := range r.Predictions.PeakTrashHours {
		period := p.Period
		if period == "" {
			period = "-"
		}
		fmt.Fprintf(tw, "%02d:00\t%d\t%s\n", p.Hour, p.ExpectedItems, period)
	}
	fmt.Fprintln(tw, "\nLOCATION\tVISITS\tTREND")
	for _, l := range r.Predictions.HighRiskLocations {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", l.Location, l.Visits, l.Trend)
	}
	fmt.Fprintf(tw, "\n%s\n", r.Predictions.Recommendation)
	return tw.Flush()
}
