package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/litterscan/litterscan/internal/analytics"
	"github.com/litterscan/litterscan/internal/detection"
	"github.com/litterscan/litterscan/internal/insights"
)

// HeatmapResponse wraps the heatmap for GET /heatmap.
type HeatmapResponse struct {
	Status string `json:"status"`
	analytics.Heatmap
}

// InsightsResponse is returned by GET /ai-insights.
type InsightsResponse struct {
	Status      string            `json:"status"`
	Insights    insights.Insights `json:"insights"`
	GeneratedAt string            `json:"generated_at"`
}

// PredictionsResponse is returned by GET /predictions. Predictions holds an
// empty list when there is not enough data.
type PredictionsResponse struct {
	Status      string `json:"status"`
	Predictions any    `json:"predictions"`
	Message     string `json:"message,omitempty"`
}

// GetHeatmap handles GET /heatmap.
func (c *Controller) GetHeatmap(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HeatmapResponse{Status: "success", Heatmap: c.Engine.Heatmap()})
}

// GetHotspots handles GET /hotspots?limit=N.
func (c *Controller) GetHotspots(ctx echo.Context) error {
	limit, err := parseLimit(ctx.QueryParam("limit"))
	if err != nil {
		return c.HandleError(ctx, err, "Invalid limit parameter", http.StatusBadRequest)
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"hotspots": c.Engine.Hotspots(limit),
	})
}

// GetInsights handles GET /ai-insights. It never fails: collaborator errors
// degrade to the local narrative.
func (c *Controller) GetInsights(ctx echo.Context) error {
	result := c.Engine.Insights(ctx.Request().Context())
	return ctx.JSON(http.StatusOK, InsightsResponse{
		Status:      "success",
		Insights:    result,
		GeneratedAt: detection.FormatTimestamp(c.now()),
	})
}

// GetPredictions handles GET /predictions.
func (c *Controller) GetPredictions(ctx echo.Context) error {
	p := c.Engine.Predictions()
	if !p.Sufficient {
		return ctx.JSON(http.StatusOK, PredictionsResponse{
			Status:      "success",
			Predictions: []any{},
			Message:     p.Message,
		})
	}
	return ctx.JSON(http.StatusOK, PredictionsResponse{Status: "success", Predictions: p})
}

// GetStats handles GET /stats.
func (c *Controller) GetStats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Engine.Stats())
}
