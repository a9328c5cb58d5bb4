// Package api implements the litterscan JSON API on echo.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	mw "github.com/litterscan/litterscan/internal/api/middleware"
	"github.com/litterscan/litterscan/internal/buildinfo"
	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/engine"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/ingest"
	"github.com/litterscan/litterscan/internal/logger"
)

// Prefix is the mount point of the versioned API group.
const Prefix = "/api/v2"

// Uploader runs the ingest pipeline for one upload.
type Uploader interface {
	Ingest(ctx context.Context, image []byte, mimeType string, meta ingest.Metadata) (ingest.Result, error)
}

// ImageResolver maps a public image file name to a path on disk.
type ImageResolver interface {
	Path(name string) (string, error)
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Engine   *engine.Engine
	Uploader Uploader
	Images   ImageResolver

	build     buildinfo.BuildInfo
	log       logger.Logger
	startTime time.Time
	now       func() time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithBuildInfo sets the metadata reported by the health endpoint.
func WithBuildInfo(b buildinfo.BuildInfo) Option {
	return func(c *Controller) { c.build = b }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock replaces time.Now for generated_at stamps and uptime.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates the controller and registers its routes on e. The analytics
// routes are served under Prefix and, for existing field devices, at the root.
func New(e *echo.Echo, settings *conf.Settings, eng *engine.Engine, up Uploader, images ImageResolver, opts ...Option) *Controller {
	c := &Controller{
		Echo:     e,
		Settings: settings,
		Engine:   eng,
		Uploader: up,
		Images:   images,
		build:    buildinfo.Current(),
		log:      logger.Global().Module("api"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startTime = c.now()

	// One limiter for both mounts so a client shares a single upload budget.
	upload := mw.NewRateLimiter(settings.WebServer.RateLimit, settings.WebServer.RateLimitBurst)

	c.Group = e.Group(Prefix)
	c.initRoutes(c.Group, upload)
	c.initRoutes(e.Group(""), upload)

	e.GET("/", c.Index)
	e.GET("/images/:filename", c.ServeImage)
	return c
}

// initRoutes registers the JSON endpoints on g.
func (c *Controller) initRoutes(g *echo.Group, upload echo.MiddlewareFunc) {
	g.GET("/health", c.HealthCheck)
	g.POST("/upload", c.UploadDetection, upload)
	g.GET("/detections", c.GetDetections)
	g.DELETE("/clear", c.ClearDetections)
	g.GET("/heatmap", c.GetHeatmap)
	g.GET("/hotspots", c.GetHotspots)
	g.GET("/ai-insights", c.GetInsights)
	g.GET("/predictions", c.GetPredictions)
	g.GET("/stats", c.GetStats)
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Status:        "error",
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString(),
	}
}

// HandleError logs err and writes the error response.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.log.Error("API error", fields...)
	} else {
		c.log.Warn("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}

// statusFromError maps an error category to an HTTP status code.
func statusFromError(err error) int {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return http.StatusInternalServerError
	}
	switch errors.ErrorCategory(ee.GetCategory()) {
	case errors.CategoryValidation:
		return http.StatusBadRequest
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryLimit:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
