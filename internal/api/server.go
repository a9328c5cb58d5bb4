package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/litterscan/litterscan/internal/api/middleware"
	v2 "github.com/litterscan/litterscan/internal/api/v2"
	"github.com/litterscan/litterscan/internal/buildinfo"
	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/engine"
	"github.com/litterscan/litterscan/internal/logger"
	"github.com/litterscan/litterscan/internal/observability/metrics"
)

// Server is the main HTTP server for litterscan.
type Server struct {
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	engine   *engine.Engine
	uploader v2.Uploader
	images   v2.ImageResolver
	metrics  *metrics.HTTPMetrics
	build    buildinfo.BuildInfo

	apiController *v2.Controller
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.HTTPMetrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithBuildInfo sets the metadata reported by the health endpoint.
func WithBuildInfo(b buildinfo.BuildInfo) ServerOption {
	return func(s *Server) { s.build = b }
}

// New creates the HTTP server with its middleware and routes.
func New(settings *conf.Settings, eng *engine.Engine, up v2.Uploader, images v2.ImageResolver, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:   config,
		settings: settings,
		log:      GetLogger(),
		engine:   eng,
		uploader: up,
		images:   images,
		build:    buildinfo.Current(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.apiController = v2.New(s.echo, settings, eng, up, images,
		v2.WithBuildInfo(s.build),
		v2.WithLogger(s.log.Module("v2")))

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Listen),
		logger.Bool("debug", config.Debug))
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	s.echo.Use(mw.NewRecover(s.log))
	s.echo.Use(mw.NewMetrics(s.metrics))
	s.echo.Use(mw.NewRequestLogger(s.log.Module("http")))
	s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders())
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.echo.Listener = ln
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server", logger.String("address", ln.Addr().String()))
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("stopping HTTP server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
