// Package observability provides Prometheus metrics functionality for monitoring litterscan.
// Sentry error telemetry is handled in the telemetry package.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/logger"
	metricspkg "github.com/litterscan/litterscan/internal/observability/metrics"
)

const readHeaderTimeout = 10 * time.Second

// Endpoint serves the Prometheus-compatible /metrics endpoint.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a telemetry Endpoint for the given settings.
// It returns an error when telemetry is disabled.
func NewEndpoint(settings conf.TelemetrySettings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Enabled {
		return nil, fmt.Errorf("telemetry not enabled in settings")
	}
	if metrics == nil {
		return nil, fmt.Errorf("metrics instance is required")
	}

	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)

	return &Endpoint{
		listenAddress: settings.Listen,
		metrics:       metrics,
		server: &http.Server{
			Addr:              settings.Listen,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (e *Endpoint) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		getLogger().Info("telemetry endpoint starting", logger.String("address", e.listenAddress))
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			getLogger().Error("telemetry HTTP server error", logger.Error(err))
			return fmt.Errorf("telemetry server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	getLogger().Info("stopping telemetry server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(shutdownCtx); err != nil {
		getLogger().Error("telemetry server shutdown error", logger.Error(err))
		return fmt.Errorf("telemetry server shutdown: %w", err)
	}
	return nil
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
