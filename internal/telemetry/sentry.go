// Package telemetry provides opt-in, privacy-filtered error reporting to Sentry.
package telemetry

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
)

var sentryInitialized atomic.Bool

// InitSentry initializes the Sentry SDK and installs it as the errors
// package reporter. It does nothing unless Sentry is explicitly enabled.
func InitSentry(settings *conf.SentrySettings, release string) error {
	log := logger.Global().Module("telemetry")
	if !settings.Enabled {
		log.Info("sentry error reporting is disabled")
		return nil
	}
	if settings.DSN == "" {
		return errors.Newf("sentry is enabled but no DSN is configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	environment := settings.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.DSN,
		SampleRate:       1.0,
		Debug:            settings.Debug,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		Release:          fmt.Sprintf("%s@%s", conf.AppName, release),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	sentryInitialized.Store(true)

	log.Info("sentry error reporting enabled", logger.String("environment", environment))
	return nil
}

// IsEnabled reports whether InitSentry installed the reporter.
func IsEnabled() bool {
	return sentryInitialized.Load()
}

// Flush waits for queued events up to timeout and detaches the reporter.
func Flush(timeout time.Duration) {
	if !sentryInitialized.Swap(false) {
		return
	}
	sentry.Flush(timeout)
	errors.SetTelemetryReporter(nil)
}

// applyPrivacyFilters strips host and user identifying data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	if event.Request != nil {
		event.Request.Cookies = ""
		event.Request.Headers = nil
		event.Request.Env = nil
	}
	return event
}
