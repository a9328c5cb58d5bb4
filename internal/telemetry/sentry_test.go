package telemetry

import (
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litterscan/litterscan/internal/conf"
	"github.com/litterscan/litterscan/internal/errors"
)

func TestInitSentryDisabled(t *testing.T) {
	require.NoError(t, InitSentry(&conf.SentrySettings{}, "test"))
	assert.False(t, IsEnabled())
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestInitSentryRequiresDSN(t *testing.T) {
	err := InitSentry(&conf.SentrySettings{Enabled: true}, "test")
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.False(t, IsEnabled())
}

func TestInitSentryInstallsReporter(t *testing.T) {
	t.Cleanup(func() { Flush(10 * time.Millisecond) })

	require.NoError(t, InitSentry(&conf.SentrySettings{Enabled: true, DSN: "https://public@sentry.example.com/1"}, "1.2.3"))
	assert.True(t, IsEnabled())

	reporter := errors.GetTelemetryReporter()
	require.NotNil(t, reporter)
	assert.True(t, reporter.IsEnabled())

	Flush(10 * time.Millisecond)
	assert.False(t, IsEnabled())
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := &sentry.Event{
		ServerName: "host-1",
		User:       sentry.User{ID: "42", IPAddress: "10.0.0.1"},
		Contexts: map[string]sentry.Context{
			"os":       {"name": "linux"},
			"device":   {"arch": "arm64"},
			"category": {"value": "narrative"},
		},
		Extra: map[string]any{"component": "insights", "path": "/home/user"},
		Tags:  map[string]string{"hostname": "host-1", "category": "narrative"},
		Request: &sentry.Request{
			URL:     "http://localhost/api/v2/upload",
			Cookies: "session=1",
			Headers: map[string]string{"Authorization": "secret"},
		},
	}

	got := applyPrivacyFilters(event)
	assert.Empty(t, got.ServerName)
	assert.True(t, got.User.IsEmpty())
	assert.NotContains(t, got.Contexts, "os")
	assert.NotContains(t, got.Contexts, "device")
	assert.Contains(t, got.Contexts, "category")
	assert.Equal(t, map[string]any{"component": "insights"}, got.Extra)
	assert.Equal(t, map[string]string{"category": "narrative"}, got.Tags)
	assert.Empty(t, got.Request.Cookies)
	assert.Nil(t, got.Request.Headers)
	assert.Equal(t, "http://localhost/api/v2/upload", got.Request.URL)
}
