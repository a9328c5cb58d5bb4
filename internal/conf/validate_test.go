package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings(t *testing.T) *Settings {
	t.Helper()
	s, err := DefaultSettings()
	require.NoError(t, err)
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"defaults are valid", func(*Settings) {}, ""},
		{"zero capacity", func(s *Settings) { s.Store.Capacity = 0 }, "store capacity"},
		{"unknown backend", func(s *Settings) { s.Store.Backend = "redis" }, "unknown store backend"},
		{"mysql without host", func(s *Settings) {
			s.Store.Backend = StoreBackendMySQL
			s.Store.MySQL.Host = ""
		}, "store.mysql"},
		{"unknown vision provider", func(s *Settings) { s.Vision.Provider = "openai" }, "unknown vision provider"},
		{"unknown narrative provider", func(s *Settings) { s.Narrative.Provider = "llama" }, "unknown narrative provider"},
		{"zero grid size", func(s *Settings) { s.Analytics.GridSize = 0 }, "grid size"},
		{"negative saturation", func(s *Settings) { s.Analytics.SaturationItems = -1 }, "saturation"},
		{"zero min records", func(s *Settings) { s.Analytics.MinPredictionRecords = 0 }, "min prediction records"},
		{"latitude out of range", func(s *Settings) { s.Analytics.Latitude = 91 }, "latitude"},
		{"empty listen", func(s *Settings) { s.WebServer.Listen = "" }, "webserver listen"},
		{"non numeric port", func(s *Settings) { s.WebServer.Listen = ":http-alt" }, "invalid port"},
		{"telemetry listen checked when enabled", func(s *Settings) {
			s.Telemetry.Enabled = true
			s.Telemetry.Listen = "nope"
		}, "telemetry listen"},
		{"mqtt without broker", func(s *Settings) {
			s.MQTT.Enabled = true
			s.MQTT.Broker = ""
		}, "mqtt broker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings(t)
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateEnvBool(" true "))
	assert.Error(t, validateEnvBool("yes"))

	assert.NoError(t, validateEnvPositiveInt("100"))
	assert.Error(t, validateEnvPositiveInt("0"))
	assert.Error(t, validateEnvPositiveInt("many"))

	assert.NoError(t, validateEnvListen(":5000"))
	assert.NoError(t, validateEnvListen("127.0.0.1:8080"))
	assert.Error(t, validateEnvListen("5000"))

	oneOf := validateEnvOneOf(StoreBackendJSON, StoreBackendSQLite)
	assert.NoError(t, oneOf("sqlite"))
	assert.Error(t, oneOf("mysql"))

	assert.NoError(t, validateEnvLatitude("-33.9"))
	assert.Error(t, validateEnvLatitude("-91"))
	assert.NoError(t, validateEnvLongitude("151.2"))
	assert.Error(t, validateEnvLongitude("181"))
}
