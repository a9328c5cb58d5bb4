// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "LITTERSCAN_DEBUG", validateEnvBool},
		{"webserver.listen", "LITTERSCAN_LISTEN", validateEnvListen},

		{"store.capacity", "LITTERSCAN_STORE_CAPACITY", validateEnvPositiveInt},
		{"store.backend", "LITTERSCAN_STORE_BACKEND", validateEnvOneOf(StoreBackendJSON, StoreBackendSQLite, StoreBackendMySQL)},
		{"store.json.path", "LITTERSCAN_STORE_PATH", nil},
		{"images.path", "LITTERSCAN_IMAGES_PATH", nil},

		{"vision.provider", "LITTERSCAN_VISION_PROVIDER", validateEnvOneOf(ProviderGemini, ProviderNone)},
		{"vision.gemini.apikey", "GEMINI_API_KEY", nil},
		{"narrative.provider", "LITTERSCAN_NARRATIVE_PROVIDER", validateEnvOneOf(ProviderGemini, ProviderAnthropic, ProviderNone)},
		{"narrative.gemini.apikey", "GEMINI_API_KEY", nil},
		{"narrative.anthropic.apikey", "ANTHROPIC_API_KEY", nil},

		{"analytics.latitude", "LITTERSCAN_LATITUDE", validateEnvLatitude},
		{"analytics.longitude", "LITTERSCAN_LONGITUDE", validateEnvLongitude},

		{"mqtt.broker", "LITTERSCAN_MQTT_BROKER", nil},
		{"sentry.dsn", "SENTRY_DSN", nil},
	}
}

// bindEnvVars binds environment variables to config keys and validates set values
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value: %w", err)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvListen(value string) error {
	_, port, err := net.SplitHostPort(value)
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func validateEnvOneOf(allowed ...string) func(string) error {
	return func(value string) error {
		if slices.Contains(allowed, value) {
			return nil
		}
		return fmt.Errorf("must be one of: %s", strings.Join(allowed, ", "))
	}
}

func validateEnvLatitude(value string) error {
	lat, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid latitude: %w", err)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", lat)
	}
	return nil
}

func validateEnvLongitude(value string) error {
	lng, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid longitude: %w", err)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", lng)
	}
	return nil
}
