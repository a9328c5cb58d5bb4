// conf/validate.go

package conf

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		func(s *Settings) error { return validateStoreSettings(&s.Store) },
		func(s *Settings) error { return validateProviders(&s.Vision, &s.Narrative) },
		func(s *Settings) error { return validateAnalyticsSettings(&s.Analytics) },
		func(s *Settings) error { return validateWebServerSettings(&s.WebServer) },
		func(s *Settings) error { return validateTelemetrySettings(&s.Telemetry) },
		func(s *Settings) error { return validateMQTTSettings(&s.MQTT) },
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateStoreSettings(settings *StoreSettings) error {
	var errs []string
	if settings.Capacity < 1 {
		errs = append(errs, fmt.Sprintf("store capacity must be at least 1, got %d", settings.Capacity))
	}
	switch settings.Backend {
	case StoreBackendJSON:
		if settings.JSON.Path == "" {
			errs = append(errs, "store.json.path must be set for the json backend")
		}
	case StoreBackendSQLite:
		if settings.SQLite.Path == "" {
			errs = append(errs, "store.sqlite.path must be set for the sqlite backend")
		}
	case StoreBackendMySQL:
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			errs = append(errs, "store.mysql host and database must be set for the mysql backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store backend %q", settings.Backend))
	}
	return joinErrors(errs)
}

func validateProviders(vision *VisionSettings, narrative *NarrativeSettings) error {
	var errs []string
	if !slices.Contains([]string{ProviderGemini, ProviderNone}, vision.Provider) {
		errs = append(errs, fmt.Sprintf("unknown vision provider %q", vision.Provider))
	}
	if !slices.Contains([]string{ProviderGemini, ProviderAnthropic, ProviderNone}, narrative.Provider) {
		errs = append(errs, fmt.Sprintf("unknown narrative provider %q", narrative.Provider))
	}
	if vision.Timeout < 0 || narrative.Timeout < 0 {
		errs = append(errs, "collaborator timeouts must not be negative")
	}
	return joinErrors(errs)
}

func validateAnalyticsSettings(settings *AnalyticsSettings) error {
	var errs []string
	if settings.GridSize <= 0 {
		errs = append(errs, fmt.Sprintf("analytics grid size must be positive, got %g", settings.GridSize))
	}
	if settings.SaturationItems <= 0 {
		errs = append(errs, fmt.Sprintf("analytics saturation items must be positive, got %g", settings.SaturationItems))
	}
	if settings.MinPredictionRecords < 1 {
		errs = append(errs, fmt.Sprintf("analytics min prediction records must be at least 1, got %d", settings.MinPredictionRecords))
	}
	if settings.HotspotLimit < 1 {
		errs = append(errs, fmt.Sprintf("analytics hotspot limit must be at least 1, got %d", settings.HotspotLimit))
	}
	if settings.Latitude < -90 || settings.Latitude > 90 {
		errs = append(errs, fmt.Sprintf("analytics latitude must be between -90 and 90, got %g", settings.Latitude))
	}
	if settings.Longitude < -180 || settings.Longitude > 180 {
		errs = append(errs, fmt.Sprintf("analytics longitude must be between -180 and 180, got %g", settings.Longitude))
	}
	return joinErrors(errs)
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if err := validateListenAddress(settings.Listen); err != nil {
		return fmt.Errorf("webserver listen: %w", err)
	}
	if settings.RateLimit < 0 {
		return fmt.Errorf("webserver rate limit must not be negative, got %g", settings.RateLimit)
	}
	return nil
}

func validateTelemetrySettings(settings *TelemetrySettings) error {
	if !settings.Enabled {
		return nil
	}
	if err := validateListenAddress(settings.Listen); err != nil {
		return fmt.Errorf("telemetry listen: %w", err)
	}
	return nil
}

func validateMQTTSettings(settings *MQTTSettings) error {
	if settings.Enabled && settings.Broker == "" {
		return fmt.Errorf("mqtt broker must be set when mqtt is enabled")
	}
	return nil
}

// validateListenAddress requires host:port with a numeric port
func validateListenAddress(listen string) error {
	if listen == "" {
		return fmt.Errorf("address must not be empty")
	}
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", listen, err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(errs, "; "))
}
