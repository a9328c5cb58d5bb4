// config.go: settings struct and functions to load and save litterscan settings.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/litterscan/litterscan/internal/logger"
)

// MySQLSettings contains connection settings for the mysql store backend.
type MySQLSettings struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// StoreSettings contains settings for the bounded detection store and its durable mirror.
type StoreSettings struct {
	Capacity int    `yaml:"capacity"` // maximum number of retained records
	Backend  string `yaml:"backend"`  // json, sqlite or mysql
	JSON     struct {
		Path string `yaml:"path"` // detections file path
	} `yaml:"json"`
	SQLite struct {
		Path string `yaml:"path"` // sqlite database path
	} `yaml:"sqlite"`
	MySQL MySQLSettings `yaml:"mysql"`
}

// ImageSettings contains settings for uploaded image persistence.
type ImageSettings struct {
	Path      string `yaml:"path"`      // directory for saved images
	URLPrefix string `yaml:"urlprefix"` // prefix of the image reference stored on records
}

// GeminiSettings contains settings for the Gemini generateContent API.
type GeminiSettings struct {
	APIKey   string `yaml:"apikey"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// AnthropicSettings contains settings for the Anthropic messages API.
type AnthropicSettings struct {
	APIKey    string `yaml:"apikey"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"maxtokens"`
	Endpoint  string `yaml:"endpoint"` // empty uses the SDK default
}

// VisionSettings selects and configures the image classifier.
type VisionSettings struct {
	Provider string         `yaml:"provider"` // gemini or none
	Gemini   GeminiSettings `yaml:"gemini"`
	Timeout  time.Duration  `yaml:"timeout"`
}

// NarrativeSettings selects and configures the insight narrative generator.
type NarrativeSettings struct {
	Provider  string            `yaml:"provider"` // gemini, anthropic or none
	Gemini    GeminiSettings    `yaml:"gemini"`
	Anthropic AnthropicSettings `yaml:"anthropic"`
	Timeout   time.Duration     `yaml:"timeout"`
	CacheTTL  time.Duration     `yaml:"cachettl"`
}

// AnalyticsSettings contains tuning for the spatial and temporal analytics.
type AnalyticsSettings struct {
	GridSize             float64 `yaml:"gridsize"`             // heatmap cell size in degrees
	SaturationItems      float64 `yaml:"saturationitems"`      // items per cell for full intensity
	HotspotLimit         int     `yaml:"hotspotlimit"`         // hotspots returned by default
	MinPredictionRecords int     `yaml:"minpredictionrecords"` // records needed before predicting
	TrendThreshold       int     `yaml:"trendthreshold"`       // visits above which a location is "increasing"
	HighRiskLimit        int     `yaml:"highrisklimit"`        // locations listed in predictions
	Latitude             float64 `yaml:"latitude"`             // observer for sun period annotation
	Longitude            float64 `yaml:"longitude"`
}

// SunObserverEnabled reports whether observer coordinates are configured.
func (a AnalyticsSettings) SunObserverEnabled() bool {
	return a.Latitude != 0 || a.Longitude != 0
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Listen         string  `yaml:"listen"`         // listen address, e.g. ":5000"
	BodyLimit      string  `yaml:"bodylimit"`      // echo body limit, e.g. "16M"
	RateLimit      float64 `yaml:"ratelimit"`      // uploads per second per client, 0 disables
	RateLimitBurst int     `yaml:"ratelimitburst"` // burst size for the upload limiter
	Debug          bool    `yaml:"debug"`
}

// MQTTSettings contains settings for MQTT integration.
type MQTTSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // tcp://host:port
	Topic    string `yaml:"topic"`  // base topic, events go to <topic>/detections
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"clientid"`
}

// NotificationSettings contains settings for hotspot alerts.
type NotificationSettings struct {
	Enabled          bool     `yaml:"enabled"`
	URLs             []string `yaml:"urls"`             // shoutrrr service URLs
	HotspotThreshold int      `yaml:"hotspotthreshold"` // location item total that triggers an alert
}

// TelemetrySettings contains settings for the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// SentrySettings contains settings for opt-in error reporting.
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

// Settings contains all configuration options for litterscan.
type Settings struct {
	Debug        bool                 `yaml:"debug"`
	Logging      logger.LoggingConfig `yaml:"logging"`
	Store        StoreSettings        `yaml:"store"`
	Images       ImageSettings        `yaml:"images"`
	Vision       VisionSettings       `yaml:"vision"`
	Narrative    NarrativeSettings    `yaml:"narrative"`
	Analytics    AnalyticsSettings    `yaml:"analytics"`
	WebServer    WebServerSettings    `yaml:"webserver"`
	MQTT         MQTTSettings         `yaml:"mqtt"`
	Notification NotificationSettings `yaml:"notification"`
	Telemetry    TelemetrySettings    `yaml:"telemetry"`
	Sentry       SentrySettings       `yaml:"sentry"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	configFile       string
)

// SetConfigFile forces Load to read the given file instead of searching the default paths.
func SetConfigFile(path string) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	configFile = path
}

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(viper.GetViper(), configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults and env bindings, then reads the configuration file.
// A missing file is replaced by a freshly written default configuration.
func initViper(v *viper.Viper, explicitFile string) error {
	setDefaultConfig(v)

	if err := bindEnvVars(v); err != nil {
		// ValidateSettings rejects the values that matter.
		GetLogger().Warn("environment variable issues", logger.Error(err))
	}

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("fatal error reading config file %s: %w", explicitFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(v, configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// createDefaultConfig writes the default settings as yaml into dir and reads it back.
func createDefaultConfig(v *viper.Viper, dir string) error {
	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	v.SetConfigFile(configPath)
	return v.ReadInConfig()
}

// DefaultSettings returns the settings produced by defaults alone.
func DefaultSettings() (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling default settings: %w", err)
	}
	return settings, nil
}

// DefaultConfigYAML renders the default settings as a yaml document.
func DefaultConfigYAML() ([]byte, error) {
	settings, err := DefaultSettings()
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
