// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/litterscan.log")
	v.SetDefault("logging.file_output.level", "info")
	v.SetDefault("logging.module_levels", map[string]string{})

	v.SetDefault("store.capacity", DefaultStoreCapacity)
	v.SetDefault("store.backend", StoreBackendJSON)
	v.SetDefault("store.json.path", "uploads/detections.json")
	v.SetDefault("store.sqlite.path", "litterscan.db")
	v.SetDefault("store.mysql.host", "localhost")
	v.SetDefault("store.mysql.port", "3306")
	v.SetDefault("store.mysql.username", "")
	v.SetDefault("store.mysql.password", "")
	v.SetDefault("store.mysql.database", AppName)

	v.SetDefault("images.path", "uploads/images")
	v.SetDefault("images.urlprefix", "/images")

	v.SetDefault("vision.provider", ProviderGemini)
	v.SetDefault("vision.gemini.apikey", "")
	v.SetDefault("vision.gemini.model", "gemini-2.0-flash")
	v.SetDefault("vision.gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("vision.timeout", 30*time.Second)

	v.SetDefault("narrative.provider", ProviderGemini)
	v.SetDefault("narrative.gemini.apikey", "")
	v.SetDefault("narrative.gemini.model", "gemini-2.0-flash")
	v.SetDefault("narrative.gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("narrative.anthropic.apikey", "")
	v.SetDefault("narrative.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("narrative.anthropic.maxtokens", 1024)
	v.SetDefault("narrative.anthropic.endpoint", "")
	v.SetDefault("narrative.timeout", 30*time.Second)
	v.SetDefault("narrative.cachettl", 5*time.Minute)

	v.SetDefault("analytics.gridsize", 0.001)
	v.SetDefault("analytics.saturationitems", 10.0)
	v.SetDefault("analytics.hotspotlimit", 3)
	v.SetDefault("analytics.minpredictionrecords", 5)
	v.SetDefault("analytics.trendthreshold", 2)
	v.SetDefault("analytics.highrisklimit", 5)
	v.SetDefault("analytics.latitude", 0.0)
	v.SetDefault("analytics.longitude", 0.0)

	v.SetDefault("webserver.listen", ":5000")
	v.SetDefault("webserver.bodylimit", "16M")
	v.SetDefault("webserver.ratelimit", 5.0)
	v.SetDefault("webserver.ratelimitburst", 10)
	v.SetDefault("webserver.debug", false)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic", AppName)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.clientid", AppName)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.urls", []string{})
	v.SetDefault("notification.hotspotthreshold", 25)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "0.0.0.0:8090")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.debug", false)
}
