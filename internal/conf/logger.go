// Package conf provides configuration management for litterscan.
package conf

import "github.com/litterscan/litterscan/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
