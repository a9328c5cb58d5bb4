// Package datastore provides the bounded detection store and its durable mirrors.
package datastore

import "github.com/litterscan/litterscan/internal/logger"

// GetLogger returns the datastore module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("datastore")
}
