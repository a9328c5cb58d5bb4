package metrics

import "github.com/litterscan/litterscan/internal/logger"

func getLogger() logger.Logger {
	return logger.Global().Module("metrics")
}
