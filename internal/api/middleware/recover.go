package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/litterscan/litterscan/internal/errors"
	"github.com/litterscan/litterscan/internal/logger"
)

// NewRecover turns handler panics into 500 responses. The panic is wrapped
// in an enhanced error so it reaches the telemetry reporter.
func NewRecover(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         4 << 10,
		DisablePrintStack: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			enhanced := errors.New(err).
				Component("api").
				Category(errors.CategoryGeneric).
				Context("path", c.Path()).
				Context("method", c.Request().Method).
				Build()
			if log != nil {
				log.Error("panic recovered in HTTP handler",
					logger.Error(enhanced),
					logger.String("path", c.Request().URL.Path),
					logger.String("stack", string(stack)))
			}
			return enhanced
		},
	})
}
