package middleware

import (
	"time"

	"GridCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request with method, path, status and latency.
// Requests against the metrics endpoint are skipped to keep scrape noise out
// of the logs.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil || c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			fields := []logger.Field{
				logger.String("method", c.Request().Method),
				logger.String("path", c.Request().URL.Path),
				logger.String("remote", c.RealIP()),
				logger.Int("status", c.Response().Status),
				logger.Duration("latency_ms", time.Since(start)),
			}
			if err != nil {
				l.Warn("request failed", append(fields, logger.Error(err))...)
			} else {
				l.Info("request", fields...)
			}

			return err
		}
	}
}
