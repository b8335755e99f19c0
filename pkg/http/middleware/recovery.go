package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"GridCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts panics into 500 responses so one bad forecast request
// cannot take the server down.
func Recover(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					if l != nil {
						l.Error("panic recovered",
							logger.Error(err),
							logger.String("path", c.Request().URL.Path),
							logger.String("stack", string(debug.Stack())),
						)
					}
					_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"error": "internal server error",
					})
				}
			}()
			return next(c)
		}
	}
}
