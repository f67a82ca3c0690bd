package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/physiocare/dashboard/internal/platform/metrics"
)

// Metrics records request counts and latency labelled by route template so
// ids in paths do not explode label cardinality.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			metrics.RequestStarted()
			defer metrics.RequestFinished()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveRequest(c.Request().Method, route, responseStatus(c, err), time.Since(start))
			return err
		}
	}
}
