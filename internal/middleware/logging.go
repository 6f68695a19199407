package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/metrics"
)

// Logging logs every request and records its latency. It logs the route,
// status, user ID and duration, and the last handler error if any.
func Logging(logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveRequest(route, c.Request.Method, strconv.Itoa(status), elapsed.Seconds())

		var userID string
		if id, ok := GetIdentity(c); ok {
			userID = id.UserID
		}
		attrs := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"user_id", userID,
			"duration_ms", elapsed.Milliseconds(),
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, "error", err.Err)
		}

		switch {
		case status >= 500:
			logger.Error("HTTP error", attrs...)
		case status >= 400:
			logger.Warn("HTTP error", attrs...)
		default:
			logger.Info("HTTP ok", attrs...)
		}
	}
}
