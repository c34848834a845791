package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/infrastructure/metrics"
)

// Metrics records request counts and latencies per route template.
// Unmatched routes share one label.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		done := metrics.RequestStarted()
		start := time.Now()

		c.Next()

		done()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
