package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/pkg/logger"
)

// ClientIP stores the client address in the request context so services
// can put it into the audit log
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(services.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// RequestLogger writes one access log line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Get().Error()
		case status >= 400:
			event = logger.Get().Warn()
		default:
			event = logger.Get().Info()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Int("size", c.Writer.Size())
		if actor, ok := GetActor(c); ok {
			event = event.Uint("user_id", actor.ID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}
