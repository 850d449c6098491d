package middleware

import (
	"time"

	"github.com/damoang/angple-cms/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with structured fields.
// Register after RequestContext and JWTAuth so the ids are available.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := logger.GetLogger().Info()
		if status >= 500 {
			event = logger.GetLogger().Error()
		} else if status >= 400 {
			event = logger.GetLogger().Warn()
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Uint64("actor_id", GetActorID(c)).
			Int("body_size", c.Writer.Size()).
			Msg("request")
	}
}
