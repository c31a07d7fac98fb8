package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Logging writes one access record per request; the level follows the status class.
func Logging(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("module", "http").Str("component", "access").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev = ev.Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Dur("took", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if query != "" {
			ev = ev.Str("query", query)
		}
		if id := GetRequestID(c); id != "" {
			ev = ev.Str("request_id", id)
		}
		if claims, ok := ClaimsFrom(c); ok {
			ev = ev.Str("user", claims.Name)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("http request")
	}
}
