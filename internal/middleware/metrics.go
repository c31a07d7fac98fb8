package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/metrics"
)

// Metrics records request count, latency and in-flight requests, labelled by route pattern.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		c.Next()

		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
