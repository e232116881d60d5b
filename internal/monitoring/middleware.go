package monitoring

import (
	"time"

	"github.com/gin-gonic/gin"
)

// MonitoringMiddleware creates Gin middleware for request monitoring
func MonitoringMiddleware(metrics *Metrics, logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		// Route templates keep label cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(route, c.Request.Method, statusCode, duration)

		// Metrics scraping would drown the request log.
		if route == "/metrics" {
			return
		}
		logger.RequestLogger(c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.GetHeader("User-Agent"), statusCode, duration)

		if duration > 5*time.Second {
			logger.Warn("Slow request", "path", route, "duration_ms", duration.Milliseconds())
		}
	}
}
