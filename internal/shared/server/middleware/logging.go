package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if v := c.GetString("sessionId"); v != "" {
			fields["session_id"] = v
		}
		if v := c.GetString("userId"); v != "" {
			fields["user_id"] = v
		}
		if v, ok := c.Get("reportsProcessed"); ok {
			fields["reports_processed"] = v
		}
		telemetry.Info("request.complete", fields)
	}
}
