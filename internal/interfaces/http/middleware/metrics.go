package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that hit no route, keeping metric cardinality bounded
const unmatchedRoute = "unmatched"

// HTTPMetrics records request latency by method, route pattern and status.
// A nil metrics value disables recording.
func HTTPMetrics(metrics *telemetry.StorefrontMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metrics.RecordHTTPRequest(c.Request.Context(), c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start))
	}
}

func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
