package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitepulse/sitepulse/pkg/metrics"
)

// unmatchedRoute labels requests that hit no registered route. Using the raw
// URL path there would let arbitrary 404 probes mint unbounded label sets.
const unmatchedRoute = "unmatched"

// Metrics observes per-route request latency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
