package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/accord-backend/internal/observability"
)

// routeUnmatched labels requests that hit no route, so scanners cannot blow
// up label cardinality with arbitrary paths.
const routeUnmatched = "unmatched"

// Metrics records request counts and latency per route template. Scrapes of
// the metrics endpoint itself are not counted.
func Metrics(m *observability.Metrics, skip ...string) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[s] = struct{}{}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}
		if route == "" {
			route = routeUnmatched
		}
		done := m.TrackInflight()
		start := time.Now()
		c.Next()
		done()
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
