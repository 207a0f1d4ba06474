package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latencies labelled by route template,
// so that path parameters do not explode label cardinality.  Unmatched
// routes are recorded as "unmatched".
func Metrics(m *prometheus.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		active := m.ActiveRequests.WithLabelValues()
		active.Inc()
		start := time.Now()

		c.Next()

		active.Dec()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
