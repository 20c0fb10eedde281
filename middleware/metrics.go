package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/caltrack/metrics"
)

// Metrics records request counts and latency by matched route. The scrape endpoint itself is skipped.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		done := metrics.InFlight()
		defer done()

		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// Procedure tags the request with a remote procedure name under key and records the call
// as ok, rejected (4xx) or error (5xx).
func Procedure(key, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, name)
		start := time.Now()
		c.Next()

		outcome := "ok"
		switch status := c.Writer.Status(); {
		case status >= 500:
			outcome = "error"
		case status >= 400:
			outcome = "rejected"
		}
		metrics.RecordProcedure(name, outcome, time.Since(start))
	}
}
