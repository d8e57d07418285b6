package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

// WriteTimer measures one destination write
type WriteTimer struct {
	start       time.Time
	metrics     *Metrics
	destination string
}

// NewWriteTimer creates a timer for a destination write
func NewWriteTimer(metrics *Metrics, destination string) *WriteTimer {
	return &WriteTimer{
		start:       time.Now(),
		metrics:     metrics,
		destination: destination,
	}
}

// Stop stops the timer and records the bytes written
func (t *WriteTimer) Stop(n int) {
	duration := time.Since(t.start)
	t.metrics.RecordDestWrite(t.destination, n, duration)
}
