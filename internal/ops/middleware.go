package ops

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/streamdup/internal/logging"
	"github.com/GriffinCanCode/streamdup/internal/shared/id"
)

// RequestIDHeader carries the per-request ULID on responses.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key the request logger reads.
const requestIDKey = "request_id"

// CORSConfig defines CORS configuration options.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the permissive configuration used for the
// diagnostics surface. The ops server is read-only, so only GET and the
// preflight verb are allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"}, // Configure specific origins in production
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Accept",
			"Origin",
			"Cache-Control",
			"X-Requested-With",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     cfg.AllowMethods,
		AllowHeaders:     cfg.AllowHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// DefaultRateLimitConfig returns the default ops rate limit.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
	}
}

// GlobalRateLimit creates a rate limiting middleware shared by all
// clients. The ops surface serves a handful of dashboards at most, so a
// single global bucket is enough.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestID tags every request with a fresh ULID, stored on the context
// and echoed in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := id.NewRequestID().String()
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Next()
	}
}

// RequestLogger emits one structured line per completed request.
func RequestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Debug("request",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
