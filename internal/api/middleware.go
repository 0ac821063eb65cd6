// internal/api/middleware.go
package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/StandfmAI/internal/utils"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	taskIDHeader    = "X-Task-ID"
)

// RateLimiter is a fixed-window limiter keyed by client. Expired windows are
// swept at most once per window, on the request path.
type RateLimiter struct {
	visitors  map[string]*Visitor
	limit     int
	window    time.Duration
	now       func() time.Time
	nextSweep time.Time
	mu        sync.Mutex
}

// Visitor is the window state of one client.
type Visitor struct {
	Remaining int
	Reset     time.Time
}

// NewRateLimiter allows limit requests per window per key.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*Visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow consumes one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.After(rl.nextSweep) {
		rl.sweep(now)
		rl.nextSweep = now.Add(rl.window)
	}

	visitor, exists := rl.visitors[key]
	if !exists || now.After(visitor.Reset) {
		visitor = &Visitor{Remaining: rl.limit, Reset: now.Add(rl.window)}
		rl.visitors[key] = visitor
	}

	if visitor.Remaining <= 0 {
		return false, 0, visitor.Reset
	}
	visitor.Remaining--
	return true, visitor.Remaining, visitor.Reset
}

// sweep drops expired windows. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, visitor := range rl.visitors {
		if now.After(visitor.Reset) {
			delete(rl.visitors, key)
		}
	}
}

// RateLimitByIP limits requests per client IP.
func RateLimitByIP(rl *RateLimiter, rh *ResponseHelper) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, reset := rl.Allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			rh.Error(c, http.StatusTooManyRequests, ErrorRateLimited, "リクエストが多すぎます。しばらくしてから再度お試しください")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware tags each request with an id, reusing the client's when given.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggingMiddleware logs every request and records it in metrics.
func LoggingMiddleware(logger *utils.Logger, metrics *utils.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(start)
		metrics.RecordAPIRequest(route, c.Request.Method, status, duration)

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": duration.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("HTTP request failed", fields)
		} else {
			logger.Info("HTTP request", fields)
		}
	}
}

// CORSMiddleware allows cross-origin calls from the web client.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID, X-Task-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
