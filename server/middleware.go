package server

import (
	"net/http"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"teraproxy/internal"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	// idle clients are forgotten after this long
	limiterTTL = 10 * time.Minute
)

// AllowAllCORS answers preflight requests and lets browsers read every response
func AllowAllCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		h.Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Accept, Range")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// RequestLogger tags each request with an id and logs it once it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		logger := internal.GetLogger().With("request_id", id)
		c.Set(loggerKey, logger)

		start := time.Now()
		c.Next()

		logger.Info("%s %s %d %s %s", c.Request.Method, c.Request.URL.String(), c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.ClientIP())
	}
}

func requestLogger(c *gin.Context) *internal.SecureLogger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*internal.SecureLogger); ok {
			return logger
		}
	}
	return internal.GetLogger()
}

// clientLimiter keeps one token bucket per client address
type clientLimiter struct {
	mu       sync.Mutex
	limiters *ttlworker.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &clientLimiter{
		limiters: ttlworker.NewCache[string, *rate.Limiter](limiterTTL),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (l *clientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter := l.limiters.Get(key)
	if limiter == nil {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	// refresh the entry so active clients keep their bucket
	l.limiters.Set(key, limiter)
	return limiter
}

func (l *clientLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// RateLimit rejects clients that exceed the configured request rate.
// A non-positive rate disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newClientLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			requestLogger(c).Warn("rate limit exceeded for %s", c.ClientIP())
			respondError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
