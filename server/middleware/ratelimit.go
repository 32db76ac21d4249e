package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/auth/authctx"
	apperrors "github.com/william251082/fileupload/errors"
)

// RateLimitConfig configures the sliding-window limiter.
type RateLimitConfig struct {
	// RequestsPerMinute per key; zero or negative disables limiting.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	// KeyFunc picks the limiter key. Defaults to SubjectKey.
	KeyFunc func(*gin.Context) string `mapstructure:"-"`
}

// RateLimit limits requests per key over a one-minute sliding window.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = SubjectKey
	}
	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    cfg.RequestsPerMinute,
		window:   time.Minute,
		now:      time.Now,
	}

	return func(c *gin.Context) {
		if !rl.allow(cfg.KeyFunc(c)) {
			c.Header("Retry-After", strconv.Itoa(int(rl.window/time.Second)))
			err := apperrors.New(apperrors.ErrCodeRateLimited, "Too many requests. Please slow down.", http.StatusTooManyRequests)
			c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
			return
		}
		c.Next()
	}
}

// SubjectKey keys on the authenticated user, falling back to the client IP.
func SubjectKey(c *gin.Context) string {
	if claims, ok := authctx.Get[*auth.Claims](c.Request.Context()); ok && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	return "ip:" + c.ClientIP()
}

type rateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastSweep) > 5*rl.window {
		rl.sweep(cutoff)
		rl.lastSweep = now
	}

	valid := filterByTime(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no request inside the window.
func (rl *rateLimiter) sweep(cutoff time.Time) {
	for key, times := range rl.requests {
		if valid := filterByTime(times, cutoff); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func filterByTime(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
