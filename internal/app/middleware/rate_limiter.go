package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/error/response"
	"accessible-env-backend/pkg/logger"
)

// RateLimiterConfig configures a limiter
type RateLimiterConfig struct {
	Rate    rate.Limit                // tokens per second
	Burst   int                       // bucket size
	Expiry  time.Duration             // idle limiters are dropped after this long
	KeyFunc func(*gin.Context) string // defaults to the client IP
}

// DefaultRateLimiterConfig allows 10 requests per second with bursts of 20
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:   10,
	Burst:  20,
	Expiry: 10 * time.Minute,
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	cfg      RateLimiterConfig
	now      func() time.Time
}

// NewRateLimiter fills missing config fields from DefaultRateLimiterConfig
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultRateLimiterConfig.Expiry
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		cfg:      cfg,
		now:      time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = rl.now()
	return e.limiter
}

// Allow consumes one token for key
func (rl *RateLimiter) Allow(key string) bool {
	return rl.get(key).Allow()
}

// Cleanup drops limiters idle for longer than the expiry and returns how
// many were removed
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.cfg.Expiry)
	removed := 0
	for key, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}

// RunCleanup calls Cleanup every interval until ctx is done
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				logger.Debug("dropped %d idle rate limiters", n)
			}
		}
	}
}

// Size returns the number of tracked keys
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Handler rejects requests over the limit with 429
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.cfg.KeyFunc(c)
		if !rl.Allow(key) {
			logger.Get().Warn().Str("key", key).Str("path", c.FullPath()).Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rl.cfg.Rate)))
			response.Fail(c, code.ErrTooManyRequests, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(r rate.Limit) int {
	if r >= 1 {
		return 1
	}
	return int(1/float64(r)) + 1
}

// IPRateLimiter limits per client IP
func IPRateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	return NewRateLimiter(RateLimiterConfig{Rate: r, Burst: burst}).Handler()
}
