package middlewares

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/hpp-app/utils"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	ips     map[string]*visitor
	mu      sync.Mutex
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		ips:     make(map[string]*visitor),
	}
}

// NewStrictRateLimiter guards login and registration: 5 requests per minute
// per IP. Idle IPs are forgotten until ctx is done.
func NewStrictRateLimiter(ctx context.Context) gin.HandlerFunc {
	rl := &RateLimiter{
		limit:   rate.Every(time.Minute / 5),
		burst:   5,
		idleTTL: 10 * time.Minute,
		ips:     make(map[string]*visitor),
	}
	rl.StartCleanup(ctx, time.Minute)
	return rl.limitWith("Terlalu banyak percobaan, silakan tunggu beberapa saat")
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.ips[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.ips[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup forgets IPs idle for longer than the idle TTL and returns how many
// were removed.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, v := range rl.ips {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.ips, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.Cleanup(now)
			}
		}
	}()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return rl.limitWith("too many requests")
}

func (rl *RateLimiter) limitWith(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()
		if !rl.allow(c.ClientIP(), now) {
			utils.AbortWithError(c, http.StatusTooManyRequests, errors.New(message))
			return
		}
		c.Next()
	}
}
