package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limits holds the per-IP budgets. Redemption is far burstier than the
// report endpoints (a whole class scans within a minute or two), so writes
// carry their own budget instead of sharing one global rate.
type Limits struct {
	WritePerMin int
	ReadPerMin  int
}

// IPRateLimiter enforces token buckets per client IP, split by route class.
// In-memory per process; a shared deployment-wide limit would move this to
// Redis.
type IPRateLimiter struct {
	limits Limits
	mu     sync.Mutex
	state  map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewIPRateLimiter creates a limiter. Non-positive budgets disable the
// corresponding route class.
func NewIPRateLimiter(limits Limits) *IPRateLimiter {
	return &IPRateLimiter{
		limits: limits,
		state:  make(map[string]*bucket),
	}
}

// ForWrites limits issuance and redemption routes.
func (l *IPRateLimiter) ForWrites() gin.HandlerFunc {
	return l.middleware("w", l.limits.WritePerMin)
}

// ForReads limits the report routes.
func (l *IPRateLimiter) ForReads() gin.HandlerFunc {
	return l.middleware("r", l.limits.ReadPerMin)
}

func (l *IPRateLimiter) middleware(class string, perMin int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if perMin <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(class+":"+ip, perMin) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

// allow takes one token from the bucket for key, refilling at perMin. The
// bucket's capacity equals its per-minute rate.
func (l *IPRateLimiter) allow(key string, perMin int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.state[key]
	now := time.Now()
	if !ok {
		l.state[key] = &bucket{tokens: perMin - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(perMin))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > perMin {
			b.tokens = perMin
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
