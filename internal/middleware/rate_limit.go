package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// ipLimiters holds one token bucket per client IP.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

// RateLimit applies a per-IP token bucket allowing perMinute requests a
// minute with a burst of half that.
func RateLimit(perMinute int) gin.HandlerFunc {
	perMinute = max(perMinute, 1)
	l := &ipLimiters{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
	}

	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.String(http.StatusTooManyRequests, "Too many requests, slow down.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (l *ipLimiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for k, v := range l.limiters {
		if now.After(v.expires) {
			delete(l.limiters, k)
		}
	}

	if v, ok := l.limiters[key]; ok {
		v.expires = now.Add(5 * time.Minute)
		return v.limiter
	}
	v := &rateLimiter{
		limiter: rate.NewLimiter(l.limit, l.burst),
		expires: now.Add(5 * time.Minute),
	}
	l.limiters[key] = v
	return v.limiter
}
