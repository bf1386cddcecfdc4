package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"golang.org/x/time/rate"
)

const kindRateLimited domain.Kind = "rate_limited"

const (
	limiterIdleTTL         = 10 * time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// IPRateLimiter keeps one token bucket per client address. Buckets for
// addresses that stay quiet are evicted after limiterIdleTTL.
type IPRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(limiterIdleTTL, limiterCleanupInterval),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the rate limiter for an IP address.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if existing, found := i.limiters.Get(ip); found {
		limiter := existing.(*rate.Limiter)
		i.limiters.Set(ip, limiter, cache.DefaultExpiration)
		return limiter
	}
	limiter := rate.NewLimiter(i.r, i.b)
	if err := i.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		// Another request created the bucket first.
		if existing, found := i.limiters.Get(ip); found {
			return existing.(*rate.Limiter)
		}
	}
	return limiter
}

// Middleware rejects requests beyond the per-address budget with 429.
func (i *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !i.GetLimiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorPayload{
				Error:   kindRateLimited,
				Message: "too many submissions, slow down",
			})
			return
		}
		c.Next()
	}
}
