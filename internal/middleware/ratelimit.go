package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a caller's limiter survives without requests.
const idleLimiterTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per caller.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	onReject func()
	logger   *zap.Logger
}

// NewRateLimiter allows rpm requests per minute with the given burst.
// A non-positive rpm disables limiting.
func NewRateLimiter(rpm, burst int, logger *zap.Logger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: cache.New(idleLimiterTTL, idleLimiterTTL),
		limit:    rate.Limit(float64(rpm) / 60.0),
		burst:    burst,
		logger:   logger,
	}
}

// OnReject registers a callback run for every rejected request.
func (r *RateLimiter) OnReject(fn func()) {
	r.onReject = fn
}

// Allow reports whether key may make another request now.
func (r *RateLimiter) Allow(key string) bool {
	if r.limit <= 0 {
		return true
	}
	return r.limiter(key).Allow()
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters.Get(key); ok {
		r.limiters.SetDefault(key, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters.SetDefault(key, l)
	return l
}

// Middleware keys callers by user id, or by client IP before
// authentication.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetUserID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !r.Allow(key) {
			r.logger.Warn("rate limit exceeded", zap.String("key", key))
			if r.onReject != nil {
				r.onReject()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "demasiadas peticiones, inténtalo de nuevo en unos segundos",
			})
			return
		}
		c.Next()
	}
}
