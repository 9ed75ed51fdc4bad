package middleware

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/newsboy-backend/internal/http/response"
	"github.com/yungbote/newsboy-backend/internal/platform/ctxutil"
)

const (
	DefaultGenerateRatePerMinute = 30

	// A bucket refills completely within a minute, so one idle this long
	// holds no state worth keeping.
	bucketIdleTTL = 10 * time.Minute
)

// UserRateLimiter keeps one token bucket per authenticated user. Buckets
// refill at perMinute/60 per second with a burst of perMinute. Idle buckets
// are swept on access, at most once per bucketIdleTTL.
type UserRateLimiter struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*userBucket
	lastSweep time.Time
	now       func() time.Time
}

type userBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultGenerateRatePerMinute
	}
	return &UserRateLimiter{
		perMinute: perMinute,
		buckets:   map[string]*userBucket{},
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *UserRateLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= bucketIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.seen) >= bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &userBucket{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// Middleware must sit behind RequireAuth; anonymous callers share the
// client IP as their key.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			key = rd.UserID.String()
		}
		if !l.bucket(key).Allow() {
			c.Header("Retry-After", "60")
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errors.New("too many generation requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
