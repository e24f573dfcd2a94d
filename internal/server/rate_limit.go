package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/platebook/platebook/internal/observability/logger"
	"github.com/platebook/platebook/internal/ratelimit"
	"go.uber.org/zap"
)

// rateLimiter is a small fixed-window counter for public endpoints that
// cannot be keyed to a user. It is per process, which is enough to blunt
// token scanning on the invitation preview route.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	starts  map[string]time.Time
	counts  map[string]int
	nowFunc func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		starts:  make(map[string]time.Time),
		counts:  make(map[string]int),
		nowFunc: time.Now,
	}
}

func (r *rateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	start, ok := r.starts[key]
	if !ok || now.Sub(start) >= r.window {
		r.starts[key] = now
		r.counts[key] = 1
		return true
	}

	if r.counts[key] >= r.limit {
		return false
	}
	r.counts[key]++
	return true
}

func (s *Server) PreviewRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.invitePreviewLimiter == nil {
			c.Next()
			return
		}
		if !s.invitePreviewLimiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

// InviteRateLimit throttles invitation creation per inviter and per book
// through the shared redis buckets. A missing limiter allows everything.
func (s *Server) InviteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		userID, ok := s.userIDFromSession(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		bookID := c.Param("id")

		ctx := c.Request.Context()
		result, err := s.limiter.AllowInviteUser(ctx, userID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("invite user rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyInviteRateLimit(c, result)
			return
		}

		result, err = s.limiter.AllowInviteBook(ctx, bookID)
		if err != nil {
			logger.FromContext(ctx).Warn("invite book rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyInviteRateLimit(c, result)
			return
		}

		c.Next()
	}
}

func denyInviteRateLimit(c *gin.Context, result *ratelimit.RateLimitResult) {
	retryAfter := int(result.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}
