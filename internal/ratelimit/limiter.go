package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platebook/platebook/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyInviteUser = "invite:user:%s"
	keyInviteBook = "invite:book:%s"
	keyImportUser = "import:user:%s"
	keyImportLock = "import:lock:%s:%s"
)

// Limiter throttles invitation and OCR import traffic per user and per book.
// A nil or disabled limiter allows everything.
type Limiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	inviteUserRate  float64
	inviteUserBurst int
	inviteBookRate  float64
	inviteBookBurst int
	importUserRate  float64
	importUserBurst int
	importLockTTL   time.Duration
}

func NewLimiter(cfg config.Config) (*Limiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.InviteUserRate <= 0 || limitCfg.InviteUserBurst <= 0 {
		return nil, errors.New("invite user rate limit must be positive")
	}
	if limitCfg.InviteBookRate <= 0 || limitCfg.InviteBookBurst <= 0 {
		return nil, errors.New("invite book rate limit must be positive")
	}
	if limitCfg.ImportUserRate <= 0 || limitCfg.ImportUserBurst <= 0 {
		return nil, errors.New("import user rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &Limiter{
		enabled:         true,
		bucket:          NewTokenBucket(client),
		locker:          NewLocker(client),
		inviteUserRate:  limitCfg.InviteUserRate,
		inviteUserBurst: limitCfg.InviteUserBurst,
		inviteBookRate:  limitCfg.InviteBookRate,
		inviteBookBurst: limitCfg.InviteBookBurst,
		importUserRate:  limitCfg.ImportUserRate,
		importUserBurst: limitCfg.ImportUserBurst,
		importLockTTL:   time.Duration(limitCfg.ImportLockTTLSeconds) * time.Second,
	}, nil
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

func allowAll() *RateLimitResult {
	return &RateLimitResult{Allowed: true}
}

// AllowInviteUser throttles invitations created by a single user.
func (l *Limiter) AllowInviteUser(ctx context.Context, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return allowAll(), nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInviteUser, strings.TrimSpace(userID)), l.inviteUserRate, l.inviteUserBurst)
}

// AllowInviteBook throttles invitations targeting a single book.
func (l *Limiter) AllowInviteBook(ctx context.Context, bookID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return allowAll(), nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInviteBook, strings.TrimSpace(bookID)), l.inviteBookRate, l.inviteBookBurst)
}

// AllowImport throttles OCR imports started by a single user.
func (l *Limiter) AllowImport(ctx context.Context, userID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return allowAll(), nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyImportUser, strings.TrimSpace(userID)), l.importUserRate, l.importUserBurst)
}

// TryLockImport guards against the same user importing into the same book
// concurrently. The returned token releases the lock.
func (l *Limiter) TryLockImport(ctx context.Context, userID, bookID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyImportLock, strings.TrimSpace(userID), strings.TrimSpace(bookID))
	return l.locker.TryLock(ctx, key, l.importLockTTL)
}

func (l *Limiter) ReleaseImport(ctx context.Context, userID, bookID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyImportLock, strings.TrimSpace(userID), strings.TrimSpace(bookID))
	return l.locker.Release(ctx, key, token)
}
