// Package ratelimit bounds the enumeration-protected endpoints (recovery
// email, sign-up) with a Redis fixed window. A tripped or unreachable
// limiter never changes the response shape: the caller still sees the
// generic success, only the provider call is skipped or allowed through.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"placelist/pkg/requestcontext"
)

// Limiter is a fixed-window counter keyed by action, hashed identifier, and
// client IP. A nil Limiter allows everything, so wiring is optional.
type Limiter struct {
	rdb    redis.Cmdable
	window time.Duration
	logger *slog.Logger
}

func New(rdb redis.Cmdable, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{rdb: rdb, window: window, logger: logger}
}

// Allow reports whether the action may proceed for the identifier in the
// current window. Redis being unreachable fails open: for
// enumeration-protected endpoints availability wins over throttling.
func (l *Limiter) Allow(ctx context.Context, action, identifier string, limit int) bool {
	if l == nil || l.rdb == nil || limit <= 0 {
		return true
	}

	key := "ratelimit:" + action + ":" + hashIdentifier(identifier) + ":" + requestcontext.ClientIP(ctx)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, failing open",
			"action", action,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return true
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			l.logger.WarnContext(ctx, "rate limiter expire failed",
				"action", action,
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return count <= int64(limit)
}

// hashIdentifier keeps raw emails out of Redis keys.
func hashIdentifier(identifier string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(identifier))))
	return hex.EncodeToString(sum[:8])
}
