package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placelist/pkg/requestcontext"
)

func newLimiter(t *testing.T, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(rdb, window, logger), mr
}

func TestAllowUnderLimit(t *testing.T) {
	limiter, _ := newLimiter(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow(ctx, "recovery", "ana@example.com", 5))
	}
	assert.False(t, limiter.Allow(ctx, "recovery", "ana@example.com", 5))
}

func TestAllowWindowResets(t *testing.T) {
	limiter, mr := newLimiter(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limiter.Allow(ctx, "recovery", "ana@example.com", 3)
	}
	require.False(t, limiter.Allow(ctx, "recovery", "ana@example.com", 3))

	mr.FastForward(time.Hour + time.Second)
	assert.True(t, limiter.Allow(ctx, "recovery", "ana@example.com", 3))
}

func TestAllowSeparatesActionsAndIdentifiers(t *testing.T) {
	limiter, _ := newLimiter(t, time.Hour)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "recovery", "ana@example.com", 1))
	require.False(t, limiter.Allow(ctx, "recovery", "ana@example.com", 1))

	assert.True(t, limiter.Allow(ctx, "signup", "ana@example.com", 1), "actions count separately")
	assert.True(t, limiter.Allow(ctx, "recovery", "bob@example.com", 1), "identifiers count separately")
}

func TestAllowSeparatesClientIPs(t *testing.T) {
	limiter, _ := newLimiter(t, time.Hour)
	ipA := requestcontext.WithClientIP(context.Background(), "192.0.2.10")
	ipB := requestcontext.WithClientIP(context.Background(), "192.0.2.20")

	require.True(t, limiter.Allow(ipA, "recovery", "ana@example.com", 1))
	require.False(t, limiter.Allow(ipA, "recovery", "ana@example.com", 1))
	assert.True(t, limiter.Allow(ipB, "recovery", "ana@example.com", 1))
}

func TestAllowIdentifierNormalized(t *testing.T) {
	limiter, _ := newLimiter(t, time.Hour)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "recovery", "Ana@Example.com ", 1))
	assert.False(t, limiter.Allow(ctx, "recovery", "ana@example.com", 1))
}

func TestAllowFailsOpen(t *testing.T) {
	limiter, mr := newLimiter(t, time.Hour)
	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "recovery", "ana@example.com", 1))
}

func TestAllowNilLimiter(t *testing.T) {
	var limiter *Limiter
	assert.True(t, limiter.Allow(context.Background(), "recovery", "ana@example.com", 1))
}

func TestAllowZeroLimit(t *testing.T) {
	limiter, _ := newLimiter(t, time.Hour)
	assert.True(t, limiter.Allow(context.Background(), "recovery", "ana@example.com", 0),
		"a non-positive limit disables the limiter")
}

func TestKeysCarryNoRawEmail(t *testing.T) {
	limiter, mr := newLimiter(t, time.Hour)
	limiter.Allow(context.Background(), "recovery", "ana@example.com", 5)

	for _, key := range mr.Keys() {
		assert.NotContains(t, key, "ana@example.com")
	}
	require.NotEmpty(t, mr.Keys())
}
