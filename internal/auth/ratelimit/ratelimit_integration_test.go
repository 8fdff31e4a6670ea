//go:build integration

package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placelist/pkg/testutil/containers"
)

func TestAllowAgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := New(rc.Client, time.Minute, logger)
	ctx := context.Background()

	require.NoError(t, rc.FlushAll(ctx))

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "recovery", "ana@example.com", 3))
	}
	assert.False(t, limiter.Allow(ctx, "recovery", "ana@example.com", 3))

	ttl, err := rc.Client.TTL(ctx, rc.Client.Keys(ctx, "ratelimit:*").Val()[0]).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "the window key must expire")
}
