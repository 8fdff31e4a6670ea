package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionTokens(t *testing.T) {
	ctx := WithSessionTokens(context.Background(), "access-1", "refresh-1")

	assert.Equal(t, "access-1", AccessToken(ctx))
	assert.Equal(t, "refresh-1", RefreshToken(ctx))
}

func TestSetSessionTokensVisibleThroughSameContext(t *testing.T) {
	ctx := WithSessionTokens(context.Background(), "access-1", "refresh-1")
	child := context.WithValue(ctx, struct{}{}, "unrelated")

	SetSessionTokens(child, "access-2", "refresh-2")

	assert.Equal(t, "access-2", AccessToken(ctx))
	assert.Equal(t, "refresh-2", RefreshToken(child))
}

func TestSetSessionTokensWithoutHolder(t *testing.T) {
	ctx := context.Background()
	SetSessionTokens(ctx, "access-1", "refresh-1")

	assert.Empty(t, AccessToken(ctx))
}

func TestEmptyContextAccessors(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, AccessToken(ctx))
	assert.Empty(t, RefreshToken(ctx))
	assert.Nil(t, Writer(ctx))
}

func TestRequestScopedValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithClientIP(ctx, "192.0.2.10")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "192.0.2.10", ClientIP(ctx))
}
