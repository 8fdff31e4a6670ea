// Package testutil provides small helpers shared by test packages.
package testutil

import (
	"context"
	"sync"
	"time"

	"placelist/pkg/requestcontext"
)

// SessionRecorder implements requestcontext.SessionWriter in memory so tests
// can observe sessions the identity adapter establishes or clears.
type SessionRecorder struct {
	mu           sync.Mutex
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Cleared      bool
	Established  int
}

func (r *SessionRecorder) EstablishSession(accessToken, refreshToken string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AccessToken = accessToken
	r.RefreshToken = refreshToken
	r.ExpiresAt = expiresAt
	r.Cleared = false
	r.Established++
}

func (r *SessionRecorder) ClearSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.AccessToken = ""
	r.RefreshToken = ""
	r.Cleared = true
}

// ContextWithSession builds a context carrying the given session tokens and a
// fresh recorder, returning both.
func ContextWithSession(ctx context.Context, accessToken, refreshToken string) (context.Context, *SessionRecorder) {
	rec := &SessionRecorder{}
	ctx = requestcontext.WithSessionTokens(ctx, accessToken, refreshToken)
	ctx = requestcontext.WithWriter(ctx, rec)
	return ctx, rec
}
