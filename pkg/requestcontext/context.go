// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and the identity adapter consume
// them. Keeping the package free of net/http lets domain code import only
// what it needs.
package requestcontext

import (
	"context"
	"sync"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey     struct{}
	clientIPKey      struct{}
	sessionTokensKey struct{}
	sessionWriterKey struct{}
)

// tokenPair holds the session credentials for the request. It is mutable on
// purpose: when the identity adapter establishes or rotates a session
// mid-request, later provider calls on the same context must see the fresh
// tokens.
type tokenPair struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// SessionWriter receives session material established or refreshed during a
// request so the transport layer can persist it (cookie jar in production,
// in-memory recorder in tests). EstablishSession must be called before the
// response body is written.
type SessionWriter interface {
	EstablishSession(accessToken, refreshToken string, expiresAt time.Time)
	ClearSession()
}

// RequestID retrieves the correlation ID set by middleware, empty if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// ClientIP retrieves the remote client address, empty if unset.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientIP injects the remote client address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// AccessToken retrieves the current session credential, empty if the request
// carried none and none was established since.
func AccessToken(ctx context.Context) string {
	if p, ok := ctx.Value(sessionTokensKey{}).(*tokenPair); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.access
	}
	return ""
}

// RefreshToken retrieves the current refresh credential, empty if the request
// carried none and none was established since.
func RefreshToken(ctx context.Context) string {
	if p, ok := ctx.Value(sessionTokensKey{}).(*tokenPair); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.refresh
	}
	return ""
}

// WithSessionTokens injects the caller's session credentials into the context.
func WithSessionTokens(ctx context.Context, accessToken, refreshToken string) context.Context {
	return context.WithValue(ctx, sessionTokensKey{}, &tokenPair{access: accessToken, refresh: refreshToken})
}

// SetSessionTokens replaces the credentials in place so later reads on the
// same context observe them. No-op when WithSessionTokens was never called.
func SetSessionTokens(ctx context.Context, accessToken, refreshToken string) {
	if p, ok := ctx.Value(sessionTokensKey{}).(*tokenPair); ok {
		p.mu.Lock()
		p.access = accessToken
		p.refresh = refreshToken
		p.mu.Unlock()
	}
}

// Writer retrieves the session writer for the current request, nil if the
// transport did not install one.
func Writer(ctx context.Context) SessionWriter {
	if v, ok := ctx.Value(sessionWriterKey{}).(SessionWriter); ok {
		return v
	}
	return nil
}

// WithWriter installs a session writer into the context.
func WithWriter(ctx context.Context, w SessionWriter) context.Context {
	return context.WithValue(ctx, sessionWriterKey{}, w)
}
