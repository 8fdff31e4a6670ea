// Package identity defines the port to the external identity provider.
//
// The provider is the system of record for credentials and sessions. This
// application never stores passwords or mints tokens itself; it consumes the
// capabilities below and enforces access policy around them. Implementations
// live in subpackages (gotrue for the HTTP backend, identitytest for the
// in-memory fake).
package identity

import (
	"context"
	"time"
)

// Purpose names the one-time-token flavor embedded in an email link.
type Purpose string

const (
	PurposeEmailVerify Purpose = "email"
	PurposeRecovery    Purpose = "recovery"
)

// ValidPurpose reports whether s names a known one-time-token purpose.
// "signup" is accepted as an alias the provider uses for first-time email
// verification links.
func ValidPurpose(s string) (Purpose, bool) {
	switch s {
	case "email", "signup":
		return PurposeEmailVerify, true
	case "recovery":
		return PurposeRecovery, true
	}
	return "", false
}

// RevocationScope selects which of a subject's sessions to invalidate.
type RevocationScope string

const (
	// ScopeAll revokes every active session for the subject.
	ScopeAll RevocationScope = "all"
	// ScopeOthers revokes every session except the one presented with the
	// current request.
	ScopeOthers RevocationScope = "others"
)

// Identity is the resolved principal behind a verification. Email may be
// empty for subjects provisioned without one.
type Identity struct {
	Subject string
	Email   string
}

// Session is the opaque handle issued by the provider for a logged-in
// identity. The application requests creation and invalidation but never
// mutates a session directly.
type Session struct {
	AccessToken  string
	RefreshToken string
	Subject      string
	Email        string
	ExpiresAt    time.Time
}

// Provider is the full capability set consumed from the identity backend.
// Every method is a blocking network call; callers pass request-scoped
// context and must treat any error as the operation not having happened.
// The session credential for CurrentSession, RefreshSession, UpdatePassword
// and InvalidateSessions travels in the context (requestcontext tokens).
type Provider interface {
	// VerifyOneTimeToken redeems a single-use email-link token. On success a
	// session is established for the resolved identity.
	VerifyOneTimeToken(ctx context.Context, tokenHash string, purpose Purpose) (Identity, error)

	// ExchangeCode redeems a single-use authorization code. On success a
	// session is established for the resolved identity.
	ExchangeCode(ctx context.Context, code string) (Identity, error)

	// CurrentSession resolves the identity behind the caller's presented
	// credential. Returns sentinel.ErrNoSession when none is usable.
	CurrentSession(ctx context.Context) (Identity, error)

	// RefreshSession rotates the caller's session using its refresh
	// credential. Best-effort users may ignore the error.
	RefreshSession(ctx context.Context) error

	// CreateAccount registers a new account. The provider sends the
	// verification email itself.
	CreateAccount(ctx context.Context, email, password string) (Identity, error)

	// SendRecoveryEmail dispatches a password-recovery link. The provider
	// must not error observably on unknown accounts.
	SendRecoveryEmail(ctx context.Context, email string) error

	// UpdatePassword replaces the password of the identity behind the
	// current session.
	UpdatePassword(ctx context.Context, newPassword string) error

	// VerifyCredential checks an email/password pair without affecting the
	// caller's session.
	VerifyCredential(ctx context.Context, email, password string) error

	// InvalidateSessions revokes the subject's sessions per scope.
	InvalidateSessions(ctx context.Context, subject string, scope RevocationScope) error
}
