// Package identitytest provides an in-memory identity.Provider for tests.
// It intentionally favors clarity over performance and records every call so
// tests can assert which provider capabilities were exercised.
package identitytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"placelist/internal/identity"
	"placelist/pkg/platform/sentinel"
	"placelist/pkg/requestcontext"
)

type account struct {
	subject  string
	email    string
	password string
}

type tokenRecord struct {
	purpose identity.Purpose
	subject string
	expired bool
}

type session struct {
	subject string
	refresh string
}

// Fake is an in-memory identity backend. The zero value is not usable; use
// New.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by email
	tokens   map[string]tokenRecord
	codes    map[string]string // code -> subject
	sessions map[string]*session
	recovery []string // emails recovery was requested for
	forced   map[string]error
	calls    []string
	seq      int
}

func New() *Fake {
	return &Fake{
		accounts: make(map[string]*account),
		tokens:   make(map[string]tokenRecord),
		codes:    make(map[string]string),
		sessions: make(map[string]*session),
		forced:   make(map[string]error),
	}
}

// AddAccount registers an account and returns its subject identifier.
func (f *Fake) AddAccount(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	subject := uuid.NewString()
	f.accounts[email] = &account{subject: subject, email: email, password: password}
	return subject
}

// IssueToken registers a one-time token hash for the subject.
func (f *Fake) IssueToken(tokenHash string, purpose identity.Purpose, subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[tokenHash] = tokenRecord{purpose: purpose, subject: subject}
}

// ExpireToken marks an issued token as aged out.
func (f *Fake) ExpireToken(tokenHash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.tokens[tokenHash]
	rec.expired = true
	f.tokens[tokenHash] = rec
}

// IssueCode registers an authorization code for the subject.
func (f *Fake) IssueCode(code, subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = subject
}

// OpenSession creates a live session for the subject and returns its tokens.
func (f *Fake) OpenSession(subject string) (accessToken, refreshToken string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openSessionLocked(subject)
}

func (f *Fake) openSessionLocked(subject string) (string, string) {
	f.seq++
	access := fmt.Sprintf("access-%d", f.seq)
	refresh := fmt.Sprintf("refresh-%d", f.seq)
	f.sessions[access] = &session{subject: subject, refresh: refresh}
	return access, refresh
}

// SessionValid reports whether an access token still maps to a live session.
func (f *Fake) SessionValid(accessToken string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[accessToken]
	return ok
}

// ForceError makes the named operation fail with err until cleared with nil.
// Operation names match the Provider methods: verify_token, exchange_code,
// current_session, refresh_session, create_account, send_recovery,
// update_password, verify_credential, invalidate_sessions.
func (f *Fake) ForceError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.forced, op)
		return
	}
	f.forced[op] = err
}

// Calls returns the operations invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how often the named operation was invoked.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// RecoveryRequests returns the emails recovery was requested for.
func (f *Fake) RecoveryRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.recovery))
	copy(out, f.recovery)
	return out
}

func (f *Fake) record(op string) error {
	f.calls = append(f.calls, op)
	if err, ok := f.forced[op]; ok {
		return err
	}
	return nil
}

func (f *Fake) establish(ctx context.Context, subject string) identity.Identity {
	access, refresh := f.openSessionLocked(subject)
	requestcontext.SetSessionTokens(ctx, access, refresh)
	if w := requestcontext.Writer(ctx); w != nil {
		w.EstablishSession(access, refresh, time.Now().Add(time.Hour))
	}
	return identity.Identity{Subject: subject, Email: f.emailOfLocked(subject)}
}

func (f *Fake) emailOfLocked(subject string) string {
	for _, acct := range f.accounts {
		if acct.subject == subject {
			return acct.email
		}
	}
	return ""
}

func (f *Fake) VerifyOneTimeToken(ctx context.Context, tokenHash string, purpose identity.Purpose) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("verify_token"); err != nil {
		return identity.Identity{}, err
	}
	rec, ok := f.tokens[tokenHash]
	if !ok || rec.purpose != purpose {
		return identity.Identity{}, errors.New("token not found or invalid")
	}
	if rec.expired {
		return identity.Identity{}, fmt.Errorf("%w: token has expired", sentinel.ErrExpired)
	}
	delete(f.tokens, tokenHash)
	return f.establish(ctx, rec.subject), nil
}

func (f *Fake) ExchangeCode(ctx context.Context, code string) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("exchange_code"); err != nil {
		return identity.Identity{}, err
	}
	subject, ok := f.codes[code]
	if !ok {
		return identity.Identity{}, errors.New("invalid authorization code")
	}
	delete(f.codes, code)
	return f.establish(ctx, subject), nil
}

func (f *Fake) CurrentSession(ctx context.Context) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("current_session"); err != nil {
		return identity.Identity{}, err
	}
	access := requestcontext.AccessToken(ctx)
	if access == "" {
		return identity.Identity{}, sentinel.ErrNoSession
	}
	sess, ok := f.sessions[access]
	if !ok {
		return identity.Identity{}, fmt.Errorf("%w: unknown access token", sentinel.ErrNoSession)
	}
	return identity.Identity{Subject: sess.subject, Email: f.emailOfLocked(sess.subject)}, nil
}

func (f *Fake) RefreshSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("refresh_session"); err != nil {
		return err
	}
	refresh := requestcontext.RefreshToken(ctx)
	if refresh == "" {
		return sentinel.ErrNoSession
	}
	for access, sess := range f.sessions {
		if sess.refresh == refresh {
			delete(f.sessions, access)
			f.establish(ctx, sess.subject)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown refresh token", sentinel.ErrNoSession)
}

func (f *Fake) CreateAccount(ctx context.Context, email, password string) (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create_account"); err != nil {
		return identity.Identity{}, err
	}
	if _, exists := f.accounts[email]; exists {
		return identity.Identity{}, errors.New("user already registered")
	}
	subject := uuid.NewString()
	f.accounts[email] = &account{subject: subject, email: email, password: password}
	return identity.Identity{Subject: subject, Email: email}, nil
}

func (f *Fake) SendRecoveryEmail(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("send_recovery"); err != nil {
		return err
	}
	// Unknown accounts are deliberately indistinguishable from known ones.
	f.recovery = append(f.recovery, email)
	return nil
}

func (f *Fake) UpdatePassword(ctx context.Context, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_password"); err != nil {
		return err
	}
	access := requestcontext.AccessToken(ctx)
	sess, ok := f.sessions[access]
	if !ok {
		return fmt.Errorf("%w: unknown access token", sentinel.ErrNoSession)
	}
	for _, acct := range f.accounts {
		if acct.subject == sess.subject {
			acct.password = newPassword
			return nil
		}
	}
	return errors.New("account not found")
}

func (f *Fake) VerifyCredential(ctx context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("verify_credential"); err != nil {
		return err
	}
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return errors.New("invalid login credentials")
	}
	return nil
}

func (f *Fake) InvalidateSessions(ctx context.Context, subject string, scope identity.RevocationScope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("invalidate_sessions"); err != nil {
		return err
	}
	current := requestcontext.AccessToken(ctx)
	for access, sess := range f.sessions {
		if sess.subject != subject {
			continue
		}
		if scope == identity.ScopeOthers && access == current {
			continue
		}
		delete(f.sessions, access)
	}
	return nil
}
