// Package gotrue adapts a GoTrue-style identity backend to the
// identity.Provider port. All credential storage, token cryptography, and
// email dispatch happen on the backend; this adapter only shuttles requests
// and normalizes failures into sentinels the auth core understands.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"placelist/internal/identity"
	"placelist/internal/platform/metrics"
	"placelist/pkg/outcome"
	"placelist/pkg/platform/sentinel"
	"placelist/pkg/requestcontext"
)

// Config carries the connection settings for the identity backend.
type Config struct {
	BaseURL    string
	AnonKey    string
	ServiceKey string
	Timeout    time.Duration
}

// Client implements identity.Provider against the backend's HTTP API.
type Client struct {
	base       string
	anonKey    string
	serviceKey string
	http       *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// New builds a Client. logger is required; metrics may be nil.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:       strings.TrimRight(cfg.BaseURL, "/"),
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
		tracer:     otel.Tracer("placelist/identity/gotrue"),
	}
}

// sessionResponse is the token envelope the backend returns whenever a
// session is established.
type sessionResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         userPayload `json:"user"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) VerifyOneTimeToken(ctx context.Context, tokenHash string, purpose identity.Purpose) (identity.Identity, error) {
	var sess sessionResponse
	err := c.do(ctx, "verify_token", http.MethodPost, "/verify", map[string]string{
		"type":       string(purpose),
		"token_hash": tokenHash,
	}, c.anonKey, &sess)
	if err != nil {
		return identity.Identity{}, err
	}
	return c.establish(ctx, sess), nil
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (identity.Identity, error) {
	var sess sessionResponse
	err := c.do(ctx, "exchange_code", http.MethodPost, "/token?grant_type=pkce", map[string]string{
		"auth_code": code,
	}, c.anonKey, &sess)
	if err != nil {
		return identity.Identity{}, err
	}
	return c.establish(ctx, sess), nil
}

func (c *Client) CurrentSession(ctx context.Context) (identity.Identity, error) {
	token := requestcontext.AccessToken(ctx)
	if token == "" {
		return identity.Identity{}, sentinel.ErrNoSession
	}

	var user userPayload
	err := c.do(ctx, "current_session", http.MethodGet, "/user", nil, token, &user)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", sentinel.ErrNoSession, err)
	}
	return identity.Identity{Subject: user.ID, Email: user.Email}, nil
}

func (c *Client) RefreshSession(ctx context.Context) error {
	refresh := requestcontext.RefreshToken(ctx)
	if refresh == "" {
		return sentinel.ErrNoSession
	}

	var sess sessionResponse
	err := c.do(ctx, "refresh_session", http.MethodPost, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refresh,
	}, c.anonKey, &sess)
	if err != nil {
		return err
	}
	c.establish(ctx, sess)
	return nil
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (identity.Identity, error) {
	var user userPayload
	err := c.do(ctx, "create_account", http.MethodPost, "/signup", map[string]string{
		"email":    email,
		"password": password,
	}, c.anonKey, &user)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{Subject: user.ID, Email: user.Email}, nil
}

func (c *Client) SendRecoveryEmail(ctx context.Context, email string) error {
	return c.do(ctx, "send_recovery", http.MethodPost, "/recover", map[string]string{
		"email": email,
	}, c.anonKey, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	token := requestcontext.AccessToken(ctx)
	if token == "" {
		return sentinel.ErrNoSession
	}
	return c.do(ctx, "update_password", http.MethodPut, "/user", map[string]string{
		"password": newPassword,
	}, token, nil)
}

func (c *Client) VerifyCredential(ctx context.Context, email, password string) error {
	// The password grant is the backend's only credential check. The issued
	// tokens are discarded; the caller's session is untouched.
	var sess sessionResponse
	return c.do(ctx, "verify_credential", http.MethodPost, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, c.anonKey, &sess)
}

func (c *Client) InvalidateSessions(ctx context.Context, subject string, scope identity.RevocationScope) error {
	if scope == identity.ScopeOthers {
		token := requestcontext.AccessToken(ctx)
		if token == "" {
			return sentinel.ErrNoSession
		}
		return c.do(ctx, "invalidate_sessions", http.MethodPost, "/logout?scope=others", nil, token, nil)
	}
	// Global revocation is an admin operation keyed by subject, so it works
	// even when the acting request no longer holds that subject's session.
	return c.do(ctx, "invalidate_sessions", http.MethodPost, "/admin/users/"+subject+"/logout", nil, c.serviceKey, nil)
}

// establish publishes the new session to the request context and the
// transport (cookie jar), then returns the resolved identity. Expiry prefers
// the access token's exp claim and falls back to the envelope's expires_in.
func (c *Client) establish(ctx context.Context, sess sessionResponse) identity.Identity {
	expiresAt := time.Now().Add(time.Duration(sess.ExpiresIn) * time.Second)
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, &claims); err == nil {
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}

	requestcontext.SetSessionTokens(ctx, sess.AccessToken, sess.RefreshToken)
	if w := requestcontext.Writer(ctx); w != nil {
		w.EstablishSession(sess.AccessToken, sess.RefreshToken, expiresAt)
	}
	return identity.Identity{Subject: sess.User.ID, Email: sess.User.Email}
}

// apiError is a non-2xx backend response. Its message is the backend's own,
// which the resolver inspects for the expiry marker.
type apiError struct {
	status    int
	errorCode string
	message   string
}

func (e *apiError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("identity provider: %s (status %d)", e.message, e.status)
	}
	return fmt.Sprintf("identity provider: status %d", e.status)
}

// errorBody matches the backend's error envelope across its API versions.
type errorBody struct {
	ErrorCode   string `json:"error_code"`
	Msg         string `json:"msg"`
	ErrorField  string `json:"error"`
	Description string `json:"error_description"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, bearer string, out any) error {
	ctx, span := c.tracer.Start(ctx, "identity."+op, trace.WithAttributes(
		attribute.String("identity.op", op),
	))
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return outcome.Wrap(err, outcome.CodeServer, "identity request encoding failed")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return outcome.Wrap(err, outcome.CodeServer, "identity request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.metrics.ObserveProviderCall(op, time.Since(start))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", sentinel.ErrUnavailable, err)
		}
		return nil
	}

	apiErr := &apiError{status: resp.StatusCode}
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
		apiErr.errorCode = eb.ErrorCode
		apiErr.message = eb.Msg
		if apiErr.message == "" {
			apiErr.message = eb.Description
		}
		if apiErr.message == "" {
			apiErr.message = eb.ErrorField
		}
	}
	span.RecordError(apiErr)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, apiErr)
	}
	lower := strings.ToLower(apiErr.errorCode + " " + apiErr.message)
	if strings.Contains(lower, "expired") {
		return fmt.Errorf("%w: %v", sentinel.ErrExpired, apiErr)
	}
	return apiErr
}
