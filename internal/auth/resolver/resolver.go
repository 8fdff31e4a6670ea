// Package resolver turns a verification request into an authenticated
// identity using one of three provider capabilities. It dispatches on the
// request variant it receives; priority between inputs is decided by the
// caller when the request is built (models.FromCallback).
package resolver

import (
	"context"
	"log/slog"

	"placelist/internal/auth/models"
	"placelist/internal/identity"
	"placelist/internal/platform/metrics"
	"placelist/pkg/outcome"
	"placelist/pkg/requestcontext"
)

// Resolver resolves verification requests against the identity provider.
// Stateless; safe for concurrent use.
type Resolver struct {
	provider identity.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(provider identity.Provider, logger *slog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{provider: provider, logger: logger, metrics: m}
}

// Resolve verifies exactly one request variant. On success a session is
// established or confirmed with the provider. On failure no session is
// created or altered, and the returned error carries a taxonomy code:
// expired when the provider rejected the proof for age, invalid for other
// token/code rejections, no_session for the session path. A single attempt
// is made; retry is a caller decision.
func (r *Resolver) Resolve(ctx context.Context, req models.VerificationRequest) (models.Resolution, error) {
	switch v := req.(type) {
	case models.TokenHash:
		ident, err := r.provider.VerifyOneTimeToken(ctx, v.Token, v.Purpose)
		if err != nil {
			return models.Resolution{}, r.failed(ctx, models.MethodToken, err, outcome.CodeInvalid)
		}
		return r.resolved(ctx, models.MethodToken, ident), nil

	case models.AuthorizationCode:
		ident, err := r.provider.ExchangeCode(ctx, v.Code)
		if err != nil {
			return models.Resolution{}, r.failed(ctx, models.MethodCode, err, outcome.CodeInvalid)
		}
		return r.resolved(ctx, models.MethodCode, ident), nil

	case models.ExistingSession:
		ident, err := r.provider.CurrentSession(ctx)
		if err != nil {
			return models.Resolution{}, r.failed(ctx, models.MethodSession, err, outcome.CodeNoSession)
		}
		return r.resolved(ctx, models.MethodSession, ident), nil
	}

	// Unreachable for requests built through models; fail closed anyway.
	return models.Resolution{}, outcome.New(outcome.CodeServer, "unknown verification request")
}

func (r *Resolver) resolved(ctx context.Context, method models.Method, ident identity.Identity) models.Resolution {
	r.metrics.ObserveResolution(string(method), "resolved")
	r.logger.DebugContext(ctx, "verification resolved",
		"method", string(method),
		"request_id", requestcontext.RequestID(ctx),
	)
	return models.Resolution{Subject: ident.Subject, Email: ident.Email, Method: method}
}

// failed normalizes the provider error and logs it with the method and a
// masked cause. The session path maps every failure to no_session; token and
// code paths distinguish only expired from invalid.
func (r *Resolver) failed(ctx context.Context, method models.Method, err error, fallback outcome.Code) error {
	code := outcome.Normalize(err, fallback)
	if method == models.MethodSession && code != outcome.CodeNoSession {
		// A protected resource without a usable session is no_session
		// regardless of how the provider phrased the rejection.
		code = outcome.CodeNoSession
	}
	r.metrics.ObserveResolution(string(method), string(code))
	r.logger.WarnContext(ctx, "verification failed",
		"method", string(method),
		"outcome", string(code),
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return outcome.Wrap(err, code, "verification failed")
}
