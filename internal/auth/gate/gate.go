// Package gate guards routes by classifying request paths and enforcing the
// session requirement on protected ones. The gate has exactly two decisions,
// allow or deny-with-redirect, and fails closed on any provider trouble.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"placelist/internal/audit"
	"placelist/internal/auth/models"
	"placelist/internal/auth/redirect"
	"placelist/internal/auth/resolver"
	"placelist/internal/identity"
	"placelist/internal/platform/metrics"
	"placelist/pkg/requestcontext"
)

// Class is the route classification of a request path.
type Class string

const (
	ClassProtected Class = "protected"
	ClassPublic    Class = "public"
	ClassNeutral   Class = "neutral"
)

// Classification is the immutable route table: ordered prefix lists for
// protected and public paths. Everything else is neutral. Built once at
// startup and never mutated, so concurrent requests need no locking.
type Classification struct {
	protected []string
	public    []string
}

// NewClassification copies the prefix lists into an immutable table.
func NewClassification(protected, public []string) Classification {
	return Classification{
		protected: append([]string(nil), protected...),
		public:    append([]string(nil), public...),
	}
}

// Classify returns the class of a path. Public prefixes are checked first,
// mirroring the enforcement order: a path under both lists renders publicly.
func (c Classification) Classify(path string) Class {
	for _, p := range c.public {
		if matchPrefix(path, p) {
			return ClassPublic
		}
	}
	for _, p := range c.protected {
		if matchPrefix(path, p) {
			return ClassProtected
		}
	}
	return ClassNeutral
}

// matchPrefix matches on path-segment boundaries so "/login" does not
// capture "/loginhelp".
func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}

// Decision is the gate's verdict for one request.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Gate enforces the route table. Stateless with respect to concurrent
// invocations.
type Gate struct {
	routes    Classification
	resolver  *resolver.Resolver
	provider  identity.Provider
	validator redirect.Validator
	loginPath string
	auditor   *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(
	routes Classification,
	res *resolver.Resolver,
	provider identity.Provider,
	validator redirect.Validator,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Gate {
	return &Gate{
		routes:    routes,
		resolver:  res,
		provider:  provider,
		validator: validator,
		loginPath: "/login",
		auditor:   auditor,
		logger:    logger,
		metrics:   m,
	}
}

// Authorize classifies path and enforces access. Public paths are allowed
// without a session check but get a best-effort session refresh; protected
// paths require a resolvable session and deny with a login redirect carrying
// the validated original path. Any resolver failure, explicit or
// infrastructural, produces the identical denial: the gate never fails open
// and never discloses why access was denied.
func (g *Gate) Authorize(ctx context.Context, path string) Decision {
	class := g.routes.Classify(path)
	switch class {
	case ClassPublic:
		if err := g.provider.RefreshSession(ctx); err != nil {
			g.logger.DebugContext(ctx, "session refresh skipped",
				"error", err.Error(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		g.metrics.ObserveGateDecision(string(class), "allowed")
		return Decision{Allowed: true}

	case ClassProtected:
		if _, err := g.resolver.Resolve(ctx, models.ExistingSession{}); err != nil {
			g.metrics.ObserveGateDecision(string(class), "denied")
			g.auditor.Emit(ctx, audit.Event{
				Action: audit.ActionGateDenied,
				Detail: path,
			})
			return Decision{RedirectTo: g.loginRedirect(path)}
		}
		g.metrics.ObserveGateDecision(string(class), "allowed")
		return Decision{Allowed: true}
	}

	g.metrics.ObserveGateDecision(string(ClassNeutral), "allowed")
	return Decision{Allowed: true}
}

func (g *Gate) loginRedirect(path string) string {
	return g.loginPath + "?redirectTo=" + url.QueryEscape(g.validator.Validate(path))
}

// Middleware applies the gate to every request on the router.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Authorize(r.Context(), r.URL.Path)
		if !decision.Allowed {
			http.Redirect(w, r, decision.RedirectTo, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
