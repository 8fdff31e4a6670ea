// Package service orchestrates the credential actions: sign up, request
// password reset, complete password reset, and change password. Each
// operation composes the verification resolver, the identity provider, and
// the response shaping that keeps account enumeration impossible.
package service

import (
	"log/slog"
	"strings"

	"github.com/asaskevich/govalidator"

	"placelist/internal/audit"
	"placelist/internal/auth/ratelimit"
	"placelist/internal/auth/resolver"
	"placelist/internal/identity"
	"placelist/internal/platform/config"
	"placelist/internal/platform/metrics"
)

// Caller-facing messages. These are constants on purpose: the enumeration
// contract requires byte-identical responses regardless of backend outcome,
// so every path returning one of these must use the same constant.
const (
	msgCheckEmail      = "Check your email to confirm your account."
	msgRecoverySent    = "If an account exists for that address, a recovery link is on its way."
	msgLinkExpired     = "That link has expired. Please request a new one."
	msgAuthFailed      = "We could not verify that request. Please sign in and try again."
	msgAuthRequired    = "You need to be signed in to do that."
	msgReauthRequired  = "Your session has changed. Please sign in again to continue."
	msgPasswordUpdated = "Your password has been updated."
	msgTryAgain        = "Something went wrong. Please try again."
	msgWrongPassword   = "Current password is incorrect."
)

// Notice is the payload of actions whose only data is a message to show.
type Notice struct {
	Message string `json:"message"`
}

// Service is the credential action coordinator. Stateless; all request
// context arrives as arguments, so concurrent use needs no locking.
type Service struct {
	provider identity.Provider
	resolver *resolver.Resolver
	limiter  *ratelimit.Limiter
	limits   config.LimitsConfig
	auditor  *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(
	provider identity.Provider,
	res *resolver.Resolver,
	limiter *ratelimit.Limiter,
	limits config.LimitsConfig,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		provider: provider,
		resolver: res,
		limiter:  limiter,
		limits:   limits,
		auditor:  auditor,
		logger:   logger,
		metrics:  m,
	}
}

// validateEmail checks input shape only; it runs before any provider call.
func validateEmail(email string) []string {
	var problems []string
	if email == "" {
		problems = append(problems, "Email is required.")
	} else if !govalidator.IsEmail(email) || !govalidator.StringLength(email, "3", "255") {
		problems = append(problems, "Enter a valid email address.")
	}
	return problems
}

// validatePassword enforces the local password policy. The provider applies
// its own rules as well; this check just gives field-level feedback without
// a round trip.
func validatePassword(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters.")
	}
	if len(password) > 72 {
		problems = append(problems, "Password must be at most 72 characters.")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		problems = append(problems, "Password must contain at least one letter and one digit.")
	}
	return problems
}

// maskEmail keeps enough of an address to correlate audit entries without
// storing the raw identifier.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***" + email[at:]
}
