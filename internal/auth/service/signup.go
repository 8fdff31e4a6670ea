package service

import (
	"context"

	"placelist/internal/audit"
	"placelist/internal/auth/models"
	"placelist/pkg/requestcontext"
)

// SignUp registers a new account. The response is identical whether the
// email is new or already registered: the provider sends either a
// confirmation email or nothing, and the caller learns only "check your
// email". Provider errors stay server-side.
func (s *Service) SignUp(ctx context.Context, email, password string) models.ActionResult[Notice] {
	fields := map[string][]string{}
	if problems := validateEmail(email); len(problems) > 0 {
		fields["email"] = problems
	}
	if problems := validatePassword(password); len(problems) > 0 {
		fields["password"] = problems
	}
	if len(fields) > 0 {
		s.metrics.ObserveAction("signup", "validation")
		return models.FailFields[Notice]("Please fix the highlighted fields.", fields)
	}

	if !s.limiter.Allow(ctx, "signup", email, s.limits.SignupPerWindow) {
		s.logger.WarnContext(ctx, "signup rate limited",
			"email", maskEmail(email),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("signup", "rate_limited")
		return models.Succeed(Notice{Message: msgCheckEmail})
	}

	if _, err := s.provider.CreateAccount(ctx, email, password); err != nil {
		// Includes "already registered": logged, audited, and swallowed so
		// the response shape cannot confirm account existence.
		s.logger.WarnContext(ctx, "account creation not completed",
			"email", maskEmail(email),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionSignupRequested,
			Subject: maskEmail(email),
			Outcome: "provider_error",
		})
		s.metrics.ObserveAction("signup", "provider_error")
		return models.Succeed(Notice{Message: msgCheckEmail})
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionSignupRequested,
		Subject: maskEmail(email),
		Outcome: "ok",
	})
	s.metrics.ObserveAction("signup", "ok")
	return models.Succeed(Notice{Message: msgCheckEmail})
}
