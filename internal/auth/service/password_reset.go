package service

import (
	"context"

	"placelist/internal/audit"
	"placelist/internal/auth/models"
	"placelist/internal/identity"
	"placelist/pkg/outcome"
	"placelist/pkg/requestcontext"
)

// RequestPasswordReset always reports success with the same generic message,
// whether or not an account exists for the address. Timing may vary; the
// response body and success flag never do.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) models.ActionResult[Notice] {
	if problems := validateEmail(email); len(problems) > 0 {
		s.metrics.ObserveAction("request_reset", "validation")
		return models.FailFields[Notice]("Please fix the highlighted fields.", map[string][]string{"email": problems})
	}

	if !s.limiter.Allow(ctx, "recovery", email, s.limits.RecoveryPerWindow) {
		s.logger.WarnContext(ctx, "recovery request rate limited",
			"email", maskEmail(email),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("request_reset", "rate_limited")
		return models.Succeed(Notice{Message: msgRecoverySent})
	}

	if err := s.provider.SendRecoveryEmail(ctx, email); err != nil {
		s.logger.ErrorContext(ctx, "recovery email dispatch failed",
			"email", maskEmail(email),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("request_reset", "provider_error")
		return models.Succeed(Notice{Message: msgRecoverySent})
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionPasswordResetRequested,
		Subject: maskEmail(email),
		Outcome: "ok",
	})
	s.metrics.ObserveAction("request_reset", "ok")
	return models.Succeed(Notice{Message: msgRecoverySent})
}

// CompletePasswordReset verifies the caller (recovery token or live session)
// and sets the new password. Expiry is the one failure allowed a specific
// message; invalid and missing-session collapse into the same generic one.
// After a successful update every active session for the subject is
// revoked; revocation failure is logged and audited but does not undo the
// reported success, because the password itself was changed.
func (s *Service) CompletePasswordReset(ctx context.Context, newPassword string, verification models.VerificationRequest) models.ActionResult[Notice] {
	if problems := validatePassword(newPassword); len(problems) > 0 {
		s.metrics.ObserveAction("complete_reset", "validation")
		return models.FailFields[Notice]("Please fix the highlighted fields.", map[string][]string{"newPassword": problems})
	}

	res, err := s.resolver.Resolve(ctx, verification)
	if err != nil {
		switch outcome.CodeOf(err) {
		case outcome.CodeExpired:
			s.metrics.ObserveAction("complete_reset", "expired")
			return models.Fail[Notice](msgLinkExpired)
		case outcome.CodeServer:
			s.metrics.ObserveAction("complete_reset", "server_error")
			return models.Fail[Notice](msgTryAgain)
		default:
			// invalid and no_session share one message so the caller cannot
			// tell which verification path failed.
			s.metrics.ObserveAction("complete_reset", "auth_failed")
			return models.Fail[Notice](msgAuthFailed)
		}
	}

	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		s.logger.ErrorContext(ctx, "password update failed",
			"subject", res.Subject,
			"method", string(res.Method),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("complete_reset", "update_failed")
		if sessionRelated(err) {
			return models.Fail[Notice](msgReauthRequired)
		}
		return models.Fail[Notice](msgTryAgain)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionPasswordUpdated,
		Subject: res.Subject,
		Method:  string(res.Method),
		Outcome: "ok",
	})

	// Hard requirement: password rotation revokes existing sessions, and the
	// update must have completed before revocation is attempted.
	s.invalidateSessions(ctx, res.Subject, identity.ScopeAll)

	s.metrics.ObserveAction("complete_reset", "ok")
	return models.Succeed(Notice{Message: msgPasswordUpdated})
}

// sessionRelated reports whether a provider failure means the caller's
// session is no longer usable, as opposed to the operation itself failing.
func sessionRelated(err error) bool {
	switch outcome.Normalize(err, outcome.CodeServer) {
	case outcome.CodeNoSession, outcome.CodeExpired:
		return true
	}
	return false
}

// invalidateSessions revokes the subject's sessions per scope. Failure is
// surfaced only through logs and the audit trail: the credential change
// already happened and must still be reported as such.
func (s *Service) invalidateSessions(ctx context.Context, subject string, scope identity.RevocationScope) {
	if err := s.provider.InvalidateSessions(ctx, subject, scope); err != nil {
		s.logger.ErrorContext(ctx, "session invalidation failed",
			"subject", subject,
			"scope", string(scope),
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionSessionInvalidationFailed,
			Subject: subject,
			Outcome: string(scope),
			Detail:  err.Error(),
		})
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionSessionsInvalidated,
		Subject: subject,
		Outcome: string(scope),
	})
}
