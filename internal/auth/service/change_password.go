package service

import (
	"context"
	"errors"

	"placelist/internal/audit"
	"placelist/internal/auth/models"
	"placelist/internal/identity"
	"placelist/pkg/platform/sentinel"
	"placelist/pkg/requestcontext"
)

// ChangePassword rotates the password of an already-authenticated caller.
// The current password is re-verified against the provider first; a mismatch
// is a field-level error on currentPassword, not a generic failure. On
// success every *other* session for the subject is revoked; the acting
// session survives.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) models.ActionResult[Notice] {
	fields := map[string][]string{}
	if currentPassword == "" {
		fields["currentPassword"] = []string{"Current password is required."}
	}
	if problems := validatePassword(newPassword); len(problems) > 0 {
		fields["newPassword"] = problems
	}
	if len(fields) > 0 {
		s.metrics.ObserveAction("change_password", "validation")
		return models.FailFields[Notice]("Please fix the highlighted fields.", fields)
	}

	res, err := s.resolver.Resolve(ctx, models.ExistingSession{})
	if err != nil {
		s.metrics.ObserveAction("change_password", "no_session")
		return models.Fail[Notice](msgAuthRequired)
	}
	if res.Email == "" {
		// Cannot re-verify a credential without a login identifier.
		s.logger.ErrorContext(ctx, "change password without account email",
			"subject", res.Subject,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("change_password", "server_error")
		return models.Fail[Notice](msgTryAgain)
	}

	if err := s.provider.VerifyCredential(ctx, res.Email, currentPassword); err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			s.metrics.ObserveAction("change_password", "server_error")
			return models.Fail[Notice](msgTryAgain)
		}
		s.metrics.ObserveAction("change_password", "wrong_password")
		return models.FailFields[Notice](msgWrongPassword, map[string][]string{
			"currentPassword": {msgWrongPassword},
		})
	}

	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		s.logger.ErrorContext(ctx, "password update failed",
			"subject", res.Subject,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.metrics.ObserveAction("change_password", "update_failed")
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

	// Update first, then revoke: invalidation is a dependent step, never
	// issued alongside the update.
	s.invalidateSessions(ctx, res.Subject, identity.ScopeOthers)

	s.metrics.ObserveAction("change_password", "ok")
	return models.Succeed(Notice{Message: msgPasswordUpdated})
}
