package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placelist/internal/identity/identitytest"
	"placelist/pkg/platform/sentinel"
	"placelist/pkg/testutil"
)

func TestChangePassword(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "old-pass1")
	access, refresh := fake.OpenSession(subject)
	otherAccess, _ := fake.OpenSession(subject)

	ctx, _ := testutil.ContextWithSession(context.Background(), access, refresh)
	result := newService(fake).ChangePassword(ctx, "old-pass1", "new-pass1")

	require.True(t, result.Succeeded)
	assert.Equal(t, msgPasswordUpdated, result.Data.Message)
	assert.True(t, fake.SessionValid(access), "the acting session survives")
	assert.False(t, fake.SessionValid(otherAccess), "other sessions are revoked")
	assert.Equal(t, []string{"current_session", "verify_credential", "update_password", "invalidate_sessions"},
		fake.Calls())
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "old-pass1")
	access, refresh := fake.OpenSession(subject)

	ctx, _ := testutil.ContextWithSession(context.Background(), access, refresh)
	result := newService(fake).ChangePassword(ctx, "wrong-pass1", "new-pass1")

	require.False(t, result.Succeeded)
	assert.Equal(t, msgWrongPassword, result.Error)
	assert.Contains(t, result.FieldErrors, "currentPassword")
	assert.Zero(t, fake.CallCount("update_password"), "a failed re-verification must not update the password")
}

func TestChangePasswordNoSession(t *testing.T) {
	fake := identitytest.New()

	result := newService(fake).ChangePassword(context.Background(), "old-pass1", "new-pass1")

	require.False(t, result.Succeeded)
	assert.Equal(t, msgAuthRequired, result.Error)
	assert.Zero(t, fake.CallCount("verify_credential"))
}

func TestChangePasswordValidation(t *testing.T) {
	fake := identitytest.New()

	result := newService(fake).ChangePassword(context.Background(), "", "short")

	require.False(t, result.Succeeded)
	assert.Contains(t, result.FieldErrors, "currentPassword")
	assert.Contains(t, result.FieldErrors, "newPassword")
	assert.Empty(t, fake.Calls())
}

// Provider downtime during re-verification is a generic failure, not a
// wrong-password verdict.
func TestChangePasswordVerifyUnavailable(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "old-pass1")
	access, refresh := fake.OpenSession(subject)
	fake.ForceError("verify_credential", sentinel.ErrUnavailable)

	ctx, _ := testutil.ContextWithSession(context.Background(), access, refresh)
	result := newService(fake).ChangePassword(ctx, "old-pass1", "new-pass1")

	require.False(t, result.Succeeded)
	assert.Equal(t, msgTryAgain, result.Error)
	assert.Empty(t, result.FieldErrors)
}

func TestChangePasswordRevocationFailureStillSucceeds(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "old-pass1")
	access, refresh := fake.OpenSession(subject)
	fake.ForceError("invalidate_sessions", errors.New("connection refused"))

	ctx, _ := testutil.ContextWithSession(context.Background(), access, refresh)
	result := newService(fake).ChangePassword(ctx, "old-pass1", "new-pass1")

	require.True(t, result.Succeeded)
	assert.Equal(t, msgPasswordUpdated, result.Data.Message)
}
