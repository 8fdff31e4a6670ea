package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placelist/internal/identity/identitytest"
)

func TestSignUp(t *testing.T) {
	fake := identitytest.New()

	result := newService(fake).SignUp(context.Background(), "ana@example.com", "s3cret-pw")

	require.True(t, result.Succeeded)
	assert.Equal(t, msgCheckEmail, result.Data.Message)
	assert.Equal(t, 1, fake.CallCount("create_account"))
}

func TestSignUpValidation(t *testing.T) {
	fake := identitytest.New()

	result := newService(fake).SignUp(context.Background(), "not-an-email", "short")

	require.False(t, result.Succeeded)
	assert.Contains(t, result.FieldErrors, "email")
	assert.Contains(t, result.FieldErrors, "password")
	assert.Zero(t, fake.CallCount("create_account"), "validation failures never reach the provider")
}

// An existing account and a fresh one yield byte-identical responses.
func TestSignUpExistingAccountIndistinguishable(t *testing.T) {
	fresh := identitytest.New()
	freshResult := newService(fresh).SignUp(context.Background(), "ana@example.com", "s3cret-pw")

	taken := identitytest.New()
	taken.AddAccount("ana@example.com", "other-pw1")
	takenResult := newService(taken).SignUp(context.Background(), "ana@example.com", "s3cret-pw")

	assert.Equal(t, marshal(t, freshResult), marshal(t, takenResult))
}

// Provider downtime also yields the identical success response.
func TestSignUpProviderErrorIndistinguishable(t *testing.T) {
	healthy := identitytest.New()
	healthyResult := newService(healthy).SignUp(context.Background(), "ana@example.com", "s3cret-pw")

	broken := identitytest.New()
	broken.ForceError("create_account", errors.New("connection refused"))
	brokenResult := newService(broken).SignUp(context.Background(), "ana@example.com", "s3cret-pw")

	assert.Equal(t, marshal(t, healthyResult), marshal(t, brokenResult))
}
