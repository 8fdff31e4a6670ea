package service

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"placelist/internal/auth/resolver"
	"placelist/internal/identity/identitytest"
	"placelist/internal/platform/config"
)

func newService(fake *identitytest.Fake) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := resolver.New(fake, logger, nil)
	limits := config.LimitsConfig{RecoveryPerWindow: 5, SignupPerWindow: 10}
	return New(fake, res, nil, limits, nil, logger, nil)
}

// marshal renders a result the way the HTTP layer does, so byte-level
// comparisons cover exactly what a caller can observe.
func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(b)
}

func TestValidateEmail(t *testing.T) {
	assert.Empty(t, validateEmail("ana@example.com"))
	assert.NotEmpty(t, validateEmail(""))
	assert.NotEmpty(t, validateEmail("not-an-email"))
	assert.NotEmpty(t, validateEmail("@example.com"))
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, validatePassword("s3cret-pw"))
	assert.NotEmpty(t, validatePassword("short1"))
	assert.NotEmpty(t, validatePassword("alllettersonly"))
	assert.NotEmpty(t, validatePassword("12345678"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "an***@example.com", maskEmail("ana.lopez@example.com"))
	assert.Equal(t, "a***@example.com", maskEmail("a@example.com"))
	assert.Equal(t, "***", maskEmail("not-an-email"))
}
