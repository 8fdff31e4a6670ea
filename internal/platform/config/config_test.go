package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/dashboard", cfg.DefaultRedirect)
	assert.Equal(t, []string{"/dashboard"}, cfg.ProtectedPrefixes)
	assert.Equal(t, []string{"/login", "/auth"}, cfg.PublicPrefixes)
	assert.Equal(t, "http://localhost:9999", cfg.Identity.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.Equal(t, 5, cfg.Limits.RecoveryPerWindow)
	assert.Equal(t, 10, cfg.Limits.SignupPerWindow)
	assert.Equal(t, time.Hour, cfg.Limits.Window)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PLACELIST_ADDR", ":9090")
	t.Setenv("PLACELIST_DEFAULT_REDIRECT", "/home")
	t.Setenv("PLACELIST_PROTECTED_PREFIXES", "/app,/account")
	t.Setenv("PLACELIST_IDENTITY_BASE_URL", "https://id.example.com")
	t.Setenv("PLACELIST_IDENTITY_ANON_KEY", "anon-key")
	t.Setenv("PLACELIST_LIMITS_RECOVERY_PER_WINDOW", "2")
	t.Setenv("PLACELIST_LIMITS_WINDOW", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/home", cfg.DefaultRedirect)
	assert.Equal(t, []string{"/app", "/account"}, cfg.ProtectedPrefixes)
	assert.Equal(t, "https://id.example.com", cfg.Identity.BaseURL)
	assert.Equal(t, "anon-key", cfg.Identity.AnonKey)
	assert.Equal(t, 2, cfg.Limits.RecoveryPerWindow)
	assert.Equal(t, 30*time.Minute, cfg.Limits.Window)
}
