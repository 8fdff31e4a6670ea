package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration, loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Addr            string        `env:"PLACELIST_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"PLACELIST_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// DefaultRedirect is where validated-but-absent redirect hints land.
	DefaultRedirect string `env:"PLACELIST_DEFAULT_REDIRECT" envDefault:"/dashboard"`

	// ProtectedPrefixes and PublicPrefixes form the route classification
	// table. Paths matching neither are neutral (passed through with no
	// session check).
	ProtectedPrefixes []string `env:"PLACELIST_PROTECTED_PREFIXES" envSeparator:"," envDefault:"/dashboard"`
	PublicPrefixes    []string `env:"PLACELIST_PUBLIC_PREFIXES" envSeparator:"," envDefault:"/login,/auth"`

	Identity IdentityConfig `envPrefix:"PLACELIST_IDENTITY_"`
	Redis    RedisConfig    `envPrefix:"PLACELIST_REDIS_"`
	Audit    AuditConfig    `envPrefix:"PLACELIST_AUDIT_"`
	Limits   LimitsConfig   `envPrefix:"PLACELIST_LIMITS_"`
}

// IdentityConfig points at the external identity backend.
type IdentityConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:9999"`
	// AnonKey authenticates public API calls; ServiceKey authorizes admin
	// operations (session invalidation for a subject).
	AnonKey    string        `env:"ANON_KEY"`
	ServiceKey string        `env:"SERVICE_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// RedisConfig configures the shared Redis client. An empty URL disables
// Redis-backed features (the recovery limiter falls open).
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// AuditConfig configures the audit trail. An empty PostgresDSN keeps events
// in the in-memory store (development only).
type AuditConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN"`
	BufferSize  int    `env:"BUFFER_SIZE" envDefault:"256"`
}

// LimitsConfig bounds the enumeration-protected endpoints. The response shape
// never changes when a limit trips; the provider call is simply skipped.
type LimitsConfig struct {
	RecoveryPerWindow int           `env:"RECOVERY_PER_WINDOW" envDefault:"5"`
	SignupPerWindow   int           `env:"SIGNUP_PER_WINDOW" envDefault:"10"`
	Window            time.Duration `env:"WINDOW" envDefault:"1h"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
