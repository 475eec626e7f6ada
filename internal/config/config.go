// Package config loads Registra settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration.
type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// PostgreSQL DSN, shared by the pool and the migration runner.
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Optional. When empty, signup rate limiting is off and /readyz
	// reports redis as not configured.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Ledger table used by the migration runner.
	MigrationsTable string `env:"MIGRATIONS_TABLE" envDefault:"pgmigrations"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	RateLimitSignupEnabled   bool `env:"RATE_LIMIT_SIGNUP_ENABLED" envDefault:"true"`
	RateLimitSignupPerMinute int  `env:"RATE_LIMIT_SIGNUP_PER_MINUTE" envDefault:"10"`
	RateLimitSignupBurst     int  `env:"RATE_LIMIT_SIGNUP_BURST" envDefault:"5"`

	// Comma-separated list of allowed origins.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// PasswordCost returns BcryptCost clamped to the range bcrypt accepts.
func (c *Config) PasswordCost() int {
	switch {
	case c.BcryptCost < bcrypt.MinCost:
		return bcrypt.MinCost
	case c.BcryptCost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	default:
		return c.BcryptCost
	}
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		return nil, fmt.Errorf("failed to parse config: MIGRATIONS_TABLE must not be blank")
	}
	return cfg, nil
}
