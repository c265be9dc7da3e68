package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	RedisURL    string `env:"REDIS_URL"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// Origin is the public base URL magic links point at.
	Origin          string `env:"ORIGIN,required"            validate:"required,url"`
	MagicLinkSecret string `env:"MAGIC_LINK_SECRET,required" validate:"required,min=32"`

	SessionSecret      string `env:"SESSION_SECRET,required" validate:"required,min=32"`
	SessionCookieName  string `env:"SESSION_COOKIE_NAME"     envDefault:"recipes__session" validate:"required"`
	SessionMaxAgeHours int    `env:"SESSION_MAX_AGE_HOURS"   envDefault:"720"              validate:"min=1"`

	ResendAPIKey    string `env:"RESEND_API_KEY"    validate:"required_if=Env production"`
	EmailFrom       string `env:"EMAIL_FROM"        validate:"required_if=Env production"`
	EmailTimeoutSec int    `env:"EMAIL_TIMEOUT_SEC" envDefault:"10" validate:"min=1,max=120"`

	LoginRateLimit     int `env:"LOGIN_RATE_LIMIT"      envDefault:"5"   validate:"min=1"`
	LoginRateWindowSec int `env:"LOGIN_RATE_WINDOW_SEC" envDefault:"600" validate:"min=1"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeHours) * time.Hour
}

func (c *Config) EmailTimeout() time.Duration {
	return time.Duration(c.EmailTimeoutSec) * time.Second
}

func (c *Config) LoginRateWindow() time.Duration {
	return time.Duration(c.LoginRateWindowSec) * time.Second
}
