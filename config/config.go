package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	SessionSecret     string        `env:"SESSION_SECRET,required" validate:"required,min=32"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSweepEvery time.Duration `env:"SESSION_SWEEP_EVERY" envDefault:"10m"`
	CookieName        string        `env:"COOKIE_NAME" envDefault:"session"`
	CookieDomain      string        `env:"COOKIE_DOMAIN"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite    string        `env:"COOKIE_SAMESITE" envDefault:"lax" validate:"oneof=lax strict none"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`

	// BaseURL is the public origin embedded in mail links; the route
	// segments complete the link before the token is appended.
	BaseURL            string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	RoutePrefix        string        `env:"ROUTE_PREFIX" envDefault:"/auth"`
	ConfirmEmailRoute  string        `env:"CONFIRM_EMAIL_ROUTE" envDefault:"confirmEmail"`
	ResetPasswordRoute string        `env:"RESET_PASSWORD_ROUTE" envDefault:"resetPassword"`
	ResetTokenTTL      time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10" validate:"min=4,max=31"`
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

func (c *Config) SameSite() http.SameSite {
	switch c.CookieSameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
