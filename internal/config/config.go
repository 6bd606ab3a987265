// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"foodpoints/internal/logger"
)

// Config is the service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Auth     AuthConfig
	Provider ProviderConfig `envPrefix:"NUTRITIONIX_"`
	OIDC     OIDCConfig     `envPrefix:"OIDC_"`

	// RateLimitPerMinute caps API requests per user. Zero disables it.
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	// CleanupSchedule is the cron spec for deleting expired login tokens.
	CleanupSchedule string `env:"CLEANUP_SCHEDULE" envDefault:"@hourly"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	WebDir          string        `env:"WEB_DIR" envDefault:"web"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig selects the store. An empty URL uses in-memory storage.
type DatabaseConfig struct {
	URL           string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
}

// RedisConfig selects the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// AuthConfig configures login and the bootstrap admin account.
type AuthConfig struct {
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	PasswordDigest string        `env:"PASSWORD_DIGEST" envDefault:"bcrypt"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`
	AdminUsername  string        `env:"ADMIN_USERNAME"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
	AdminName      string        `env:"ADMIN_NAME" envDefault:"Administrator"`
}

// ProviderConfig configures the food lookup API.
type ProviderConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://trackapi.nutritionix.com"`
	AppID   string        `env:"APP_ID"`
	AppKey  string        `env:"APP_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
	Rate    float64       `env:"RATE" envDefault:"5"`
	Burst   int           `env:"BURST" envDefault:"5"`
}

// OIDCConfig enables SSO when Issuer is set.
type OIDCConfig struct {
	Issuer       string `env:"ISSUER"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool { return o.Issuer != "" }

// Load reads an optional .env file, then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from the given variables only.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Auth.PasswordDigest {
	case "bcrypt", "sha3":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_DIGEST must be bcrypt or sha3, got %q", c.Auth.PasswordDigest))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("NUTRITIONIX_TIMEOUT must be positive"))
	}
	if c.Provider.Rate < 0 {
		errs = append(errs, errors.New("NUTRITIONIX_RATE must not be negative"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := cron.ParseStandard(c.CleanupSchedule); err != nil {
		errs = append(errs, fmt.Errorf("CLEANUP_SCHEDULE: %w", err))
	}
	return errors.Join(errs...)
}
