package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Remote enrollment system of record.
	EnrollmentAPIURL string        `env:"ENROLLMENT_API_URL"`
	EnrollmentAPIKey string        `env:"ENROLLMENT_API_KEY"`
	RemoteTimeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`

	// Auth collaborator.
	AuthServiceURL string `env:"AUTH_SERVICE_URL"`
	JWTSecret      string `env:"JWT_SECRET"`

	// Wizard UI address used for provider-return redirects.
	UIRedirectURL string `env:"UI_REDIRECT_URL"`

	// Wizard tuning.
	LinkSettleDelay   time.Duration `env:"LINK_SETTLE_DELAY" envDefault:"500ms"`
	PhoneRegion       string        `env:"PHONE_REGION" envDefault:"US"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	StaleReadAttempts int           `env:"STALE_READ_ATTEMPTS" envDefault:"3"`
}

// Load reads configuration from environment variables, after a best-effort
// load of local .env files for dev convenience.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)

	if cfg.Env == "production" {
		if cfg.EnrollmentAPIURL == "" {
			return Config{}, fmt.Errorf("config: ENROLLMENT_API_URL is required in production")
		}
		if cfg.AuthServiceURL == "" {
			return Config{}, fmt.Errorf("config: AUTH_SERVICE_URL is required in production")
		}
	}
	return cfg, nil
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
