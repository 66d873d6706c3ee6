package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "nextauth-secret", "password",
}

type Config struct {
	Port                  int    `env:"PORT" envDefault:"8080"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
	APIURL                string `env:"NEXT_PUBLIC_API_URL,required"`
	SessionSecret         string `env:"NEXTAUTH_SECRET,required"`
	SessionMaxAgeHours    int    `env:"SESSION_MAX_AGE_HOURS" envDefault:"720"`
	GoogleClientID        string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectBase     string `env:"OAUTH_REDIRECT_BASE" envDefault:"http://localhost:8080"`
	OpenAIAPIKey          string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL         string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel           string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	RedisURL              string `env:"REDIS_URL,required"`
	StaticDir             string `env:"STATIC_DIR" envDefault:"web/dist"`
	BackendTimeoutSeconds int    `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"30"`
	APIRateLimitPerMin    int    `env:"API_RATE_LIMIT_PER_MIN" envDefault:"120"`
}

func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeHours) * time.Hour
}

func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// APIBaseURL returns the backend URL without a trailing slash.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.APIURL, "/")
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *Config) Validate(isProduction bool) error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("NEXT_PUBLIC_API_URL must be an http(s) URL")
	}
	if c.SessionMaxAgeHours <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_HOURS must be positive")
	}
	if c.APIRateLimitPerMin <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_PER_MIN must be positive")
	}

	if isProduction {
		if err := validateSecret("NEXTAUTH_SECRET", c.SessionSecret); err != nil {
			return err
		}

		if c.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is empty in production: chat replies will fall back to the apology message")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !c.GoogleEnabled() {
			log.Warn().Msg("Google OAuth is not configured: only credentials sign-in is available")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
