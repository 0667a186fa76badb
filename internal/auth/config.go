// Package auth issues and verifies the signed session tokens that gate the
// HTTP API. A single client id and secret pair is configured through the
// environment; a successful login yields an HS256 token carried in a cookie.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultTokenTTL is how long a session token stays valid.
const DefaultTokenTTL = time.Hour

// minSigningSecret is the shortest accepted HMAC key, in bytes.
const minSigningSecret = 32

// Config holds the credential and signing settings.
type Config struct {
	ClientID      string        `env:"APPENDABLE_CLIENT_ID"`
	ClientSecret  string        `env:"APPENDABLE_CLIENT_SECRET"`
	SigningSecret string        `env:"APPENDABLE_SIGNING_SECRET"`
	Issuer        string        `env:"APPENDABLE_TOKEN_ISSUER" envDefault:"appendable"`
	TokenTTL      time.Duration `env:"APPENDABLE_TOKEN_TTL" envDefault:"1h"`
	CookieSecure  bool          `env:"APPENDABLE_COOKIE_SECURE" envDefault:"true"`
}

// LoadConfigFromEnv reads and validates the auth configuration.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse auth env: %w", err)
	}
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first missing or unusable setting.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("APPENDABLE_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("APPENDABLE_CLIENT_SECRET is required")
	}
	if len(c.SigningSecret) < minSigningSecret {
		return fmt.Errorf("APPENDABLE_SIGNING_SECRET must be at least %d bytes", minSigningSecret)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("APPENDABLE_TOKEN_TTL must not be negative")
	}
	return nil
}

func (c Config) tokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}
