package identity

import (
	"os"
	"strconv"
	"time"
)

// AppConfig is the env-backed Config implementation. Every knob has a
// development default; production deployments override through IDENTITY_*
// variables.
type AppConfig struct {
	SigningKey        string
	Issuer            string
	Audience          []string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	AccessCookieName  string
	RefreshCookieName string
	CookieSecure      bool
	CookieHTTPOnly    bool
	CookieSameSite    string
}

var _ Config = (*AppConfig)(nil)

// NewConfigFromEnv builds an AppConfig from the environment.
func NewConfigFromEnv() *AppConfig {
	return &AppConfig{
		SigningKey:        envString("IDENTITY_SIGNING_KEY", "dev-signing-key-change-me"),
		Issuer:            envString("IDENTITY_ISSUER", "go-identity"),
		Audience:          []string{envString("IDENTITY_AUDIENCE", "go-identity")},
		AccessTokenTTL:    envDuration("IDENTITY_ACCESS_TTL", 5*time.Minute),
		RefreshTokenTTL:   envDuration("IDENTITY_REFRESH_TTL", 24*time.Hour),
		AccessCookieName:  envString("IDENTITY_ACCESS_COOKIE", "access_token"),
		RefreshCookieName: envString("IDENTITY_REFRESH_COOKIE", "refresh_token"),
		CookieSecure:      envBool("IDENTITY_COOKIE_SECURE", true),
		CookieHTTPOnly:    envBool("IDENTITY_COOKIE_HTTPONLY", true),
		CookieSameSite:    envString("IDENTITY_COOKIE_SAMESITE", "Lax"),
	}
}

func (c *AppConfig) GetSigningKey() string             { return c.SigningKey }
func (c *AppConfig) GetIssuer() string                 { return c.Issuer }
func (c *AppConfig) GetAudience() []string             { return c.Audience }
func (c *AppConfig) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *AppConfig) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }
func (c *AppConfig) GetAccessCookieName() string       { return c.AccessCookieName }
func (c *AppConfig) GetRefreshCookieName() string      { return c.RefreshCookieName }
func (c *AppConfig) GetCookieSecure() bool             { return c.CookieSecure }
func (c *AppConfig) GetCookieHTTPOnly() bool           { return c.CookieHTTPOnly }
func (c *AppConfig) GetCookieSameSite() string         { return c.CookieSameSite }

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
