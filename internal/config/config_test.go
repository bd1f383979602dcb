package config

import (
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndIssuer(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE / JWT_ISSUER")
	}
}

func TestValidate_ProductionRejectsShortSecret(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	c.Auth.JWTIssuer = "voice-dashboard"
	c.Auth.JWTAudience = "dashboard"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for short JWT secret")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Auth.SessionTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day session ttl, got %v", c.Auth.SessionTTL)
	}
	if c.Provider.BaseURL != DefaultProviderBaseURL {
		t.Fatalf("unexpected provider url %q", c.Provider.BaseURL)
	}
	if c.Provider.MaxConcurrentCalls != 5 || c.Auth.LoginRateLimit != 10 {
		t.Fatalf("unexpected limits: %+v %+v", c.Provider, c.Auth)
	}
	if len(c.App.CORSOrigins) != 1 {
		t.Fatalf("expected default cors origin")
	}
}

func TestLoad_ParsesEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "3000")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "voice")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PROVIDER_TIMEOUT", "5s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTPAddr() != ":3000" || c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected addrs %q %q", c.HTTPAddr(), c.RedisAddr())
	}
	if len(c.App.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", c.App.CORSOrigins)
	}
	if c.Provider.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", c.Provider.Timeout)
	}
}

func TestLoad_ReportsBadInteger(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "abc")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_PORT", "6379")
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
