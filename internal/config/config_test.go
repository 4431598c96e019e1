package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8001" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.SessionMaxAge() != 30*time.Minute {
		t.Errorf("SessionMaxAge = %v", cfg.SessionMaxAge())
	}
	if !cfg.Session.HTTPOnly {
		t.Error("HTTPOnly default lost")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
  frontend_base_url: "https://app.example.com"
jwt:
  secret: "file-secret"
  algorithm: HS512
  ttl_minutes: 15
session:
  samesite: strict
  max_age: 5m
providers:
  google:
    enabled: true
    client_id: gid
    client_secret: gsec
    redirect_uri: https://gw.example.com/auth/google/callback
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.JWT.Algorithm != "HS512" || cfg.JWTTTL() != 15*time.Minute {
		t.Errorf("jwt = %q/%v", cfg.JWT.Algorithm, cfg.JWTTTL())
	}
	if cfg.SameSite() != http.SameSiteStrictMode {
		t.Errorf("SameSite = %v", cfg.SameSite())
	}
	if cfg.SessionMaxAge() != 5*time.Minute {
		t.Errorf("SessionMaxAge = %v", cfg.SessionMaxAge())
	}
	if !cfg.Providers.Google.Enabled || cfg.Providers.Google.ClientID != "gid" {
		t.Errorf("google = %+v", cfg.Providers.Google)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "file-secret"
`)
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("KAKAO_CLIENT_ID", "kid")
	t.Setenv("KAKAO_CLIENT_SECRET", "ksec")
	t.Setenv("KAKAO_REDIRECT_URI", "https://gw.example.com/auth/kakao/callback")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/authgw")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if !cfg.Providers.Kakao.Enabled {
		t.Error("kakao not auto-enabled from env credentials")
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres when DATABASE_URL set", cfg.Storage.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }},
		{"bad algorithm", func(c *Config) { c.JWT.Algorithm = "none" }},
		{"bad driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad cache kind", func(c *Config) { c.Cache.Kind = "memcached" }},
		{"bad samesite", func(c *Config) { c.Session.SameSite = "sometimes" }},
		{"enabled provider without credentials", func(c *Config) {
			c.Providers.Naver.Enabled = true
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWT.Secret = "s"
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate passed, want error")
			}
		})
	}
}
