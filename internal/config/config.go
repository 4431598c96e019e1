// Package config loads the gateway configuration once at startup.
// No other component reads the process environment: providers, signing and
// cookie policy are all injected from here.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderSettings holds one provider's credentials and authorize options.
type ProviderSettings struct {
	Enabled         bool              `yaml:"enabled"`
	ClientID        string            `yaml:"client_id"`
	ClientSecret    string            `yaml:"client_secret"`
	RedirectURI     string            `yaml:"redirect_uri"`
	Scopes          []string          `yaml:"scopes"`
	ExtraAuthParams map[string]string `yaml:"extra_auth_params"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		FrontendBaseURL string `yaml:"frontend_base_url"`
	} `yaml:"server"`

	Storage struct {
		Driver string `yaml:"driver"` // postgres | memory
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Secret     string `yaml:"secret"`
		Algorithm  string `yaml:"algorithm"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"jwt"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		MaxAge     string `yaml:"max_age"`
		SameSite   string `yaml:"samesite"` // lax | strict | none
		HTTPOnly   bool   `yaml:"http_only"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Upstream struct {
		// Timeout bounds each provider call (token exchange, userinfo).
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`

	Providers struct {
		Google ProviderSettings `yaml:"google"`
		Kakao  ProviderSettings `yaml:"kakao"`
		Naver  ProviderSettings `yaml:"naver"`
	} `yaml:"providers"`
}

// Default returns the configuration baseline that YAML and env override.
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.Server.Addr = ":8001"
	c.Server.FrontendBaseURL = "http://localhost:8501"
	c.Storage.Driver = "memory"
	c.Cache.Kind = "memory"
	c.Cache.Memory.DefaultTTL = "10m"
	c.JWT.Algorithm = "HS256"
	c.JWT.TTLMinutes = 60
	c.Session.CookieName = "authgw_session"
	c.Session.MaxAge = "30m"
	c.Session.SameSite = "lax"
	c.Session.HTTPOnly = true
	c.Upstream.Timeout = "10s"
	return &c
}

// Load reads the YAML file (if present) over the defaults and applies
// environment overrides. Call Validate afterwards.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	c.applyEnv()
	return c, nil
}

// applyEnv layers well-known environment variables over the file values.
func (c *Config) applyEnv() {
	setIfEnv(&c.App.Env, "APP_ENV")
	setIfEnv(&c.Server.Addr, "ADDR")
	setIfEnv(&c.Server.FrontendBaseURL, "FRONTEND_BASE_URL")
	setIfEnv(&c.Storage.DSN, "DATABASE_URL")
	if c.Storage.DSN != "" && os.Getenv("DATABASE_URL") != "" {
		c.Storage.Driver = "postgres"
	}
	setIfEnv(&c.Cache.Redis.Addr, "REDIS_ADDR")
	setIfEnv(&c.JWT.Secret, "JWT_SECRET_KEY")
	setIfEnv(&c.JWT.Algorithm, "JWT_ALGORITHM")

	applyProviderEnv(&c.Providers.Google, "GOOGLE")
	applyProviderEnv(&c.Providers.Kakao, "KAKAO")
	applyProviderEnv(&c.Providers.Naver, "NAVER")
}

func applyProviderEnv(p *ProviderSettings, prefix string) {
	setIfEnv(&p.ClientID, prefix+"_CLIENT_ID")
	setIfEnv(&p.ClientSecret, prefix+"_CLIENT_SECRET")
	setIfEnv(&p.RedirectURI, prefix+"_REDIRECT_URI")
	if p.ClientID != "" && p.ClientSecret != "" {
		p.Enabled = true
	}
}

func setIfEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate enforces the fatal startup conditions: a signing secret must be
// configured, and an enabled provider must carry full credentials.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (signing key missing)")
	}
	switch c.JWT.Algorithm {
	case "", "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("jwt.algorithm %q is not supported", c.JWT.Algorithm)
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for the postgres driver")
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.kind %q is not supported", c.Cache.Kind)
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "", "lax", "strict", "none":
	default:
		return fmt.Errorf("session.samesite %q is not supported", c.Session.SameSite)
	}

	for _, pc := range []struct {
		name string
		p    ProviderSettings
	}{
		{"google", c.Providers.Google},
		{"kakao", c.Providers.Kakao},
		{"naver", c.Providers.Naver},
	} {
		if pc.p.Enabled && (pc.p.ClientID == "" || pc.p.ClientSecret == "" || pc.p.RedirectURI == "") {
			return fmt.Errorf("provider %s is enabled but missing client_id, client_secret or redirect_uri", pc.name)
		}
	}
	return nil
}

// SessionMaxAge returns the parsed session cookie/state lifetime.
func (c *Config) SessionMaxAge() time.Duration {
	return parseDuration(c.Session.MaxAge, 30*time.Minute)
}

// UpstreamTimeout returns the parsed per-call provider timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return parseDuration(c.Upstream.Timeout, 10*time.Second)
}

// CacheDefaultTTL returns the memory cache default TTL.
func (c *Config) CacheDefaultTTL() time.Duration {
	return parseDuration(c.Cache.Memory.DefaultTTL, 10*time.Minute)
}

// JWTTTL returns the session credential lifetime.
func (c *Config) JWTTTL() time.Duration {
	if c.JWT.TTLMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

// SameSite maps the configured policy to the http constant.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.Session.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
