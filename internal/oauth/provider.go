// Package oauth implements the provider side of the social login flow:
// the provider registry, authorization URL building, the code-for-token
// exchange and the userinfo fetch with per-provider normalization.
package oauth

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ProviderID identifies a supported OAuth provider. The set is closed:
// adding a provider means adding a constant here plus its endpoint and
// normalization entries, all checked exhaustively at compile time.
type ProviderID string

const (
	Google ProviderID = "google"
	Kakao  ProviderID = "kakao"
	Naver  ProviderID = "naver"
)

// ErrUnsupportedProvider is returned for provider names outside the closed set
// and for providers not present in the registry.
var ErrUnsupportedProvider = fmt.Errorf("unsupported provider")

// Providers returns the closed set of provider IDs.
func Providers() []ProviderID {
	return []ProviderID{Google, Kakao, Naver}
}

// ParseProvider validates a raw provider name from a URL path.
func ParseProvider(s string) (ProviderID, error) {
	switch ProviderID(strings.ToLower(strings.TrimSpace(s))) {
	case Google:
		return Google, nil
	case Kakao:
		return Kakao, nil
	case Naver:
		return Naver, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
	}
}

// Endpoints holds the provider's OAuth endpoints.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	UserinfoURL  string
}

// DefaultEndpoints returns the well-known endpoints for a provider.
func DefaultEndpoints(p ProviderID) Endpoints {
	switch p {
	case Google:
		return Endpoints{
			AuthorizeURL: "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserinfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	case Kakao:
		return Endpoints{
			AuthorizeURL: "https://kauth.kakao.com/oauth/authorize",
			TokenURL:     "https://kauth.kakao.com/oauth/token",
			UserinfoURL:  "https://kapi.kakao.com/v2/user/me",
		}
	case Naver:
		return Endpoints{
			AuthorizeURL: "https://nid.naver.com/oauth2.0/authorize",
			TokenURL:     "https://nid.naver.com/oauth2.0/token",
			UserinfoURL:  "https://openapi.naver.com/v1/nid/me",
		}
	default:
		return Endpoints{}
	}
}

// defaultScopes returns the scopes requested when the config leaves them empty.
func defaultScopes(p ProviderID) []string {
	switch p {
	case Google:
		return []string{"openid", "email", "profile"}
	case Kakao:
		return []string{"account_email", "profile_nickname"}
	case Naver:
		return []string{"name", "email"}
	default:
		return nil
	}
}

// Config is the immutable per-provider configuration held by the registry.
type Config struct {
	ID           ProviderID
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	// ExtraAuthParams are provider-specific authorize parameters,
	// e.g. Google's access_type=offline.
	ExtraAuthParams map[string]string
	// Endpoints defaults to DefaultEndpoints(ID) when zero.
	// Overridable so tests can point at local servers.
	Endpoints Endpoints
}

// Registry maps provider IDs to their configuration. Built once at startup
// from loaded configuration and never mutated afterwards; no component reads
// the process environment directly.
type Registry struct {
	byID map[ProviderID]Config
}

// NewRegistry builds a registry from the given provider configs, filling in
// default endpoints and scopes where the config leaves them empty.
func NewRegistry(configs ...Config) *Registry {
	byID := make(map[ProviderID]Config, len(configs))
	for _, c := range configs {
		if c.Endpoints == (Endpoints{}) {
			c.Endpoints = DefaultEndpoints(c.ID)
		}
		if len(c.Scopes) == 0 {
			c.Scopes = defaultScopes(c.ID)
		}
		byID[c.ID] = c
	}
	return &Registry{byID: byID}
}

// Get returns the configuration for a provider.
func (r *Registry) Get(id ProviderID) (Config, error) {
	c, ok := r.byID[id]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, id)
	}
	return c, nil
}

// Has reports whether the provider is configured.
func (r *Registry) Has(id ProviderID) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns the configured provider IDs in stable order.
func (r *Registry) IDs() []ProviderID {
	ids := make([]ProviderID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AuthorizeURL builds the provider redirect URL for the given CSRF state.
// Pure function: no network or storage side effects.
func AuthorizeURL(cfg Config, state string) string {
	u, _ := url.Parse(cfg.Endpoints.AuthorizeURL)
	q := u.Query()
	q.Set("client_id", cfg.ClientID)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(cfg.Scopes, " "))
	q.Set("state", state)
	for k, v := range cfg.ExtraAuthParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
