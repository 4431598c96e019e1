package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrProfileFetchFailed covers userinfo fetch failures and payloads missing
// the provider user id.
var ErrProfileFetchFailed = fmt.Errorf("profile fetch failed")

// Identity is the provider-agnostic normalized form of an external profile.
// Ephemeral: produced per callback, consumed once by reconciliation.
// Email and DisplayName may legitimately be empty and are never defaulted.
type Identity struct {
	Provider       ProviderID
	ProviderUserID string
	Email          string
	DisplayName    string
}

// FetchProfile performs an authenticated GET against the userinfo endpoint
// and returns the raw decoded payload. Numbers are kept as json.Number so
// numeric user ids (Kakao) survive stringification exactly.
func (c *Client) FetchProfile(ctx context.Context, cfg Config, accessToken string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Endpoints.UserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if cfg.ID == Naver {
		// Naver's userinfo endpoint also wants the client credentials.
		req.Header.Set("X-Naver-Client-Id", cfg.ClientID)
		req.Header.Set("X-Naver-Client-Secret", cfg.ClientSecret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProfileFetchFailed, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var profile map[string]any
	if err := dec.Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProfileFetchFailed, err)
	}
	return profile, nil
}

// Normalize maps a raw provider payload to the canonical Identity.
//
// Payload shapes:
//   - Google: flat object with id, email, name.
//   - Kakao: numeric id at top level; email under kakao_account;
//     nickname under kakao_account.profile (older payloads: properties).
//   - Naver: everything nested under response; name falls back to nickname.
func Normalize(p ProviderID, profile map[string]any) (Identity, error) {
	ident := Identity{Provider: p}

	switch p {
	case Google:
		ident.ProviderUserID = asString(profile["id"])
		ident.Email = asString(profile["email"])
		ident.DisplayName = asString(profile["name"])

	case Kakao:
		ident.ProviderUserID = asString(profile["id"])
		account := asMap(profile["kakao_account"])
		ident.Email = asString(account["email"])
		ident.DisplayName = asString(asMap(account["profile"])["nickname"])
		if ident.DisplayName == "" {
			ident.DisplayName = asString(asMap(profile["properties"])["nickname"])
		}

	case Naver:
		body := asMap(profile["response"])
		ident.ProviderUserID = asString(body["id"])
		ident.Email = asString(body["email"])
		ident.DisplayName = asString(body["name"])
		if ident.DisplayName == "" {
			ident.DisplayName = asString(body["nickname"])
		}

	default:
		return Identity{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, p)
	}

	if ident.ProviderUserID == "" {
		return Identity{}, fmt.Errorf("%w: missing provider user id", ErrProfileFetchFailed)
	}
	return ident, nil
}

// FetchIdentity fetches the raw profile and normalizes it in one step.
func (c *Client) FetchIdentity(ctx context.Context, cfg Config, accessToken string) (Identity, error) {
	profile, err := c.FetchProfile(ctx, cfg, accessToken)
	if err != nil {
		return Identity{}, err
	}
	return Normalize(cfg.ID, profile)
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		// Payloads decoded without UseNumber (tests, cached fixtures).
		return json.Number(fmt.Sprintf("%.0f", t)).String()
	default:
		return ""
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}
