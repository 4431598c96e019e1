package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "authgw/1.0"

// ErrTokenExchangeFailed covers any failure of the code-for-token exchange:
// transport errors, timeouts, non-2xx statuses and malformed bodies.
// Authorization codes are single-use, so there is no retry.
var ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")

// Client performs the network calls of the callback flow under a bounded
// per-call timeout.
type Client struct {
	http *http.Client
}

// NewClient creates a client with the given per-call timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// tokenResponse is the relevant subset of a provider token response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Error       string `json:"error,omitempty"`
	ErrorDesc   string `json:"error_description,omitempty"`
}

// Exchange posts the authorization code to the provider's token endpoint and
// returns the access token. Naver requires the original state value in the
// token request as well.
func (c *Client) Exchange(ctx context.Context, cfg Config, code, state string) (string, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("redirect_uri", cfg.RedirectURI)
	form.Set("grant_type", "authorization_code")
	if cfg.ID == Naver {
		form.Set("state", state)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts classify here too; the cause is preserved for logs.
		return "", fmt.Errorf("%w: %v", ErrTokenExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTokenExchangeFailed, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTokenExchangeFailed, err)
	}
	if tr.Error != "" {
		return "", fmt.Errorf("%w: %s - %s", ErrTokenExchangeFailed, tr.Error, tr.ErrorDesc)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: no access_token in response", ErrTokenExchangeFailed)
	}
	return tr.AccessToken, nil
}
