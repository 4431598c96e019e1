package oauth

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseProvider(t *testing.T) {
	cases := []struct {
		in      string
		want    ProviderID
		wantErr bool
	}{
		{"google", Google, false},
		{"kakao", Kakao, false},
		{"naver", Naver, false},
		{"  Google ", Google, false},
		{"NAVER", Naver, false},
		{"github", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseProvider(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnsupportedProvider) {
				t.Errorf("ParseProvider(%q): want ErrUnsupportedProvider, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseProvider(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewRegistryFillsDefaults(t *testing.T) {
	r := NewRegistry(Config{ID: Kakao, ClientID: "cid", ClientSecret: "sec", RedirectURI: "http://localhost/cb"})

	cfg, err := r.Get(Kakao)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.Endpoints != DefaultEndpoints(Kakao) {
		t.Errorf("endpoints not defaulted: %+v", cfg.Endpoints)
	}
	if len(cfg.Scopes) == 0 {
		t.Error("scopes not defaulted")
	}
	if r.Has(Google) {
		t.Error("Has(google) = true for unconfigured provider")
	}
	if _, err := r.Get(Google); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Get(google): want ErrUnsupportedProvider, got %v", err)
	}
}

func TestAuthorizeURL(t *testing.T) {
	cfg := Config{
		ID:           Google,
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8001/auth/google/callback",
		Scopes:       []string{"openid", "email", "profile"},
		ExtraAuthParams: map[string]string{
			"access_type": "offline",
		},
		Endpoints: DefaultEndpoints(Google),
	}

	raw := AuthorizeURL(cfg, "state-token")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}

	q := u.Query()
	want := map[string]string{
		"client_id":     "client-123",
		"redirect_uri":  cfg.RedirectURI,
		"response_type": "code",
		"scope":         "openid email profile",
		"state":         "state-token",
		"access_type":   "offline",
	}
	for k, v := range want {
		vals := q[k]
		if len(vals) != 1 {
			t.Errorf("param %q appears %d times, want exactly once", k, len(vals))
			continue
		}
		if vals[0] != v {
			t.Errorf("param %q = %q, want %q", k, vals[0], v)
		}
	}
	if q.Get("client_secret") != "" {
		t.Error("client_secret leaked into authorize url")
	}
}
