package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("code"); got != "code-1" {
			t.Errorf("code = %q", got)
		}
		if r.PostForm.Get("state") != "" {
			t.Error("state sent in token request for a non-naver provider")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	cfg := Config{ID: Google, ClientID: "cid", ClientSecret: "sec", RedirectURI: "http://cb", Endpoints: Endpoints{TokenURL: srv.URL}}

	tok, err := c.Exchange(context.Background(), cfg, "code-1", "state-1")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok != "at-1" {
		t.Errorf("token = %q", tok)
	}
}

func TestExchangeNaverIncludesState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("state"); got != "state-n" {
			t.Errorf("state = %q, want state-n", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-n"}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	cfg := Config{ID: Naver, Endpoints: Endpoints{TokenURL: srv.URL}}
	if _, err := c.Exchange(context.Background(), cfg, "code", "state-n"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
}

func TestExchangeFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad", http.StatusBadRequest)
		}},
		{"error body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
		}},
		{"empty token", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewClient(time.Second)
			cfg := Config{ID: Google, Endpoints: Endpoints{TokenURL: srv.URL}}
			if _, err := c.Exchange(context.Background(), cfg, "c", "s"); !errors.Is(err, ErrTokenExchangeFailed) {
				t.Errorf("want ErrTokenExchangeFailed, got %v", err)
			}
		})
	}
}
