package figma

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/figsum/figsum/internal/auth/pkce"
	"github.com/figsum/figsum/internal/config"
	"github.com/figsum/figsum/internal/upstream"
)

func testConfig(tokenURL string) config.Figma {
	return config.Figma{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURI:  "http://localhost:3000/oauth/callback",
		AuthURL:      "https://example.com/oauth",
		TokenURL:     tokenURL,
		Scope:        "file_read",
	}
}

func TestAuthCodeURL_CarriesPKCEAndState(t *testing.T) {
	codes := &pkce.Codes{Verifier: "verifier-abc", Challenge: "challenge-xyz"}
	raw := AuthCodeURL(testConfig(""), "state-1", codes)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" {
		t.Fatalf("unexpected client_id: %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-1" {
		t.Fatalf("unexpected state: %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("unexpected response_type: %q", q.Get("response_type"))
	}
	if q.Get("scope") != "file_read" {
		t.Fatalf("unexpected scope: %q", q.Get("scope"))
	}
	if q.Get("code_challenge") != "challenge-xyz" {
		t.Fatalf("unexpected code_challenge: %q", q.Get("code_challenge"))
	}
	if q.Get("code_challenge_method") != "S256" {
		t.Fatalf("unexpected challenge method: %q", q.Get("code_challenge_method"))
	}

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if redirect.Query().Get("code_verifier") != "verifier-abc" {
		t.Fatalf("redirect uri does not carry verifier: %s", redirect)
	}
}

func TestExchange_SendsCodeAndVerifier(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.Form
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"figd_abc","token_type":"bearer"}`))
	}))
	defer srv.Close()

	ex := NewExchanger(testConfig(srv.URL))
	token, err := ex.Exchange(context.Background(), "auth-code", "verifier-abc")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "figd_abc" {
		t.Fatalf("unexpected token: %q", token)
	}

	if form.Get("grant_type") != "authorization_code" {
		t.Fatalf("unexpected grant_type: %q", form.Get("grant_type"))
	}
	if form.Get("code") != "auth-code" {
		t.Fatalf("unexpected code: %q", form.Get("code"))
	}
	if form.Get("code_verifier") != "verifier-abc" {
		t.Fatalf("unexpected code_verifier: %q", form.Get("code_verifier"))
	}
	if form.Get("client_id") != "client-1" {
		t.Fatalf("unexpected client_id: %q", form.Get("client_id"))
	}
}

func TestExchange_NonOKSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	ex := NewExchanger(testConfig(srv.URL))
	_, err := ex.Exchange(context.Background(), "bad-code", "")
	if err == nil {
		t.Fatal("expected exchange failure")
	}
	var upstreamErr *upstream.Error
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstreamErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", upstreamErr.Status)
	}
}
