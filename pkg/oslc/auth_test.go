package oslc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAPIKeyHeaders(t *testing.T) {
	c := NewClient(tenant.Config{
		TenantID: "t1",
		AuthMode: tenant.AuthAPIKey,
		BaseURL:  "https://m.example.com",
		APIKey:   "sk-123",
	}, testLogger(), nil)

	h, err := c.authHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h["apikey"] != "sk-123" {
		t.Errorf("unexpected headers: %v", h)
	}
}

func TestAPIKeyEmptyResolvedKeyFails(t *testing.T) {
	c := NewClient(tenant.Config{
		TenantID:  "t1",
		AuthMode:  tenant.AuthAPIKey,
		BaseURL:   "https://m.example.com",
		APIKeyRef: &config.SecretRef{Type: "env", Name: "MAXGW_TEST_NO_SUCH_KEY"},
	}, testLogger(), nil)

	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeTenantMissingAPIKey {
		t.Fatalf("expected TENANT_MISSING_APIKEY, got %v", err)
	}
}

func TestMaxauthHeaders(t *testing.T) {
	c := NewClient(tenant.Config{
		TenantID: "t1",
		AuthMode: tenant.AuthMaxauth,
		BaseURL:  "https://m.example.com",
		Maxauth:  &tenant.MaxauthConfig{Username: "wilson", Password: "hunter2"},
	}, testLogger(), nil)

	h, err := c.authHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := base64.StdEncoding.EncodeToString([]byte("wilson:hunter2"))
	if h["maxauth"] != want {
		t.Errorf("got %q, want %q", h["maxauth"], want)
	}
}

func TestMaxauthMissingPasswordFails(t *testing.T) {
	c := NewClient(tenant.Config{
		TenantID: "t1",
		AuthMode: tenant.AuthMaxauth,
		BaseURL:  "https://m.example.com",
		Maxauth:  &tenant.MaxauthConfig{Username: "wilson"},
	}, testLogger(), nil)

	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeTenantMissingMaxauth {
		t.Fatalf("expected TENANT_MISSING_MAXAUTH, got %v", err)
	}
}

func oauthTenant(tokenURL string) tenant.Config {
	return tenant.Config{
		TenantID: "t1",
		AuthMode: tenant.AuthOAuth,
		BaseURL:  "https://m.example.com",
		OAuth: &tenant.OAuthConfig{
			TokenURL:        tokenURL,
			ClientIDRef:     &config.SecretRef{Type: "inline", Value: "cid"},
			ClientSecretRef: &config.SecretRef{Type: "inline", Value: "csec"},
			Scope:           "maximo.read",
		},
	}
}

func TestOAuthTokenFetch(t *testing.T) {
	var gotGrant, gotScope, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotGrant = r.PostForm.Get("grant_type")
		gotScope = r.PostForm.Get("scope")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1"})
	}))
	defer srv.Close()

	c := NewClient(oauthTenant(srv.URL), testLogger(), nil)
	h, err := c.authHeaders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h["Authorization"] != "Bearer tok-1" {
		t.Errorf("unexpected auth header %q", h["Authorization"])
	}
	if gotGrant != "client_credentials" || gotScope != "maximo.read" {
		t.Errorf("unexpected form: grant=%q scope=%q", gotGrant, gotScope)
	}
	wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("cid:csec"))
	if gotAuth != wantBasic {
		t.Errorf("expected basic client auth, got %q", gotAuth)
	}
}

func TestOAuthTokenEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(oauthTenant(srv.URL), testLogger(), nil)
	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeOAuthTokenFailed {
		t.Fatalf("expected OAUTH_TOKEN_FAILED, got %v", err)
	}
	details, ok := app.Details.(map[string]any)
	if !ok || details["status"] != http.StatusInternalServerError {
		t.Errorf("failure should carry the token endpoint status: %#v", app.Details)
	}
}

func TestOAuthTokenNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	c := NewClient(oauthTenant(srv.URL), testLogger(), nil)
	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeOAuthTokenParseFailed {
		t.Fatalf("expected OAUTH_TOKEN_PARSE_FAILED, got %v", err)
	}
}

func TestOAuthTokenMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token_type": "bearer"})
	}))
	defer srv.Close()

	c := NewClient(oauthTenant(srv.URL), testLogger(), nil)
	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeOAuthTokenMissing {
		t.Fatalf("expected OAUTH_TOKEN_MISSING, got %v", err)
	}
}

func TestOAuthMissingClientSecretFailsBeforeNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	defer srv.Close()

	tc := oauthTenant(srv.URL)
	tc.OAuth.ClientSecretRef = &config.SecretRef{Type: "env", Name: "MAXGW_TEST_NO_SUCH_SECRET"}
	c := NewClient(tc, testLogger(), nil)

	_, err := c.authHeaders(context.Background())
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeTenantMissingOAuthSecret {
		t.Fatalf("expected TENANT_MISSING_OAUTH_SECRET, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected zero network calls, got %d", calls)
	}
}
