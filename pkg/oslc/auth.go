package oslc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

// authHeaders produces the headers that authorize one outbound call,
// dispatching on the tenant's auth mode. OAuth tokens are fetched fresh on
// every call; token caching is left to an outer layer if ever needed.
func (c *Client) authHeaders(ctx context.Context) (map[string]string, error) {
	switch c.tenant.AuthMode {
	case tenant.AuthAPIKey:
		return c.apiKeyHeaders()
	case tenant.AuthMaxauth:
		return c.maxauthHeaders()
	default:
		return c.oauthHeaders(ctx)
	}
}

func (c *Client) apiKeyHeaders() (map[string]string, error) {
	key := c.tenant.APIKey
	if key == "" {
		key = config.ResolveSecret(c.tenant.APIKeyRef)
	}
	if key == "" {
		return nil, types.E(types.CodeTenantMissingAPIKey,
			fmt.Sprintf("apiKey or apiKeyRef not configured for tenant %s", c.tenant.TenantID))
	}
	// Header name as commonly used by MAS/Maximo deployments.
	return map[string]string{"apikey": key}, nil
}

func (c *Client) maxauthHeaders() (map[string]string, error) {
	m := c.tenant.Maxauth
	var user, pass string
	if m != nil {
		user = m.Username
		if user == "" {
			user = config.ResolveSecret(m.UsernameRef)
		}
		pass = m.Password
		if pass == "" {
			pass = config.ResolveSecret(m.PasswordRef)
		}
	}
	if user == "" || pass == "" {
		return nil, types.E(types.CodeTenantMissingMaxauth,
			fmt.Sprintf("maxauth username and password not configured for tenant %s", c.tenant.TenantID))
	}
	cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return map[string]string{"maxauth": cred}, nil
}

func (c *Client) oauthHeaders(ctx context.Context) (map[string]string, error) {
	oc := c.tenant.OAuth
	if oc == nil {
		return nil, types.E(types.CodeTenantMissingOAuth,
			fmt.Sprintf("oauth not configured for tenant %s", c.tenant.TenantID))
	}
	clientID := config.ResolveSecret(oc.ClientIDRef)
	clientSecret := config.ResolveSecret(oc.ClientSecretRef)
	if clientID == "" || clientSecret == "" {
		return nil, types.E(types.CodeTenantMissingOAuthSecret, "Missing OAuth clientId/clientSecret")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if oc.Scope != "" {
		form.Set("scope", oc.Scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oc.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("oauth token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, types.E(types.CodeOAuthTokenFailed,
			fmt.Sprintf("OAuth token request failed: %v", err),
			map[string]string{"tokenUrl": oc.TokenURL})
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("oauth token read: %w", err)
	}
	if !success(res.StatusCode) {
		return nil, types.E(types.CodeOAuthTokenFailed,
			fmt.Sprintf("OAuth token request failed (%d)", res.StatusCode),
			map[string]any{"tokenUrl": oc.TokenURL, "status": res.StatusCode})
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, types.E(types.CodeOAuthTokenParseFailed,
			fmt.Sprintf("OAuth token response was not JSON (%d)", res.StatusCode),
			map[string]string{
				"contentType": res.Header.Get("Content-Type"),
				"bodySnippet": snippet(body, 200),
			})
	}
	if tok.AccessToken == "" {
		return nil, types.E(types.CodeOAuthTokenMissing, "OAuth token response missing access_token")
	}
	return map[string]string{"Authorization": "Bearer " + tok.AccessToken}, nil
}
