// Package tenant holds per-tenant Maximo connection configuration and the
// stores that persist it.
package tenant

import (
	"fmt"
	"net/url"

	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/types"
)

// Auth modes. Exactly one mode's required fields must be populated.
const (
	AuthAPIKey  = "apiKey"
	AuthMaxauth = "maxauth"
	AuthOAuth   = "oauth"
)

// MinMetadataTTLSeconds is the lowest per-tenant schema TTL override allowed.
const MinMetadataTTLSeconds = 30

// Config is one tenant's connection record. The gateway treats it as
// read-only; only the admin surface mutates tenants, through a Store.
type Config struct {
	TenantID string `json:"tenantId"`
	AuthMode string `json:"authMode"`
	BaseURL  string `json:"baseUrl"`
	Org      string `json:"org,omitempty"`
	Site     string `json:"site,omitempty"`

	OSLC               *OSLCOptions `json:"oslc,omitempty"`
	MetadataTTLSeconds int          `json:"metadataTtlSeconds,omitempty"`

	// apiKey mode.
	APIKey    string            `json:"apiKey,omitempty"`
	APIKeyRef *config.SecretRef `json:"apiKeyRef,omitempty"`

	// maxauth mode.
	Maxauth *MaxauthConfig `json:"maxauth,omitempty"`

	// oauth mode (client credentials).
	OAuth *OAuthConfig `json:"oauth,omitempty"`

	// Optional explicit allowlist of object structures to expose.
	ObjectStructures []string `json:"objectStructures,omitempty"`
}

// OSLCOptions tune how queries are issued for this tenant.
type OSLCOptions struct {
	WhereDefault string `json:"whereDefault,omitempty"`
	PageSize     int    `json:"pageSize,omitempty"`
}

// MaxauthConfig carries basic-credential references for the maxauth header.
type MaxauthConfig struct {
	Username    string            `json:"username,omitempty"`
	Password    string            `json:"password,omitempty"`
	UsernameRef *config.SecretRef `json:"usernameRef,omitempty"`
	PasswordRef *config.SecretRef `json:"passwordRef,omitempty"`
}

// OAuthConfig carries client-credentials settings for the oauth mode.
type OAuthConfig struct {
	TokenURL        string            `json:"tokenUrl"`
	ClientIDRef     *config.SecretRef `json:"clientIdRef,omitempty"`
	ClientSecretRef *config.SecretRef `json:"clientSecretRef,omitempty"`
	Scope           string            `json:"scope,omitempty"`
}

// Validate checks the structural invariants of a tenant record. Credential
// material is resolved lazily at call time, so emptiness of a referenced
// secret is not a validation error here.
func (c *Config) Validate() error {
	if c.TenantID == "" {
		return types.E(types.CodeTenantInvalid, "tenantId is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.E(types.CodeTenantInvalid, fmt.Sprintf("baseUrl must be an http(s) URL: %q", c.BaseURL))
	}

	switch c.AuthMode {
	case AuthAPIKey:
		if c.APIKey == "" && c.APIKeyRef == nil {
			return types.E(types.CodeTenantInvalid, "apiKey mode requires apiKey or apiKeyRef")
		}
	case AuthMaxauth:
		if c.Maxauth == nil {
			return types.E(types.CodeTenantInvalid, "maxauth mode requires maxauth settings")
		}
	case AuthOAuth:
		if c.OAuth == nil {
			return types.E(types.CodeTenantInvalid, "oauth mode requires oauth settings")
		}
		if _, err := url.Parse(c.OAuth.TokenURL); err != nil || c.OAuth.TokenURL == "" {
			return types.E(types.CodeTenantInvalid, "oauth.tokenUrl must be a URL")
		}
		if c.OAuth.ClientIDRef == nil || c.OAuth.ClientSecretRef == nil {
			return types.E(types.CodeTenantInvalid, "oauth mode requires clientIdRef and clientSecretRef")
		}
	default:
		return types.E(types.CodeTenantInvalid, fmt.Sprintf("unknown authMode %q", c.AuthMode))
	}

	if c.MetadataTTLSeconds != 0 && c.MetadataTTLSeconds < MinMetadataTTLSeconds {
		return types.E(types.CodeTenantInvalid, fmt.Sprintf("metadataTtlSeconds must be >= %d", MinMetadataTTLSeconds))
	}
	if c.OSLC != nil && c.OSLC.PageSize != 0 && (c.OSLC.PageSize < 1 || c.OSLC.PageSize > 200) {
		return types.E(types.CodeTenantInvalid, "oslc.pageSize must be in [1,200]")
	}
	return nil
}

// Redacted is the externally visible view of a tenant: identity and tuning
// fields plus credential references, never resolved secret values.
type Redacted struct {
	TenantID           string            `json:"tenantId"`
	AuthMode           string            `json:"authMode"`
	BaseURL            string            `json:"baseUrl"`
	Org                string            `json:"org,omitempty"`
	Site               string            `json:"site,omitempty"`
	OSLC               *OSLCOptions      `json:"oslc,omitempty"`
	MetadataTTLSeconds int               `json:"metadataTtlSeconds,omitempty"`
	ObjectStructures   []string          `json:"objectStructures,omitempty"`
	APIKeyRef          *config.SecretRef `json:"apiKeyRef,omitempty"`
}

// Redact strips credential material from a tenant record.
func Redact(c Config) Redacted {
	return Redacted{
		TenantID:           c.TenantID,
		AuthMode:           c.AuthMode,
		BaseURL:            c.BaseURL,
		Org:                c.Org,
		Site:               c.Site,
		OSLC:               c.OSLC,
		MetadataTTLSeconds: c.MetadataTTLSeconds,
		ObjectStructures:   c.ObjectStructures,
		APIKeyRef:          c.APIKeyRef,
	}
}
