// Package auth provides optional inbound API-key authentication.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const tenantKey contextKey = "tenant_id"

// TenantFromContext extracts the authenticated tenant ID from the context.
// Empty when auth is disabled or the route skipped authentication.
func TenantFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tenantKey).(string)
	return v
}

// APIKeyAuth returns middleware that validates gateway API keys and binds
// the key's tenant to the request context. An empty KeyStore disables
// authentication entirely: every request passes through unchanged.
func APIKeyAuth(keys *KeyStore) func(http.Handler) http.Handler {
	skipPaths := map[string]bool{
		"/healthz": true,
		"/readyz":  true,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keys.Empty() || skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				// Also check Authorization: Bearer
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeUnauthorized(w, "missing API key")
				return
			}

			tenantID, ok := keys.Lookup(apiKey)
			if !ok {
				writeUnauthorized(w, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "UNAUTHORIZED", "message": msg},
	})
}
