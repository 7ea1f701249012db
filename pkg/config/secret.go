package config

import (
	"os"
	"strings"
)

// SecretRef points at credential material without embedding it in tenant
// records. Inline values are supported for development setups.
type SecretRef struct {
	Type  string `json:"type"` // "inline", "env", or "file"
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
	Path  string `json:"path,omitempty"`
}

// ResolveSecret dereferences a SecretRef. Missing or unreadable material
// resolves to the empty string; the caller decides whether that is fatal.
func ResolveSecret(ref *SecretRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Type {
	case "inline":
		return ref.Value
	case "env":
		key := strings.TrimSpace(ref.Name)
		if key == "" {
			return ""
		}
		return os.Getenv(key)
	case "file":
		p := strings.TrimSpace(ref.Path)
		if p == "" {
			return ""
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(b))
	default:
		return ""
	}
}
