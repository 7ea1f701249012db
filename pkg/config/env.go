// Package config provides environment-driven gateway configuration and
// secret-reference resolution.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// EnvOr returns the environment variable value or a fallback default.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvOrInt returns an integer environment variable or a fallback default.
// Logs a warning if the value is set but not parseable.
func EnvOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return n
}

// EnvOrBool returns a boolean environment variable or a fallback default.
// Accepts 1/true/yes/y/on (case-insensitive) as true.
func EnvOrBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// App holds process-wide gateway settings.
type App struct {
	Addr               string
	MetricsAddr        string
	TenantsFile        string
	TenantStore        string // "file" or "postgres"
	TenantHeader       string
	ConfigWriteEnabled bool
	ApprovalsEnabled   bool
	ToolCatalogLimit   int
	MetadataTTLSeconds int
	RateLimitPerTenant int
}

// Load reads the gateway configuration from the environment.
func Load() App {
	limit := EnvOrInt("TOOL_CATALOG_LIMIT", 128)
	if limit < 1 {
		limit = 1
	}
	return App{
		Addr:               EnvOr("GATEWAY_ADDR", ":8080"),
		MetricsAddr:        EnvOr("METRICS_ADDR", "127.0.0.1:9090"),
		TenantsFile:        EnvOr("TENANTS_FILE", "/etc/maxgw/tenants.json"),
		TenantStore:        EnvOr("TENANT_STORE", "file"),
		TenantHeader:       EnvOr("TENANT_HEADER", "x-tenant-id"),
		ConfigWriteEnabled: EnvOrBool("CONFIG_WRITE_ENABLED", true),
		ApprovalsEnabled:   EnvOrBool("APPROVALS_ENABLED", false),
		ToolCatalogLimit:   limit,
		MetadataTTLSeconds: EnvOrInt("METADATA_TTL_SECONDS", 3600),
		RateLimitPerTenant: EnvOrInt("RATE_LIMIT_PER_TENANT", 100),
	}
}
