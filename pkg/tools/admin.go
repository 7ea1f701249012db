package tools

import (
	"context"
	"encoding/json"

	"github.com/assetbridge/maxgw/pkg/tenant"
)

// listTools returns the catalog itself, capped by the configured limit.
// The catalog never changes after Build, so repeated calls are identical.
func (r *Registry) listTools(_ context.Context, _ string, _ json.RawMessage) (any, error) {
	limit := r.cfg.ToolCatalogLimit
	if limit <= 0 || limit > len(r.tools) {
		limit = len(r.tools)
	}
	return r.tools[:limit], nil
}

func (r *Registry) listTenants(ctx context.Context, _ string, _ json.RawMessage) (any, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	redacted := make([]tenant.Redacted, 0, len(all))
	for _, t := range all {
		redacted = append(redacted, tenant.Redact(t))
	}
	return map[string]any{"tenants": redacted}, nil
}

// Tenant persistence runs through the REST admin surface where config
// writes are gated and approvals can intervene. The MCP entries stay as
// documented pointers so catalogs keep parity with the API.

func (r *Registry) upsertTenantPlaceholder(_ context.Context, _ string, _ json.RawMessage) (any, error) {
	return map[string]any{"ok": true, "note": "Use /api/tenants for persistence + approvals."}, nil
}

func (r *Registry) deleteTenantPlaceholder(_ context.Context, _ string, _ json.RawMessage) (any, error) {
	return map[string]any{"ok": true, "note": "Use /api/tenants/{tenantId} for persistence + approvals."}, nil
}
