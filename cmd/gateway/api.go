package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assetbridge/maxgw/pkg/agent"
	"github.com/assetbridge/maxgw/pkg/approvals"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

// ──────────────────────────────────────────────────────────────────────────────
// Health
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (gw *Gateway) handleReadyz(w http.ResponseWriter, r *http.Request) {
	tenants, err := gw.store.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tenants": len(tenants)})
}

// ──────────────────────────────────────────────────────────────────────────────
// Status and capabilities
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	tenants, _ := gw.store.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                 true,
		"uptimeSeconds":      int(time.Since(gw.startedAt).Seconds()),
		"tenantCount":        len(tenants),
		"toolCatalogLimit":   gw.cfg.ToolCatalogLimit,
		"configWriteEnabled": gw.cfg.ConfigWriteEnabled,
		"approvalsEnabled":   gw.cfg.ApprovalsEnabled,
	})
}

func (gw *Gateway) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"role":             "admin",
		"canWriteConfig":   gw.cfg.ConfigWriteEnabled,
		"approvalsEnabled": gw.cfg.ApprovalsEnabled,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Tenants
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) handleListTenants(w http.ResponseWriter, r *http.Request) {
	all, err := gw.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	redacted := make([]tenant.Redacted, 0, len(all))
	for _, t := range all {
		redacted = append(redacted, tenant.Redact(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": redacted})
}

func (gw *Gateway) handleUpsertTenant(w http.ResponseWriter, r *http.Request) {
	if !gw.cfg.ConfigWriteEnabled {
		writeError(w, http.StatusForbidden, types.E(types.CodeConfigWriteDisabled, "Config writes are disabled", nil))
		return
	}

	var payload tenant.Config
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, types.E(types.CodeInvalidInput, "invalid JSON body", nil))
		return
	}

	if gw.cfg.ApprovalsEnabled {
		a := gw.approvals.Create("tenant.upsert", "Upsert tenant "+payload.TenantID, payload, clientIP(r))
		writeJSON(w, http.StatusAccepted, map[string]any{"pending": true, "approvalId": a.ID})
		return
	}

	if err := gw.store.Upsert(r.Context(), payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// Stale shapes must not outlive a changed tenant config.
	gw.cache.Invalidate(payload.TenantID)
	gw.handleListTenants(w, r)
}

func (gw *Gateway) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	if !gw.cfg.ConfigWriteEnabled {
		writeError(w, http.StatusForbidden, types.E(types.CodeConfigWriteDisabled, "Config writes are disabled", nil))
		return
	}

	id := chi.URLParam(r, "tenantId")

	if gw.cfg.ApprovalsEnabled {
		a := gw.approvals.Create("tenant.delete", "Delete tenant "+id, map[string]string{"tenantId": id}, clientIP(r))
		writeJSON(w, http.StatusAccepted, map[string]any{"pending": true, "approvalId": a.ID})
		return
	}

	if err := gw.store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	gw.cache.Invalidate(id)
	gw.handleListTenants(w, r)
}

// ──────────────────────────────────────────────────────────────────────────────
// Approvals: disabled unless APPROVALS_ENABLED
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) handleListApprovals(w http.ResponseWriter, _ *http.Request) {
	if !gw.cfg.ApprovalsEnabled {
		writeError(w, http.StatusBadRequest, types.E(types.CodeApprovalsDisabled, "Approvals are disabled", nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approvals": gw.approvals.List()})
}

func (gw *Gateway) handleDecideApproval(w http.ResponseWriter, r *http.Request) {
	if !gw.cfg.ApprovalsEnabled {
		writeError(w, http.StatusBadRequest, types.E(types.CodeApprovalsDisabled, "Approvals are disabled", nil))
		return
	}

	status := approvals.StatusRejected
	if strings.HasSuffix(r.URL.Path, "/approve") {
		status = approvals.StatusApproved
	}
	a := gw.approvals.Decide(chi.URLParam(r, "id"), status, clientIP(r))
	if a == nil {
		writeError(w, http.StatusNotFound, types.E(types.CodeNotFound, "approval not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ──────────────────────────────────────────────────────────────────────────────
// Agent chat
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TenantID string `json:"tenantId"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TenantID == "" || body.Message == "" {
		writeError(w, http.StatusBadRequest, types.E(types.CodeInvalidInput, "tenantId and message are required", nil))
		return
	}

	out, err := agent.Chat(r.Context(), gw.registry, body.TenantID, body.Message)
	if err != nil {
		if app, ok := types.AsAppError(err); ok {
			writeError(w, http.StatusBadRequest, app)
			return
		}
		msg := err.Error()
		if looksLikeHTML(msg) {
			msg = htmlUpstreamMessage
		}
		writeError(w, http.StatusInternalServerError, types.E(types.CodeAgentError, msg, nil))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the deterministic error shape. Non-AppError values are
// wrapped so the body always carries a code.
func writeError(w http.ResponseWriter, status int, err error) {
	app, ok := types.AsAppError(err)
	if !ok {
		app = types.E("INTERNAL", err.Error(), nil)
	}
	writeJSON(w, status, app)
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware already folded X-Forwarded-For / X-Real-IP
	// into RemoteAddr.
	if host := r.RemoteAddr; host != "" {
		return host
	}
	return "unknown"
}
