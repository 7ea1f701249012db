package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/assetbridge/maxgw/pkg/approvals"
	"github.com/assetbridge/maxgw/pkg/audit"
	"github.com/assetbridge/maxgw/pkg/auth"
	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/jsonrpc"
	"github.com/assetbridge/maxgw/pkg/metadata"
	"github.com/assetbridge/maxgw/pkg/metrics"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/tools"
	"github.com/assetbridge/maxgw/pkg/types"
)

const htmlUpstreamMessage = "Upstream returned HTML where JSON was expected (possible auth/TLS/route issue). Check server logs for upstream status/content-type."

// Gateway holds the shared state behind the HTTP handlers.
type Gateway struct {
	cfg       config.App
	log       *slog.Logger
	store     tenant.Store
	registry  *tools.Registry
	cache     *metadata.Cache
	approvals *approvals.Store
	audit     *audit.Recorder
	metrics   *metrics.Metrics
	startedAt time.Time

	rlMu           sync.Mutex
	rateLimiters   map[string]*rate.Limiter
	rlOrder        []string
	perTenantLimit int
}

// HandleMCP is POST /mcp: one JSON-RPC tool call per request.
func (gw *Gateway) HandleMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPC(w, http.StatusBadRequest, jsonrpc.Err(nil, jsonrpc.CodeInvalidRequest, "Invalid Request", nil))
		return
	}
	rpc := jsonrpc.Parse(body)
	if rpc == nil {
		writeRPC(w, http.StatusBadRequest, jsonrpc.Err(nil, jsonrpc.CodeInvalidRequest, "Invalid Request", nil))
		return
	}

	tenantID := gw.resolveTenant(r, rpc.Params)

	if !gw.allowRate(tenantID) {
		writeRPC(w, http.StatusTooManyRequests,
			jsonrpc.Err(rpc.ID, jsonrpc.CodeAppError, "rate limited",
				map[string]string{"code": "RATE_LIMITED", "tenantId": tenantID}))
		return
	}

	def, ok := gw.registry.Get(rpc.Method)
	if !ok {
		writeRPC(w, http.StatusNotFound, jsonrpc.Err(rpc.ID, jsonrpc.CodeMethodNotFound, "Method not found", nil))
		return
	}

	ctx, span := otel.Tracer("maxgw/gateway").Start(ctx, "tool "+rpc.Method)
	span.SetAttributes(
		attribute.String("rpc.method", rpc.Method),
		attribute.String("tenant.id", tenantID),
	)
	defer span.End()

	start := time.Now()
	out, err := gw.registry.Call(ctx, def, tenantID, rpc.Params)

	outcome := "ok"
	status := http.StatusOK
	var resp *jsonrpc.Response

	switch {
	case err == nil:
		resp = jsonrpc.Ok(rpc.ID, out)
	default:
		if app, isApp := types.AsAppError(err); isApp {
			outcome = app.Code
			status = http.StatusBadRequest
			resp = jsonrpc.Err(rpc.ID, jsonrpc.CodeAppError, app.Message, map[string]any{
				"code":      app.Code,
				"details":   app.Details,
				"retryable": app.Retryable,
			})
		} else {
			outcome = "error"
			status = http.StatusInternalServerError
			msg := err.Error()
			if looksLikeHTML(msg) {
				msg = htmlUpstreamMessage
			}
			resp = jsonrpc.Err(rpc.ID, jsonrpc.CodeAppError, msg, nil)
		}
		gw.log.ErrorContext(ctx, "tool call failed",
			"method", rpc.Method,
			"tenant_id", tenantID,
			"outcome", outcome,
			"error", err,
		)
	}

	gw.metrics.ObserveDispatch(rpc.Method, outcome, start)
	gw.audit.Record(ctx, audit.Event{
		TenantID:   tenantID,
		Method:     rpc.Method,
		Outcome:    outcome,
		DurationMS: time.Since(start).Milliseconds(),
		ParamsSHA:  audit.HashParams(rpc.Params),
	})

	writeRPC(w, status, resp)
}

// resolveTenant picks the effective tenant: configured header, then the
// params.tenantId field, then the query parameter, then the tenant bound
// by inbound auth. Absent everywhere means "no tenant"; tools that need
// one fail downstream.
func (gw *Gateway) resolveTenant(r *http.Request, params json.RawMessage) string {
	if v := strings.TrimSpace(r.Header.Get(gw.cfg.TenantHeader)); v != "" {
		return v
	}
	if len(params) > 0 {
		var probe struct {
			TenantID string `json:"tenantId"`
		}
		if err := json.Unmarshal(params, &probe); err == nil && strings.TrimSpace(probe.TenantID) != "" {
			return strings.TrimSpace(probe.TenantID)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("tenantId")); v != "" {
		return v
	}
	return auth.TenantFromContext(r.Context())
}

// looksLikeHTML detects error text carrying an HTML payload, the usual
// symptom of an auth redirect or proxy login page upstream.
func looksLikeHTML(msg string) bool {
	return strings.Contains(msg, "<!DOCTYPE") ||
		strings.Contains(msg, "<html") ||
		strings.Contains(msg, "Unexpected token '<'")
}

func writeRPC(w http.ResponseWriter, status int, resp *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rate limiting (bounded map with eviction)
// ──────────────────────────────────────────────────────────────────────────────

func (gw *Gateway) allowRate(tenantID string) bool {
	gw.rlMu.Lock()
	defer gw.rlMu.Unlock()

	lim, ok := gw.rateLimiters[tenantID]
	if ok {
		// Move to end of LRU order.
		for i, k := range gw.rlOrder {
			if k == tenantID {
				gw.rlOrder = append(gw.rlOrder[:i], gw.rlOrder[i+1:]...)
				break
			}
		}
		gw.rlOrder = append(gw.rlOrder, tenantID)
		return lim.Allow()
	}

	if len(gw.rateLimiters) >= maxRateLimiters {
		oldest := gw.rlOrder[0]
		gw.rlOrder = gw.rlOrder[1:]
		delete(gw.rateLimiters, oldest)
	}

	lim = rate.NewLimiter(rate.Limit(gw.perTenantLimit), gw.perTenantLimit*2)
	gw.rateLimiters[tenantID] = lim
	gw.rlOrder = append(gw.rlOrder, tenantID)
	return lim.Allow()
}
