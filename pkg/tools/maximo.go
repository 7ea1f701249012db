package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/assetbridge/maxgw/pkg/oslc"
	"github.com/assetbridge/maxgw/pkg/query"
	"github.com/assetbridge/maxgw/pkg/types"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// commonObjectStructures is the static fallback when a tenant has no
// allowlist and live discovery comes back empty.
var commonObjectStructures = []string{"mxwo", "mxasset", "mxlocation", "mxsr", "mxinv", "mxjobplan", "mxpm"}

type pageInput struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type executeQueryInput struct {
	TenantID        string `json:"tenantId"`
	ObjectStructure string `json:"objectStructure"`
	Query           struct {
		Select  []string       `json:"select"`
		Where   []query.Clause `json:"where"`
		OrderBy []query.Order  `json:"orderBy"`
		Page    *pageInput     `json:"page"`
	} `json:"query"`
}

// executeQuery is the read path: resolve tenant, discover the schema
// shape, validate every named field against it, translate the structured
// filter and issue one paged OSLC call.
func (r *Registry) executeQuery(ctx context.Context, tenantID string, params json.RawMessage) (any, error) {
	var in executeQueryInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, types.E(types.CodeInvalidInput, "malformed execute_query input", nil)
	}
	if tenantID == "" {
		tenantID = in.TenantID
	}

	t, client, err := r.clientFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	shape, err := r.cache.GetShape(ctx, tenantID, in.ObjectStructure, client, t.MetadataTTLSeconds, 0)
	if err != nil {
		return nil, err
	}
	allow := make(map[string]bool, len(shape.Fields))
	for _, f := range shape.Fields {
		allow[f] = true
	}

	for _, f := range in.Query.Select {
		if f != "*" && !allow[f] {
			return nil, types.E(types.CodeFieldNotAllowed, "select field not allowed: "+f,
				map[string]string{"field": f})
		}
	}
	for _, c := range in.Query.Where {
		if !allow[c.Field] {
			return nil, types.E(types.CodeFilterFieldNotAllowed, "filter field not allowed: "+c.Field,
				map[string]string{"field": c.Field})
		}
	}

	where, err := query.Where(in.Query.Where)
	if err != nil {
		return nil, err
	}
	if where == "" {
		where = "1=1"
		if t.OSLC != nil && t.OSLC.WhereDefault != "" {
			where = t.OSLC.WhereDefault
		}
	}

	limit, offset := clampPage(in.Query.Page)

	sel := "*"
	if len(in.Query.Select) > 0 {
		sel = strings.Join(in.Query.Select, ",")
	}

	out, err := client.Query(ctx, in.ObjectStructure, oslc.QueryArgs{
		Where:    where,
		Select:   sel,
		OrderBy:  query.OrderBy(in.Query.OrderBy),
		PageSize: limit,
		Start:    offset,
	})
	if err != nil {
		return nil, err
	}

	count := len(out.Items)
	if out.CountKnown {
		count = out.Count
	}
	return map[string]any{
		"items": out.Items,
		"page":  map[string]any{"limit": limit, "offset": offset, "count": count},
		"shape": map[string]any{"fields": shape.Fields},
	}, nil
}

type executeOperationInput struct {
	TenantID  string         `json:"tenantId"`
	Operation string         `json:"operation"`
	Target    oslc.Target    `json:"target"`
	Payload   map[string]any `json:"payload"`
	Mode      string         `json:"mode"`
}

// executeOperation is the write path. Preflight never touches the remote
// system; commit performs the real call.
func (r *Registry) executeOperation(ctx context.Context, tenantID string, params json.RawMessage) (any, error) {
	var in executeOperationInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, types.E(types.CodeInvalidInput, "malformed execute_operation input", nil)
	}
	if tenantID == "" {
		tenantID = in.TenantID
	}
	if in.Payload == nil {
		in.Payload = map[string]any{}
	}

	_, client, err := r.clientFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if in.Mode == "preflight" {
		return map[string]any{
			"ok":        true,
			"mode":      in.Mode,
			"operation": in.Operation,
			"target":    in.Target,
			"impact": map[string]any{
				"note": "Preflight is best-effort in this build; enable domain rules for strict validation.",
			},
			"payloadPreview": in.Payload,
		}, nil
	}

	result, err := client.ExecuteOperation(ctx, in.Operation, in.Target, in.Payload)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "mode": in.Mode, "result": result}, nil
}

type tenantOnlyInput struct {
	TenantID string `json:"tenantId"`
}

// listObjectStructures prefers the tenant's static allowlist, then live
// discovery, then the built-in common list.
func (r *Registry) listObjectStructures(ctx context.Context, tenantID string, params json.RawMessage) (any, error) {
	var in tenantOnlyInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, types.E(types.CodeInvalidInput, "malformed input", nil)
	}
	if tenantID == "" {
		tenantID = in.TenantID
	}

	t, client, err := r.clientFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if len(t.ObjectStructures) > 0 {
		names := append([]string(nil), t.ObjectStructures...)
		sort.Strings(names)
		return map[string]any{"objectStructures": names}, nil
	}

	found := client.ListObjectStructuresFallback(ctx)
	if len(found) == 0 {
		found = commonObjectStructures
	}
	return map[string]any{"objectStructures": found}, nil
}

type getObjectStructureInput struct {
	TenantID        string `json:"tenantId"`
	ObjectStructure string `json:"objectStructure"`
}

func (r *Registry) getObjectStructure(ctx context.Context, tenantID string, params json.RawMessage) (any, error) {
	var in getObjectStructureInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, types.E(types.CodeInvalidInput, "malformed input", nil)
	}
	if tenantID == "" {
		tenantID = in.TenantID
	}

	t, client, err := r.clientFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	shape, err := r.cache.GetShape(ctx, tenantID, in.ObjectStructure, client, t.MetadataTTLSeconds, 0)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"objectStructure": in.ObjectStructure,
		"fields":          shape.Fields,
		"discoveredAt":    shape.DiscoveredAt,
	}, nil
}

func clampPage(p *pageInput) (limit, offset int) {
	limit, offset = defaultPageLimit, 0
	if p != nil {
		if p.Limit != 0 {
			limit = p.Limit
		}
		offset = p.Offset
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
