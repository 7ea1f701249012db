package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/assetbridge/maxgw/pkg/query"
	"github.com/assetbridge/maxgw/pkg/types"
)

type intentInput struct {
	TenantID string `json:"tenantId"`
	Intent   string `json:"intent"`
}

// Plan is a structured query proposal derived from a free-text intent.
type Plan struct {
	TenantID        string         `json:"tenantId"`
	ObjectStructure string         `json:"objectStructure"`
	Select          []string       `json:"select"`
	Where           []query.Clause `json:"where"`
	Page            PlanPage       `json:"page"`
	Rationale       string         `json:"rationale"`
}

type PlanPage struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// intentToPlan maps an intent string to an object structure by keyword.
// Deterministic on purpose: the same intent always yields the same plan,
// and no model is consulted.
func (r *Registry) intentToPlan(_ context.Context, tenantID string, params json.RawMessage) (any, error) {
	var in intentInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, types.E(types.CodeInvalidInput, "malformed input", nil)
	}
	if tenantID == "" {
		tenantID = in.TenantID
	}
	return buildPlan(tenantID, in.Intent), nil
}

func buildPlan(tenantID, intent string) Plan {
	lowered := strings.ToLower(intent)

	objectStructure := "mxwo"
	switch {
	case strings.Contains(lowered, "asset"):
		objectStructure = "mxasset"
	case strings.Contains(lowered, "location"):
		objectStructure = "mxlocation"
	case strings.Contains(lowered, "inventory"):
		objectStructure = "mxinv"
	case strings.Contains(lowered, "service request"), strings.Contains(lowered, "sr"):
		objectStructure = "mxsr"
	case strings.Contains(lowered, "job plan"):
		objectStructure = "mxjobplan"
	case strings.Contains(lowered, "preventive"), strings.Contains(lowered, "pm"):
		objectStructure = "mxpm"
	}

	return Plan{
		TenantID:        tenantID,
		ObjectStructure: objectStructure,
		Select:          []string{"*"},
		Where:           []query.Clause{{Field: "status", Op: query.OpNotNull}},
		Page:            PlanPage{Limit: 25, Offset: 0},
		Rationale:       "Heuristic intent mapping (adjust in Settings / schema browser).",
	}
}
