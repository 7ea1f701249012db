// Package agent implements the deterministic, tool-first chat flow: build
// an intent plan, run the query tool, answer with a trace. No language
// model is involved; the same message always produces the same tool calls.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/assetbridge/maxgw/pkg/oslc"
	"github.com/assetbridge/maxgw/pkg/tools"
	"github.com/assetbridge/maxgw/pkg/types"
)

// TraceEvent is one step of the agent's reasoning, surfaced to the UI.
type TraceEvent struct {
	Type     string `json:"type"`
	ToolName string `json:"toolName,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Method   string `json:"method,omitempty"`
	OK       bool   `json:"ok,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

// Result is the chat response: a readable answer plus the full trace and
// the raw tool output for inspection.
type Result struct {
	Answer  string         `json:"answer"`
	TraceID string         `json:"traceId"`
	Trace   []TraceEvent   `json:"trace"`
	Data    map[string]any `json:"data"`
}

// Chat runs the two-step plan-then-query flow for one message.
func Chat(ctx context.Context, r *tools.Registry, tenantID, message string) (*Result, error) {
	planTool, okPlan := r.Get("maximo.intent_to_oslc_plan")
	queryTool, okQuery := r.Get("maximo.execute_query")
	if !okPlan || !okQuery {
		return nil, types.E(types.CodeAgentError, "required tools are not registered", nil)
	}

	var trace []TraceEvent

	trace = append(trace, TraceEvent{Type: "tool_selected", ToolName: planTool.Name, Reason: "intent_to_oslc_plan"})
	planParams, _ := json.Marshal(map[string]any{"tenantId": tenantID, "intent": message})
	planOut, err := r.Call(ctx, planTool, tenantID, planParams)
	if err != nil {
		return nil, err
	}
	plan, ok := planOut.(tools.Plan)
	if !ok {
		return nil, types.E(types.CodeAgentError, "plan tool returned an unexpected shape", nil)
	}

	trace = append(trace, TraceEvent{Type: "tool_selected", ToolName: queryTool.Name, Reason: "execute_query"})
	queryParams, _ := json.Marshal(map[string]any{
		"tenantId":        tenantID,
		"objectStructure": plan.ObjectStructure,
		"query": map[string]any{
			"select": plan.Select,
			"where":  plan.Where,
			"page":   map[string]any{"limit": plan.Page.Limit, "offset": plan.Page.Offset},
		},
	})
	data, err := r.Call(ctx, queryTool, tenantID, queryParams)
	if err != nil {
		return nil, err
	}

	count := 0
	if m, ok := data.(map[string]any); ok {
		if items, ok := m["items"].([]oslc.Record); ok {
			count = len(items)
		}
	}
	trace = append(trace, TraceEvent{Type: "tool_result", Method: queryTool.Name, OK: true, Preview: fmt.Sprintf("items=%d", count)})

	answer := fmt.Sprintf(
		"I queried %s for tenant %s and retrieved %d record(s). Use the tool traces to review the exact query plan and results.",
		plan.ObjectStructure, tenantID, count)

	return &Result{
		Answer:  answer,
		TraceID: uuid.NewString(),
		Trace:   trace,
		Data:    map[string]any{"plan": plan, "result": data},
	}, nil
}
