package tools

import "encoding/json"

// Input contracts. tenantId is an optional property everywhere except the
// admin delete payload: the tenant usually arrives on a request header.
// Page limits are clamped by the handler rather than rejected by the
// schema, so an over-asking caller still gets an answer.
const (
	emptyObjectSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "properties": {}
	}`

	upsertTenantSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["tenant"],
	  "properties": { "tenant": { "type": "object" } }
	}`

	deleteTenantSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["tenantId"],
	  "properties": { "tenantId": { "type": "string" } }
	}`

	executeQuerySchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["objectStructure", "query"],
	  "properties": {
	    "tenantId": { "type": "string" },
	    "objectStructure": { "type": "string" },
	    "query": {
	      "type": "object",
	      "additionalProperties": false,
	      "properties": {
	        "select": { "type": "array", "items": { "type": "string" } },
	        "where": {
	          "type": "array",
	          "items": {
	            "type": "object",
	            "additionalProperties": false,
	            "required": ["field", "op"],
	            "properties": {
	              "field": { "type": "string" },
	              "op": { "type": "string", "enum": ["=", "!=", ">", ">=", "<", "<=", "like", "in", "null", "notnull"] },
	              "value": {}
	            }
	          }
	        },
	        "orderBy": {
	          "type": "array",
	          "items": {
	            "type": "object",
	            "additionalProperties": false,
	            "required": ["field", "dir"],
	            "properties": {
	              "field": { "type": "string" },
	              "dir": { "type": "string", "enum": ["asc", "desc"] }
	            }
	          }
	        },
	        "page": {
	          "type": "object",
	          "additionalProperties": false,
	          "properties": {
	            "limit": { "type": "integer" },
	            "offset": { "type": "integer" }
	          }
	        }
	      }
	    }
	  }
	}`

	executeOperationSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["operation", "target", "mode"],
	  "properties": {
	    "tenantId": { "type": "string" },
	    "operation": { "type": "string" },
	    "target": {
	      "type": "object",
	      "additionalProperties": false,
	      "required": ["objectStructure", "key"],
	      "properties": {
	        "objectStructure": { "type": "string" },
	        "key": { "type": "string" }
	      }
	    },
	    "payload": { "type": "object" },
	    "mode": { "type": "string", "enum": ["preflight", "commit"] }
	  }
	}`

	tenantOnlySchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "properties": { "tenantId": { "type": "string" } }
	}`

	getObjectStructureSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["objectStructure"],
	  "properties": {
	    "tenantId": { "type": "string" },
	    "objectStructure": { "type": "string" }
	  }
	}`

	intentPlanSchema = `{
	  "type": "object",
	  "additionalProperties": false,
	  "required": ["intent"],
	  "properties": {
	    "tenantId": { "type": "string" },
	    "intent": { "type": "string" }
	  }
	}`
)

func (r *Registry) catalog() []*ToolDef {
	return []*ToolDef{
		{
			Name:        "mcp.listTools",
			Description: "List available MCP tools (capped by TOOL_CATALOG_LIMIT).",
			InputSchema: json.RawMessage(emptyObjectSchema),
			handler:     r.listTools,
		},
		{
			Name:        "tenants.list",
			Description: "List configured tenants (redacted).",
			InputSchema: json.RawMessage(emptyObjectSchema),
			handler:     r.listTenants,
		},
		{
			Name:        "admin.tenants.upsert",
			Description: "Upsert a tenant configuration (requires server CONFIG_WRITE_ENABLED; approvals optional via REST).",
			InputSchema: json.RawMessage(upsertTenantSchema),
			handler:     r.upsertTenantPlaceholder,
		},
		{
			Name:        "admin.tenants.delete",
			Description: "Delete a tenant configuration (requires server CONFIG_WRITE_ENABLED; approvals optional via REST).",
			InputSchema: json.RawMessage(deleteTenantSchema),
			handler:     r.deleteTenantPlaceholder,
		},
		{
			Name:        "maximo.execute_query",
			Description: "Execute a safe, allowlisted OSLC query (structured filters) against a Maximo object structure.",
			InputSchema: json.RawMessage(executeQuerySchema),
			Annotations: map[string]any{
				"tenantScoped": true,
				"maximo": map[string]any{
					"readOnly":    true,
					"domainAware": false,
					"oslc": map[string]any{
						"supportsWhere":   true,
						"supportsSelect":  true,
						"supportsOrderBy": true,
						"supportsPaging":  true,
					},
				},
				"ui": map[string]any{"group": "Maximo", "tags": []string{"query", "oslc"}},
			},
			handler: r.executeQuery,
		},
		{
			Name:        "maximo.execute_operation",
			Description: "Execute a Maximo operation (generic) with preflight/commit phases (approvals optional via REST).",
			InputSchema: json.RawMessage(executeOperationSchema),
			Annotations: map[string]any{
				"tenantScoped": true,
				"maximo":       map[string]any{"readOnly": false, "domainAware": true},
				"ui":           map[string]any{"group": "Maximo", "tags": []string{"operation", "write"}},
			},
			handler: r.executeOperation,
		},
		{
			Name:        "maximo.metadata.list_object_structures",
			Description: "List available object structures (best-effort; uses tenant config if set, otherwise probes /oslc/os).",
			InputSchema: json.RawMessage(tenantOnlySchema),
			Annotations: map[string]any{
				"tenantScoped": true,
				"maximo":       map[string]any{"readOnly": true},
				"ui":           map[string]any{"group": "Metadata", "tags": []string{"schema"}},
			},
			handler: r.listObjectStructures,
		},
		{
			Name:        "maximo.metadata.get_object_structure",
			Description: "Get inferred schema for an object structure (fields inferred from a sample record; cached per-tenant).",
			InputSchema: json.RawMessage(getObjectStructureSchema),
			Annotations: map[string]any{
				"tenantScoped": true,
				"maximo":       map[string]any{"readOnly": true},
				"ui":           map[string]any{"group": "Metadata", "tags": []string{"schema"}},
			},
			handler: r.getObjectStructure,
		},
		{
			Name:        "maximo.intent_to_oslc_plan",
			Description: "Convert a Maximo intent to a structured OSLC query plan (deterministic heuristic).",
			InputSchema: json.RawMessage(intentPlanSchema),
			Annotations: map[string]any{
				"tenantScoped": true,
				"maximo":       map[string]any{"readOnly": true},
				"ui":           map[string]any{"group": "Agent", "tags": []string{"plan"}},
			},
			handler: r.intentToPlan,
		},
	}
}
