// Package client is a small Go SDK for calling the gateway's JSON-RPC
// endpoint from other services and integration tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/assetbridge/maxgw/pkg/jsonrpc"
)

type Client struct {
	baseURL      string
	apiKey       string
	tenantHeader string
	httpClient   *http.Client
}

// New builds a client. apiKey may be empty when the gateway runs without
// inbound auth; the tenant header defaults to x-tenant-id.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		tenantHeader: "x-tenant-id",
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTenantHeader overrides the header used to pin the tenant, matching a
// gateway configured with a custom TENANT_HEADER.
func (c *Client) SetTenantHeader(name string) { c.tenantHeader = name }

// Call issues one JSON-RPC tool call. A non-empty tenantID is sent in the
// tenant header, which the gateway resolves with the highest priority.
func (c *Client) Call(ctx context.Context, method, tenantID string, params any, result any) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("sdk marshal params: %w", err)
	}
	id, _ := json.Marshal(uuid.NewString())
	body, err := json.Marshal(jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return fmt.Errorf("sdk marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}
	if tenantID != "" {
		httpReq.Header.Set(c.tenantHeader, tenantID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope jsonrpc.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("sdk decode response (http %d): %w", resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return &RPCError{Code: envelope.Error.Code, Message: envelope.Error.Message, Data: envelope.Error.Data}
	}
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(envelope.Result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// ListTools fetches the tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var out []ToolInfo
	if err := c.Call(ctx, "mcp.listTools", "", map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteQuery runs an allowlisted structured query for a tenant.
func (c *Client) ExecuteQuery(ctx context.Context, tenantID, objectStructure string, query map[string]any) (*QueryResult, error) {
	var out QueryResult
	err := c.Call(ctx, "maximo.execute_query", tenantID, map[string]any{
		"tenantId":        tenantID,
		"objectStructure": objectStructure,
		"query":           query,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ToolInfo is one catalog entry as returned by mcp.listTools.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations map[string]any  `json:"annotations,omitempty"`
}

// QueryResult mirrors the execute_query output shape.
type QueryResult struct {
	Items []map[string]any `json:"items"`
	Page  struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
	} `json:"page"`
	Shape struct {
		Fields []string `json:"fields"`
	} `json:"shape"`
}

// RPCError is a JSON-RPC error response surfaced as a Go error.
type RPCError struct {
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
