// Package jsonrpc implements the JSON-RPC 2.0 envelope used by the /mcp
// endpoint.
package jsonrpc

import (
	"bytes"
	"encoding/json"
)

// Version is the fixed protocol marker every envelope must carry.
const Version = "2.0"

// Reserved error codes.
const (
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeAppError       = -32000
)

// Request is an inbound JSON-RPC call. ID is kept raw so string, number and
// null identifiers round-trip unchanged.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outbound JSON-RPC reply carrying either a result or an error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the protocol-level error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Parse decodes and validates a request envelope. It returns nil when the
// body is not a well-formed JSON-RPC 2.0 request (wrong version marker,
// missing method, or missing id field).
func Parse(body []byte) *Request {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil
	}

	var version string
	if err := json.Unmarshal(raw["jsonrpc"], &version); err != nil || version != Version {
		return nil
	}
	var method string
	if err := json.Unmarshal(raw["method"], &method); err != nil || method == "" {
		return nil
	}
	id, ok := raw["id"]
	if !ok {
		return nil
	}

	return &Request{
		JSONRPC: version,
		ID:      id,
		Method:  method,
		Params:  raw["params"],
	}
}

// Ok wraps a tool result in a success envelope.
func Ok(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// Err wraps a failure in an error envelope.
func Err(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      normalizeID(id),
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}

// normalizeID substitutes an explicit null for absent identifiers so the
// response envelope always carries the id field.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
