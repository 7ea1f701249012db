// Package types defines the deterministic error model shared across the gateway.
package types

import (
	"errors"
	"fmt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Error codes
// ──────────────────────────────────────────────────────────────────────────────

const (
	// Tenant / configuration.
	CodeTenantNotFound           = "TENANT_NOT_FOUND"
	CodeTenantInvalid            = "TENANT_INVALID"
	CodeTenantMissingAPIKey      = "TENANT_MISSING_APIKEY"
	CodeTenantMissingMaxauth     = "TENANT_MISSING_MAXAUTH"
	CodeTenantMissingOAuth       = "TENANT_MISSING_OAUTH"
	CodeTenantMissingOAuthSecret = "TENANT_MISSING_OAUTH_SECRET"
	CodeTenantsLoadFailed        = "TENANTS_LOAD_FAILED"
	CodeTenantsWriteFailed       = "TENANTS_WRITE_FAILED"

	// Remote calls.
	CodeOAuthTokenFailed      = "OAUTH_TOKEN_FAILED"
	CodeOAuthTokenParseFailed = "OAUTH_TOKEN_PARSE_FAILED"
	CodeOAuthTokenMissing     = "OAUTH_TOKEN_MISSING"
	CodeOSLCQueryFailed       = "OSLC_QUERY_FAILED"
	CodeOSLCQueryNonJSON      = "OSLC_QUERY_NON_JSON"
	CodeOSLCOperationFailed   = "OSLC_OPERATION_FAILED"

	// Validation.
	CodeFieldNotAllowed       = "FIELD_NOT_ALLOWED"
	CodeFilterFieldNotAllowed = "FILTER_FIELD_NOT_ALLOWED"
	CodeInvalidIn             = "INVALID_IN"
	CodeInvalidInput          = "INVALID_INPUT"

	// Admin surface.
	CodeConfigWriteDisabled = "CONFIG_WRITE_DISABLED"
	CodeApprovalsDisabled   = "APPROVALS_DISABLED"
	CodeAgentError          = "AGENT_ERROR"
	CodeNotFound            = "NOT_FOUND"
)

// ──────────────────────────────────────────────────────────────────────────────
// AppError: a deterministic, code-carrying application error
// ──────────────────────────────────────────────────────────────────────────────

// AppError is the gateway's deterministic error. Every tool or admin failure
// surfaces as one of these, with a stable code and optional structured details.
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// E builds an AppError with optional structured details.
func E(code, message string, details ...any) *AppError {
	err := &AppError{Code: code, Message: message}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

// AsAppError unwraps err into an *AppError if it carries one.
func AsAppError(err error) (*AppError, bool) {
	var app *AppError
	if errors.As(err, &app) {
		return app, true
	}
	return nil, false
}
