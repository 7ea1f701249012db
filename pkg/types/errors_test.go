package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorString(t *testing.T) {
	err := E(CodeTenantNotFound, "Tenant not found: t1")
	if got := err.Error(); got != "[TENANT_NOT_FOUND] Tenant not found: t1" {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestAsAppErrorUnwraps(t *testing.T) {
	inner := E(CodeOSLCQueryFailed, "OSLC query failed (502)")
	wrapped := fmt.Errorf("dispatch: %w", inner)

	app, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AppError through wrapping")
	}
	if app.Code != CodeOSLCQueryFailed {
		t.Errorf("expected code %s, got %s", CodeOSLCQueryFailed, app.Code)
	}
}

func TestAsAppErrorRejectsPlainErrors(t *testing.T) {
	if _, ok := AsAppError(errors.New("boom")); ok {
		t.Fatal("plain error should not convert")
	}
}

func TestEDetails(t *testing.T) {
	err := E(CodeFieldNotAllowed, "Select field not allowed: wonum", map[string]string{"field": "wonum"})
	details, ok := err.Details.(map[string]string)
	if !ok || details["field"] != "wonum" {
		t.Errorf("details not carried: %#v", err.Details)
	}
}
