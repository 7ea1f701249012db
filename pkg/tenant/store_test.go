package tenant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/assetbridge/maxgw/pkg/types"
)

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "tenants.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, err := fs.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty store, got %d tenants, err %v", len(list), err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := fs.Upsert(ctx, validAPIKeyTenant()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A fresh store loaded from the same file sees the record.
	fs2, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs2.Get(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.BaseURL != "https://maximo.example.com" {
		t.Errorf("unexpected tenant after reload: %+v", got)
	}
}

func TestFileStoreGetAbsent(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "tenants.json"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("absent tenant is not an error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent tenant, got %+v", got)
	}
}

func TestFileStoreUpsertReplacesByID(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "tenants.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := fs.Upsert(ctx, validAPIKeyTenant()); err != nil {
		t.Fatal(err)
	}
	updated := validAPIKeyTenant()
	updated.Org = "EAGLENA"
	if err := fs.Upsert(ctx, updated); err != nil {
		t.Fatal(err)
	}

	list, _ := fs.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 tenant, got %d", len(list))
	}
	if list[0].Org != "EAGLENA" {
		t.Errorf("upsert did not replace: %+v", list[0])
	}
}

func TestFileStoreUpsertRejectsInvalid(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "tenants.json"))
	if err != nil {
		t.Fatal(err)
	}
	bad := validAPIKeyTenant()
	bad.BaseURL = "not-a-url"
	err = fs.Upsert(context.Background(), bad)
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeTenantInvalid {
		t.Fatalf("expected TENANT_INVALID, got %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "tenants.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fs.Upsert(ctx, validAPIKeyTenant()); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = fs.Delete(ctx, "t1")
	app, ok := types.AsAppError(err)
	if !ok || app.Code != types.CodeTenantNotFound {
		t.Fatalf("expected TENANT_NOT_FOUND, got %v", err)
	}
}

func TestFileStoreLoadsWrapperShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	doc := `{"tenants":[{"tenantId":"t9","authMode":"apiKey","baseUrl":"https://m.example.com","apiKey":"k"}]}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs.Get(context.Background(), "t9")
	if err != nil || got == nil {
		t.Fatalf("wrapper-shaped file should load: %v %v", got, err)
	}
}
