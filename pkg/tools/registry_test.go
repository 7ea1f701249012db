package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/metadata"
	"github.com/assetbridge/maxgw/pkg/oslc"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

// ──────────────────────────────────────────────────────────────────────────────
// Test fixtures shared by the tools tests
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	tenants map[string]tenant.Config
}

func (m *memStore) Get(_ context.Context, id string) (*tenant.Config, error) {
	if t, ok := m.tenants[id]; ok {
		c := t
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) List(_ context.Context) ([]tenant.Config, error) {
	out := make([]tenant.Config, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, t tenant.Config) error {
	m.tenants[t.TenantID] = t
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.tenants, id)
	return nil
}

// fakeMaximo records calls and serves canned responses.
type fakeMaximo struct {
	sample     oslc.Record // served to the shape probe
	queryOut   *oslc.QueryResult
	queryErr   error
	lastArgs   oslc.QueryArgs
	lastOS     string
	operations int
	opResult   oslc.Record
	discovered []string
}

func (f *fakeMaximo) Query(_ context.Context, objectStructure string, args oslc.QueryArgs) (*oslc.QueryResult, error) {
	// A shape probe is select=* pageSize=1 with no filter.
	if args.Select == "*" && args.PageSize == 1 && args.Where == "" {
		if f.sample == nil {
			return &oslc.QueryResult{Items: []oslc.Record{}}, nil
		}
		return &oslc.QueryResult{Items: []oslc.Record{f.sample}}, nil
	}
	f.lastOS = objectStructure
	f.lastArgs = args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryOut != nil {
		return f.queryOut, nil
	}
	return &oslc.QueryResult{Items: []oslc.Record{}}, nil
}

func (f *fakeMaximo) ExecuteOperation(_ context.Context, _ string, _ oslc.Target, _ map[string]any) (oslc.Record, error) {
	f.operations++
	if f.opResult != nil {
		return f.opResult, nil
	}
	return oslc.Record{"ok": true}, nil
}

func (f *fakeMaximo) ListObjectStructuresFallback(_ context.Context) []string {
	return f.discovered
}

func testRegistry(t *testing.T, fake *fakeMaximo, tenants ...tenant.Config) *Registry {
	t.Helper()
	store := &memStore{tenants: map[string]tenant.Config{}}
	for _, tc := range tenants {
		store.tenants[tc.TenantID] = tc
	}
	cfg := config.App{ToolCatalogLimit: 128}
	r, err := Build(cfg, store, metadata.NewCache(3600), slog.New(slog.NewTextHandler(io.Discard, nil)), nil,
		func(tenant.Config) MaximoClient { return fake })
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return r
}

func apiKeyTenant(id string) tenant.Config {
	return tenant.Config{
		TenantID: id,
		AuthMode: tenant.AuthAPIKey,
		BaseURL:  "https://maximo.example.com",
		APIKey:   "sk-test",
	}
}

func callTool(t *testing.T, r *Registry, name, tenantID string, params string) (any, error) {
	t.Helper()
	def, ok := r.Get(name)
	if !ok {
		t.Fatalf("tool %s not registered", name)
	}
	return r.Call(context.Background(), def, tenantID, json.RawMessage(params))
}

// ──────────────────────────────────────────────────────────────────────────────
// Registry behavior
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogRegistersAllTools(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{})
	want := []string{
		"mcp.listTools",
		"tenants.list",
		"admin.tenants.upsert",
		"admin.tenants.delete",
		"maximo.execute_query",
		"maximo.execute_operation",
		"maximo.metadata.list_object_structures",
		"maximo.metadata.get_object_structure",
		"maximo.intent_to_oslc_plan",
	}
	for _, name := range want {
		if _, ok := r.Get(name); !ok {
			t.Errorf("tool %s missing from catalog", name)
		}
	}
	if _, ok := r.Get("maximo.EXECUTE_QUERY"); ok {
		t.Error("lookup must be exact, not case-folded")
	}
}

func TestListToolsIsIdempotent(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{})
	first, err := callTool(t, r, "mcp.listTools", "", "{}")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := callTool(t, r, "mcp.listTools", "", "{}")

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("catalog must be byte-identical across calls")
	}
}

func TestListToolsHonorsCatalogLimit(t *testing.T) {
	store := &memStore{tenants: map[string]tenant.Config{}}
	r, err := Build(config.App{ToolCatalogLimit: 3}, store, metadata.NewCache(3600),
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil, func(tenant.Config) MaximoClient { return &fakeMaximo{} })
	if err != nil {
		t.Fatal(err)
	}
	out, err := callTool(t, r, "mcp.listTools", "", "{}")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(out.([]*ToolDef)); got != 3 {
		t.Errorf("catalog not capped: got %d tools", got)
	}
}

func TestCallRejectsSchemaViolations(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{}, apiKeyTenant("t1"))
	cases := []struct {
		name   string
		tool   string
		params string
	}{
		{"missing required", "maximo.execute_query", `{"tenantId":"t1"}`},
		{"wrong type", "maximo.execute_query", `{"tenantId":1,"objectStructure":"mxwo","query":{}}`},
		{"bad op enum", "maximo.execute_query", `{"tenantId":"t1","objectStructure":"mxwo","query":{"where":[{"field":"f","op":"between"}]}}`},
		{"bad mode enum", "maximo.execute_operation", `{"tenantId":"t1","operation":"x","target":{"objectStructure":"mxwo","key":"1"},"mode":"dryrun"}`},
		{"extra property", "tenants.list", `{"verbose":true}`},
		{"not json", "mcp.listTools", `{"`},
	}
	for _, tc := range cases {
		_, err := callTool(t, r, tc.tool, "t1", tc.params)
		app, ok := types.AsAppError(err)
		if !ok || app.Code != types.CodeInvalidInput {
			t.Errorf("%s: expected INVALID_INPUT, got %v", tc.name, err)
		}
	}
}

func TestCallTreatsNilParamsAsEmptyObject(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{})
	def, _ := r.Get("mcp.listTools")
	if _, err := r.Call(context.Background(), def, "", nil); err != nil {
		t.Fatalf("nil params must decode as {}: %v", err)
	}
}

func TestTenantsListRedacts(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{}, apiKeyTenant("t1"))
	out, err := callTool(t, r, "tenants.list", "", "{}")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(out)
	if strings.Contains(string(raw), "sk-test") {
		t.Errorf("redacted listing leaked a secret: %s", raw)
	}
}

func TestAdminPlaceholdersPointAtREST(t *testing.T) {
	r := testRegistry(t, &fakeMaximo{})
	out, err := callTool(t, r, "admin.tenants.delete", "", `{"tenantId":"t1"}`)
	if err != nil {
		t.Fatal(err)
	}
	m := out.(map[string]any)
	if m["ok"] != true || m["note"] == "" {
		t.Errorf("placeholder must answer ok with a pointer note, got %v", m)
	}
}
