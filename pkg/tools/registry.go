// Package tools holds the fixed MCP tool catalog and its handlers.
//
// The catalog is built once at startup. Every tool carries a JSON Schema
// input contract that is enforced before the handler runs, so handlers can
// assume structurally valid input.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/assetbridge/maxgw/pkg/config"
	"github.com/assetbridge/maxgw/pkg/metadata"
	"github.com/assetbridge/maxgw/pkg/metrics"
	"github.com/assetbridge/maxgw/pkg/oslc"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

// MaximoClient is the slice of the OSLC client the tool handlers need.
type MaximoClient interface {
	Query(ctx context.Context, objectStructure string, args oslc.QueryArgs) (*oslc.QueryResult, error)
	ExecuteOperation(ctx context.Context, operation string, target oslc.Target, payload map[string]any) (oslc.Record, error)
	ListObjectStructuresFallback(ctx context.Context) []string
}

// ClientFactory builds a tenant-bound client. Injectable for tests.
type ClientFactory func(t tenant.Config) MaximoClient

// Handler executes one tool call. tenantID is the dispatcher-resolved
// effective tenant; tools that are not tenant-scoped ignore it.
type Handler func(ctx context.Context, tenantID string, params json.RawMessage) (any, error)

// ToolDef is one catalog entry.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations map[string]any  `json:"annotations,omitempty"`

	handler Handler
	schema  *jsonschema.Schema
}

// Registry is the immutable tool catalog plus the shared collaborators the
// handlers close over.
type Registry struct {
	cfg       config.App
	store     tenant.Store
	cache     *metadata.Cache
	log       *slog.Logger
	newClient ClientFactory

	tools  []*ToolDef
	byName map[string]*ToolDef
}

// Build compiles the catalog. factory may be nil, in which case real OSLC
// clients are constructed per call.
func Build(cfg config.App, store tenant.Store, cache *metadata.Cache, log *slog.Logger, m *metrics.Metrics, factory ClientFactory) (*Registry, error) {
	if factory == nil {
		factory = func(t tenant.Config) MaximoClient {
			return oslc.NewClient(t, log, m)
		}
	}
	r := &Registry{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		log:       log,
		newClient: factory,
		byName:    make(map[string]*ToolDef),
	}

	for _, def := range r.catalog() {
		s, err := jsonschema.CompileString(def.Name+".json", string(def.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile input schema for %s: %w", def.Name, err)
		}
		def.schema = s
		r.tools = append(r.tools, def)
		r.byName[def.Name] = def
	}
	return r, nil
}

// Get looks a tool up by exact name.
func (r *Registry) Get(name string) (*ToolDef, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Call validates params against the tool's input contract and runs the
// handler. Nil params are treated as an empty object.
func (r *Registry) Call(ctx context.Context, def *ToolDef, tenantID string, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return nil, types.E(types.CodeInvalidInput, "params must be valid JSON",
			map[string]string{"tool": def.Name})
	}
	if err := def.schema.Validate(decoded); err != nil {
		loc, msg := leafValidationError(err)
		return nil, types.E(types.CodeInvalidInput,
			fmt.Sprintf("invalid input for %s at %s: %s", def.Name, loc, msg),
			map[string]string{"tool": def.Name, "location": loc})
	}
	return def.handler(ctx, tenantID, params)
}

// clientFor resolves a tenant and binds a client to it.
func (r *Registry) clientFor(ctx context.Context, tenantID string) (*tenant.Config, MaximoClient, error) {
	t, err := r.store.Get(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, types.E(types.CodeTenantNotFound, "tenant not found: "+tenantID,
			map[string]string{"tenantId": tenantID})
	}
	return t, r.newClient(*t), nil
}

func leafValidationError(err error) (location, message string) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return "/", err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	msg := ve.Message
	if msg == "" {
		msg = ve.Error()
	}
	return loc, msg
}
