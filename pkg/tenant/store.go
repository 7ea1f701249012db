package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/assetbridge/maxgw/pkg/types"
)

// Store abstracts tenant persistence so the backing mechanism (file,
// Postgres) is swappable without touching the dispatch path. Get returns
// (nil, nil) when the tenant does not exist.
type Store interface {
	Get(ctx context.Context, tenantID string) (*Config, error)
	List(ctx context.Context) ([]Config, error)
	Upsert(ctx context.Context, t Config) error
	Delete(ctx context.Context, tenantID string) error
}

// ──────────────────────────────────────────────────────────────────────────────
// FileStore: JSON file with atomic writes
// ──────────────────────────────────────────────────────────────────────────────

// FileStore keeps tenants in memory, persisted to a JSON file. Writes
// replace the whole file via a temp-file rename.
type FileStore struct {
	path string

	mu      sync.RWMutex
	tenants []Config
}

// NewFileStore loads tenants from path. A missing file starts the store
// empty; the path is remembered for later persistence.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, types.E(types.CodeTenantsLoadFailed, "Failed to load tenants file",
			map[string]string{"error": err.Error(), "filePath": path})
	}

	// Accept either a bare array or a {"tenants": [...]} wrapper.
	var arr []Config
	if err := json.Unmarshal(raw, &arr); err != nil {
		var wrapper struct {
			Tenants []Config `json:"tenants"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, types.E(types.CodeTenantsLoadFailed, "Failed to load tenants file",
				map[string]string{"error": err.Error(), "filePath": path})
		}
		arr = wrapper.Tenants
	}

	for i := range arr {
		if err := arr[i].Validate(); err != nil {
			return nil, err
		}
	}
	fs.tenants = arr
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, tenantID string) (*Config, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	for i := range fs.tenants {
		if fs.tenants[i].TenantID == tenantID {
			t := fs.tenants[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (fs *FileStore) List(_ context.Context) ([]Config, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]Config, len(fs.tenants))
	copy(out, fs.tenants)
	return out, nil
}

func (fs *FileStore) Upsert(_ context.Context, t Config) error {
	if err := t.Validate(); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	replaced := false
	for i := range fs.tenants {
		if fs.tenants[i].TenantID == t.TenantID {
			fs.tenants[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		fs.tenants = append([]Config{t}, fs.tenants...)
	}
	return fs.persistLocked()
}

func (fs *FileStore) Delete(_ context.Context, tenantID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	kept := fs.tenants[:0]
	found := false
	for _, t := range fs.tenants {
		if t.TenantID == tenantID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return types.E(types.CodeTenantNotFound, fmt.Sprintf("Tenant not found: %s", tenantID))
	}
	fs.tenants = kept
	return fs.persistLocked()
}

func (fs *FileStore) persistLocked() error {
	content, err := json.MarshalIndent(fs.tenants, "", "  ")
	if err != nil {
		return types.E(types.CodeTenantsWriteFailed, "Failed to persist tenants file",
			map[string]string{"error": err.Error(), "filePath": fs.path})
	}
	if err := atomicWrite(fs.path, content); err != nil {
		return types.E(types.CodeTenantsWriteFailed, "Failed to persist tenants file",
			map[string]string{"error": err.Error(), "filePath": fs.path})
	}
	return nil
}

func atomicWrite(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
