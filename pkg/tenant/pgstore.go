package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetbridge/maxgw/pkg/types"
)

// PGStore persists tenants in Postgres. The record is stored as jsonb so
// schema changes to Config do not require migrations.
//
// Expected table:
//
//	CREATE TABLE tenants (
//	    tenant_id  TEXT PRIMARY KEY,
//	    config     JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed tenant store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Get(ctx context.Context, tenantID string) (*Config, error) {
	row := s.pool.QueryRow(ctx, `SELECT config FROM tenants WHERE tenant_id = $1`, tenantID)

	var raw []byte
	err := row.Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tenant.Get: %w", err)
	}

	var t Config
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("tenant.Get unmarshal: %w", err)
	}
	return &t, nil
}

func (s *PGStore) List(ctx context.Context) ([]Config, error) {
	rows, err := s.pool.Query(ctx, `SELECT config FROM tenants ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("tenant.List: %w", err)
	}
	defer rows.Close()

	var out []Config
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("tenant.List scan: %w", err)
		}
		var t Config
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("tenant.List unmarshal: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant.List iteration: %w", err)
	}
	return out, nil
}

func (s *PGStore) Upsert(ctx context.Context, t Config) error {
	if err := t.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("tenant.Upsert marshal: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tenants (tenant_id, config, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO UPDATE SET config = $2, updated_at = $3`,
		t.TenantID, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("tenant.Upsert: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, tenantID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenants WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("tenant.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.E(types.CodeTenantNotFound, fmt.Sprintf("Tenant not found: %s", tenantID))
	}
	return nil
}
