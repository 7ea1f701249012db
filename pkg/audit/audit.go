// Package audit records dispatched tool calls. Every call is logged;
// when a Postgres pool is configured the event is also persisted.
// Recording is best-effort and never fails the dispatch it describes.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one dispatched tool call.
//
// Expected table:
//
//	CREATE TABLE mcp_audit (
//	    event_id    UUID PRIMARY KEY,
//	    tenant_id   TEXT NOT NULL DEFAULT '',
//	    method      TEXT NOT NULL,
//	    outcome     TEXT NOT NULL,
//	    duration_ms BIGINT NOT NULL,
//	    params_sha  TEXT NOT NULL DEFAULT '',
//	    recorded_at TIMESTAMPTZ NOT NULL
//	);
type Event struct {
	ID         string
	TenantID   string
	Method     string
	Outcome    string // "ok" or the application error code
	DurationMS int64
	ParamsSHA  string
	At         time.Time
}

// Recorder writes audit events. A nil pool means log-only.
type Recorder struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRecorder(pool *pgxpool.Pool, log *slog.Logger) *Recorder {
	return &Recorder{pool: pool, log: log}
}

// Record logs the event and persists it when a pool is configured.
// Persistence failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	r.log.InfoContext(ctx, "tool call",
		"event_id", e.ID,
		"tenant_id", e.TenantID,
		"method", e.Method,
		"outcome", e.Outcome,
		"duration_ms", e.DurationMS,
	)

	if r.pool == nil {
		return
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mcp_audit (event_id, tenant_id, method, outcome, duration_ms, params_sha, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.TenantID, e.Method, e.Outcome, e.DurationMS, e.ParamsSHA, e.At,
	)
	if err != nil {
		r.log.ErrorContext(ctx, "audit insert failed",
			"event_id", e.ID,
			"method", e.Method,
			"error", err,
		)
	}
}

// HashParams fingerprints request params for the audit row without
// storing the params themselves, which may embed credentials.
func HashParams(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
