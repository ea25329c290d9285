package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CallRecord is one external capability call made on behalf of a run. Audit
// rows are operational telemetry only; pipeline results never round-trip
// through the database.
type CallRecord struct {
	CallID    uuid.UUID
	RunID     string
	Operation string
	Provider  string
	Model     string
	Status    string
	ErrorType string
	CreatedAt time.Time
}

// AuditRepo writes capability call records. A nil receiver is valid and drops
// every write, which is how the pipeline runs without Postgres configured.
type AuditRepo struct {
	db *DB
}

func NewAuditRepo(db *DB) *AuditRepo {
	if db == nil {
		return nil
	}
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, rec CallRecord) error {
	if r == nil || r.db == nil {
		return nil
	}
	if rec.CallID == uuid.Nil {
		rec.CallID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO capability_calls (call_id, run_id, operation, provider, model, status, error_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.CallID, rec.RunID, rec.Operation, rec.Provider, rec.Model, rec.Status, rec.ErrorType, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert capability call: %w", err)
	}
	return nil
}

// EnsureSchema creates the audit table when it does not exist yet.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS capability_calls (
			call_id    UUID PRIMARY KEY,
			run_id     TEXT NOT NULL,
			operation  TEXT NOT NULL,
			provider   TEXT NOT NULL,
			model      TEXT,
			status     TEXT NOT NULL,
			error_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure capability_calls table: %w", err)
	}
	return nil
}
