package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/bm-aniversariantes-api/internal/models"
)

const dispatchRunColumns = `id, status, total, progress, succeeded, failed, target_ids, results, created_by, created_at, started_at, finished_at`

const postgresDispatchSchema = `CREATE TABLE IF NOT EXISTS dispatch_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total INTEGER NOT NULL DEFAULT 0,
	progress INTEGER NOT NULL DEFAULT 0,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	target_ids TEXT NOT NULL DEFAULT '[]',
	results TEXT NOT NULL DEFAULT '[]',
	created_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ NULL,
	finished_at TIMESTAMPTZ NULL
)`

const sqliteDispatchSchema = `CREATE TABLE IF NOT EXISTS dispatch_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total INTEGER NOT NULL DEFAULT 0,
	progress INTEGER NOT NULL DEFAULT 0,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	target_ids TEXT NOT NULL DEFAULT '[]',
	results TEXT NOT NULL DEFAULT '[]',
	created_by TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	started_at DATETIME NULL,
	finished_at DATETIME NULL
)`

const dispatchStatusIndex = `CREATE INDEX IF NOT EXISTS idx_dispatch_runs_status ON dispatch_runs (status, created_at)`

// DispatchRepository records notification runs in PostgreSQL or SQLite.
type DispatchRepository struct {
	db *sqlx.DB
}

// NewDispatchRepository constructs the repository.
func NewDispatchRepository(db *sqlx.DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

// EnsureSchema creates the dispatch_runs table for the connected driver.
func (r *DispatchRepository) EnsureSchema(ctx context.Context) error {
	ddl := postgresDispatchSchema
	if r.db.DriverName() == "sqlite" {
		ddl = sqliteDispatchSchema
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create dispatch_runs: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, dispatchStatusIndex); err != nil {
		return fmt.Errorf("create dispatch_runs index: %w", err)
	}
	return nil
}

// Create inserts a run with generated defaults.
func (r *DispatchRepository) Create(ctx context.Context, run *models.DispatchRun) error {
	prepareRun(run)
	query := r.db.Rebind(`INSERT INTO dispatch_runs (` + dispatchRunColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.Total, run.Current, run.Succeeded, run.Failed,
		run.TargetIDs, run.Results, run.CreatedBy, run.CreatedAt, run.StartedAt, run.FinishedAt,
	); err != nil {
		return fmt.Errorf("create dispatch run: %w", err)
	}
	return nil
}

// GetByID returns a run by identifier. Missing rows surface as sql.ErrNoRows.
func (r *DispatchRepository) GetByID(ctx context.Context, id string) (*models.DispatchRun, error) {
	query := r.db.Rebind(`SELECT ` + dispatchRunColumns + ` FROM dispatch_runs WHERE id = ?`)
	var run models.DispatchRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, fmt.Errorf("get dispatch run: %w", err)
	}
	return &run, nil
}

// Update persists progress, counters, results and timestamps of a run.
func (r *DispatchRepository) Update(ctx context.Context, run *models.DispatchRun) error {
	query := r.db.Rebind(`UPDATE dispatch_runs SET status = ?, progress = ?, succeeded = ?, failed = ?, results = ?, started_at = ?, finished_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		run.Status, run.Current, run.Succeeded, run.Failed, run.Results, run.StartedAt, run.FinishedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("update dispatch run: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update dispatch run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// FindActive returns the queued or processing run, or nil when the dispatcher is idle.
func (r *DispatchRepository) FindActive(ctx context.Context) (*models.DispatchRun, error) {
	query := r.db.Rebind(`SELECT ` + dispatchRunColumns + ` FROM dispatch_runs WHERE status IN (?, ?) ORDER BY created_at DESC LIMIT 1`)
	var run models.DispatchRun
	err := r.db.GetContext(ctx, &run, query, models.DispatchStatusQueued, models.DispatchStatusProcessing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active dispatch run: %w", err)
	}
	return &run, nil
}

// ListRecent returns the latest runs, newest first.
func (r *DispatchRepository) ListRecent(ctx context.Context, limit int) ([]models.DispatchRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := r.db.Rebind(`SELECT ` + dispatchRunColumns + ` FROM dispatch_runs ORDER BY created_at DESC LIMIT ?`)
	runs := []models.DispatchRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list dispatch runs: %w", err)
	}
	return runs, nil
}

// FinishStale closes runs left active by a previous process.
func (r *DispatchRepository) FinishStale(ctx context.Context, at time.Time) (int64, error) {
	query := r.db.Rebind(`UPDATE dispatch_runs SET status = ?, finished_at = ? WHERE status IN (?, ?)`)
	res, err := r.db.ExecContext(ctx, query,
		models.DispatchStatusFinished, at.UTC(), models.DispatchStatusQueued, models.DispatchStatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("finish stale dispatch runs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return rows, nil
}

func prepareRun(run *models.DispatchRun) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.DispatchStatusQueued
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.TargetIDs == nil {
		run.TargetIDs = models.StringList{}
	}
	if run.Results == nil {
		run.Results = models.DispatchResults{}
	}
}
