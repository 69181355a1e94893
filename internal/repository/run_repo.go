package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/notion-mdx-sync/internal/database"
	"github.com/notion-mdx-sync/internal/models"
)

const runColumns = `id, trigger_source, status, idempotency_key, dry_run, total, created,
	updated, unchanged, skipped, duration_ms, error, created_at, started_at, completed_at`

// runRepo is the Postgres implementation of RunRepository
type runRepo struct {
	db *database.DB
}

// NewRunRepo creates a new run repository
func NewRunRepo(db *database.DB) RunRepository {
	return &runRepo{db: db}
}

// Create inserts a new run
func (r *runRepo) Create(ctx context.Context, run *models.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, trigger_source, status, idempotency_key, dry_run, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Trigger, run.Status, nullString(run.IdempotencyKey), run.DryRun, run.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateIdempotencyKey
	}
	return err
}

// Update updates run status and counters
func (r *runRepo) Update(ctx context.Context, run *models.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			status = $1, total = $2, created = $3, updated = $4, unchanged = $5,
			skipped = $6, duration_ms = $7, error = $8, started_at = $9, completed_at = $10
		WHERE id = $11
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Status, run.Total, run.Created, run.Updated, run.Unchanged,
		run.Skipped, run.DurationMs, nullString(run.Error), run.StartedAt, run.CompletedAt, run.ID,
	)
	return err
}

// GetByID retrieves a run by ID
func (r *runRepo) GetByID(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = $1`
	return scanRun(r.db.QueryRowContext(ctx, query, id))
}

// GetByIdempotencyKey retrieves a run by idempotency key
func (r *runRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE idempotency_key = $1`
	return scanRun(r.db.QueryRowContext(ctx, query, key))
}

// List returns the most recent runs first
func (r *runRepo) List(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetPendingRuns retrieves all pending runs, oldest first
func (r *runRepo) GetPendingRuns(ctx context.Context) ([]*models.SyncRun, error) {
	query := `
		SELECT id, trigger_source, dry_run, created_at
		FROM sync_runs WHERE status = 'pending'
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		var run models.SyncRun
		if err := rows.Scan(&run.ID, &run.Trigger, &run.DryRun, &run.CreatedAt); err != nil {
			continue
		}
		run.Status = models.RunStatusPending
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// MarkRunAsRunning atomically marks a pending run as running
func (r *runRepo) MarkRunAsRunning(ctx context.Context, runID string) (bool, error) {
	query := `
		UPDATE sync_runs SET status = 'running', started_at = $1
		WHERE id = $2 AND status = 'pending'
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), runID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// AddFiles records per-file outcomes using the COPY protocol
func (r *runRepo) AddFiles(ctx context.Context, runID string, files []models.FileResult) error {
	if len(files) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("sync_run_files",
		"run_id", "position", "notion_id", "slug", "path", "outcome", "reason",
	))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range files {
		if _, err := stmt.ExecContext(ctx, runID, i, f.NotionID, f.Slug, f.Path, string(f.Outcome), f.Reason); err != nil {
			return err
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}

	return tx.Commit()
}

// GetFiles retrieves per-file outcomes for a run in processing order
func (r *runRepo) GetFiles(ctx context.Context, runID string, limit int) ([]models.FileResult, error) {
	query := `SELECT notion_id, slug, path, outcome, reason FROM sync_run_files WHERE run_id = $1 ORDER BY position`
	if limit > 0 {
		query += " LIMIT $2"
	}

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query, runID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, runID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.FileResult
	for rows.Next() {
		var f models.FileResult
		var outcome string
		if err := rows.Scan(&f.NotionID, &f.Slug, &f.Path, &outcome, &f.Reason); err != nil {
			continue
		}
		f.Outcome = models.FileOutcome(outcome)
		files = append(files, f)
	}

	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.SyncRun, error) {
	var run models.SyncRun
	var idempotencyKey, runErr sql.NullString
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&run.ID, &run.Trigger, &run.Status, &idempotencyKey, &run.DryRun,
		&run.Total, &run.Created, &run.Updated, &run.Unchanged, &run.Skipped,
		&run.DurationMs, &runErr, &run.CreatedAt, &startedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.IdempotencyKey = idempotencyKey.String
	run.Error = runErr.String
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
