package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FredHutch/docker-sortmerna/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    input        TEXT NOT NULL,
    output_reads TEXT NOT NULL,
    output_logs  TEXT NOT NULL,
    db           TEXT,
    threads      INTEGER NOT NULL DEFAULT 1,
    status       TEXT NOT NULL DEFAULT 'running',
    error        TEXT,
    started_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at  DATETIME
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

// Repository implements domain.RunRepository using SQLite.
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository, initializing the schema if needed.
func New(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new run record.
func (r *Repository) Create(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	now := time.Now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (input, output_reads, output_logs, db, threads, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Input, run.OutputReads, run.OutputLogs, run.Database, run.Threads, domain.StatusRunning, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	created := *run
	created.ID = id
	created.Status = domain.StatusRunning
	created.StartedAt = now
	return &created, nil
}

// Get retrieves a run by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, input, output_reads, output_logs, COALESCE(db, ''), threads, status,
		        COALESCE(error, ''), started_at, finished_at
		 FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

// Recent returns the most recent runs up to limit, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, input, output_reads, output_logs, COALESCE(db, ''), threads, status,
		        COALESCE(error, ''), started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Complete marks a run as completed.
func (r *Repository) Complete(ctx context.Context, id int64) error {
	return r.finish(ctx, id, domain.StatusCompleted, "")
}

// Fail marks a run as failed with the reason.
func (r *Repository) Fail(ctx context.Context, id int64, reason string) error {
	return r.finish(ctx, id, domain.StatusFailed, reason)
}

func (r *Repository) finish(ctx context.Context, id int64, status domain.RunStatus, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, reason, time.Now(), id,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var run domain.Run
	var status string
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.Input, &run.OutputReads, &run.OutputLogs, &run.Database,
		&run.Threads, &status, &run.Error, &run.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
