package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FredHutch/docker-sortmerna/internal/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRun() *domain.Run {
	return &domain.Run{
		Input:       "s3://bucket/reads.fastq",
		OutputReads: "/results/out.fastq",
		OutputLogs:  "/results/out.log",
		Database:    "/usr/sortmerna/all_rRNA-db.tar.gz",
		Threads:     4,
	}
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, newRun())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if run.ID == 0 {
		t.Error("Create() run.ID = 0, want non-zero")
	}
	if run.Status != domain.StatusRunning {
		t.Errorf("Create() run.Status = %q, want %q", run.Status, domain.StatusRunning)
	}
	if run.StartedAt.IsZero() {
		t.Error("Create() run.StartedAt is zero")
	}
}

func TestRepository_Get(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, _ := repo.Create(ctx, newRun())

	run, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if run.Input != "s3://bucket/reads.fastq" {
		t.Errorf("Get() run.Input = %q, want %q", run.Input, "s3://bucket/reads.fastq")
	}
	if run.Threads != 4 {
		t.Errorf("Get() run.Threads = %d, want 4", run.Threads)
	}
	if !run.FinishedAt.IsZero() {
		t.Errorf("Get() run.FinishedAt = %v, want zero for running run", run.FinishedAt)
	}

	// Get non-existent
	_, err = repo.Get(ctx, 9999)
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrRunNotFound)
	}
}

func TestRepository_Complete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, _ := repo.Create(ctx, newRun())

	if err := repo.Complete(ctx, created.ID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	run, _ := repo.Get(ctx, created.ID)
	if run.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want %q", run.Status, domain.StatusCompleted)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt is zero after Complete()")
	}

	if err := repo.Complete(ctx, 9999); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Complete(missing) error = %v, want %v", err, domain.ErrRunNotFound)
	}
}

func TestRepository_Fail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, _ := repo.Create(ctx, newRun())

	reason := "sortmerna exited with code 2"
	if err := repo.Fail(ctx, created.ID, reason); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	run, _ := repo.Get(ctx, created.ID)
	if run.Status != domain.StatusFailed {
		t.Errorf("Status = %q, want %q", run.Status, domain.StatusFailed)
	}
	if run.Error != reason {
		t.Errorf("Error = %q, want %q", run.Error, reason)
	}
}

func TestRepository_Recent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		run, err := repo.Create(ctx, newRun())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Recent() len = %d, want 3", len(runs))
	}
	// Newest first
	if runs[0].ID != ids[4] {
		t.Errorf("Recent()[0].ID = %d, want %d", runs[0].ID, ids[4])
	}
}
