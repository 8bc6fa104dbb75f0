package domain

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

// mockRepo implements RunRepository for testing.
type mockRepo struct {
	runs      map[int64]*Run
	nextID    int64
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{runs: make(map[int64]*Run), nextID: 1}
}

func (m *mockRepo) Create(ctx context.Context, run *Run) (*Run, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	created := *run
	created.ID = m.nextID
	created.Status = StatusRunning
	created.StartedAt = time.Now()
	m.runs[m.nextID] = &created
	m.nextID++
	return &created, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*Run, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copy := *run
	return &copy, nil
}

func (m *mockRepo) Recent(ctx context.Context, limit int) ([]Run, error) {
	var result []Run
	for _, run := range m.runs {
		result = append(result, *run)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepo) Complete(ctx context.Context, id int64) error {
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Status = StatusCompleted
	run.FinishedAt = time.Now()
	return nil
}

func (m *mockRepo) Fail(ctx context.Context, id int64, reason string) error {
	run, ok := m.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.Status = StatusFailed
	run.Error = reason
	run.FinishedAt = time.Now()
	return nil
}

func TestRunService_Begin(t *testing.T) {
	repo := newMockRepo()
	svc := NewRunService(repo)
	ctx := context.Background()

	run, err := svc.Begin(ctx, &Run{Input: "s3://bucket/reads.fastq", Threads: 4})
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if run.ID == 0 {
		t.Error("Begin() run.ID = 0, want non-zero")
	}
	if run.Status != StatusRunning {
		t.Errorf("Begin() run.Status = %q, want %q", run.Status, StatusRunning)
	}
}

func TestRunService_Begin_Error(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = errors.New("disk full")
	svc := NewRunService(repo)

	if _, err := svc.Begin(context.Background(), &Run{Input: "reads.fastq"}); err == nil {
		t.Error("Begin() error = nil, want error")
	}
}

func TestRunService_FinishAndAbort(t *testing.T) {
	repo := newMockRepo()
	svc := NewRunService(repo)
	ctx := context.Background()

	ok, _ := svc.Begin(ctx, &Run{Input: "a.fastq"})
	bad, _ := svc.Begin(ctx, &Run{Input: "b.fastq"})

	if err := svc.Finish(ctx, ok.ID); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if err := svc.Abort(ctx, bad.ID, "aligner exited with code 2"); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}

	got, _ := svc.Get(ctx, ok.ID)
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if !got.Finished() {
		t.Error("Finished() = false, want true")
	}

	got, _ = svc.Get(ctx, bad.ID)
	if got.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", got.Status, StatusFailed)
	}
	if got.Error != "aligner exited with code 2" {
		t.Errorf("Error = %q, want abort reason", got.Error)
	}
}

func TestRunService_Recent(t *testing.T) {
	repo := newMockRepo()
	svc := NewRunService(repo)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Begin(ctx, &Run{Input: "reads.fastq"}); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := svc.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Recent() len = %d, want 3", len(runs))
	}
}

func TestRun_Duration(t *testing.T) {
	started := time.Now()
	run := &Run{StartedAt: started}

	if run.Duration() != 0 {
		t.Errorf("Duration() = %v for unfinished run, want 0", run.Duration())
	}

	run.FinishedAt = started.Add(90 * time.Second)
	if run.Duration() != 90*time.Second {
		t.Errorf("Duration() = %v, want 90s", run.Duration())
	}
}
