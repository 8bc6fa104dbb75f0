package domain

import "context"

// RunService orchestrates run journaling. The journal is bookkeeping,
// not orchestration: callers treat its errors as warnings.
type RunService struct {
	repo RunRepository
}

// NewRunService creates a new RunService.
func NewRunService(repo RunRepository) *RunService {
	return &RunService{repo: repo}
}

// Begin records a new run in the running state.
func (s *RunService) Begin(ctx context.Context, run *Run) (*Run, error) {
	run.Status = StatusRunning
	return s.repo.Create(ctx, run)
}

// Get retrieves a run by ID.
func (s *RunService) Get(ctx context.Context, id int64) (*Run, error) {
	return s.repo.Get(ctx, id)
}

// Recent retrieves the most recent runs up to the limit.
func (s *RunService) Recent(ctx context.Context, limit int) ([]Run, error) {
	return s.repo.Recent(ctx, limit)
}

// Finish marks a run as completed.
func (s *RunService) Finish(ctx context.Context, id int64) error {
	return s.repo.Complete(ctx, id)
}

// Abort marks a run as failed with the reason.
func (s *RunService) Abort(ctx context.Context, id int64, reason string) error {
	return s.repo.Fail(ctx, id, reason)
}
