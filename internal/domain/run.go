package domain

import "time"

// RunStatus represents the lifecycle state of a driver run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run records a single driver invocation in the journal.
type Run struct {
	ID          int64
	Input       string
	OutputReads string
	OutputLogs  string
	Database    string
	Threads     int
	Status      RunStatus
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns the wall time of a finished run, or zero if still running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finished returns true once the run reached a terminal status.
func (r *Run) Finished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
