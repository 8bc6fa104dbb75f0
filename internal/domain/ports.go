package domain

import "context"

// RunRepository is the driven port for run journaling.
type RunRepository interface {
	Create(ctx context.Context, run *Run) (*Run, error)
	Get(ctx context.Context, id int64) (*Run, error)
	Recent(ctx context.Context, limit int) ([]Run, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, reason string) error
}

// Fetcher is the driven port for materializing an input location
// into a local file. Implementations are dispatched by URI prefix.
type Fetcher interface {
	Name() string
	Match(location string) bool
	Fetch(ctx context.Context, location, destDir string) (string, error)
}

// Sink is the driven port for placing a local artifact at a destination,
// which may be a local path or a remote URI.
type Sink interface {
	Name() string
	Match(dest string) bool
	Place(ctx context.Context, localPath, dest string) error
}
