// Package fetch materializes input locations into local files. One
// fetcher exists per scheme (local path, s3://, ftp://); a registry
// dispatches on the location prefix.
package fetch

import (
	"context"
	"fmt"
	"os"

	"github.com/FredHutch/docker-sortmerna/internal/domain"
)

// Registry holds registered fetchers, tried in order.
type Registry struct {
	fetchers []domain.Fetcher
}

// NewRegistry creates a new fetcher registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a fetcher to the registry.
func (r *Registry) Register(f domain.Fetcher) {
	r.fetchers = append(r.fetchers, f)
}

// Match returns the first fetcher that matches the location, or nil.
func (r *Registry) Match(location string) domain.Fetcher {
	for _, f := range r.fetchers {
		if f.Match(location) {
			return f
		}
	}
	return nil
}

// Fetchers returns all registered fetchers.
func (r *Registry) Fetchers() []domain.Fetcher {
	return r.fetchers
}

// Resolve materializes the location into destDir and returns the local
// path. The returned file is guaranteed to exist and be non-empty.
func (r *Registry) Resolve(ctx context.Context, location, destDir string) (string, error) {
	f := r.Match(location)
	if f == nil {
		return "", &domain.InvalidLocationError{Location: location}
	}

	local, err := f.Fetch(ctx, location, destDir)
	if err != nil {
		return "", &domain.RemoteFetchError{Location: location, Err: err}
	}

	info, err := os.Stat(local)
	if err != nil {
		return "", &domain.RemoteFetchError{Location: location, Err: err}
	}
	if info.Size() == 0 {
		return "", &domain.RemoteFetchError{Location: location, Err: fmt.Errorf("fetched file is empty: %s", local)}
	}
	return local, nil
}
