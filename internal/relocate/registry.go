// Package relocate places result artifacts at their requested
// destinations. It mirrors the fetch registry: one sink per destination
// scheme, dispatched by prefix.
package relocate

import (
	"context"
	"errors"

	"github.com/FredHutch/docker-sortmerna/internal/domain"
)

// Registry holds registered sinks, tried in order.
type Registry struct {
	sinks []domain.Sink
}

// NewRegistry creates a new sink registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a sink to the registry.
func (r *Registry) Register(s domain.Sink) {
	r.sinks = append(r.sinks, s)
}

// Match returns the first sink that matches the destination, or nil.
func (r *Registry) Match(dest string) domain.Sink {
	for _, s := range r.sinks {
		if s.Match(dest) {
			return s
		}
	}
	return nil
}

// Place writes the local artifact to the destination.
func (r *Registry) Place(ctx context.Context, localPath, dest string) error {
	s := r.Match(dest)
	if s == nil {
		return &domain.OutputWriteError{Destination: dest, Err: errors.New("no sink for destination scheme")}
	}
	if err := s.Place(ctx, localPath, dest); err != nil {
		return &domain.OutputWriteError{Destination: dest, Err: err}
	}
	return nil
}
