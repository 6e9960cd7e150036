// Package worker defines the pipeline contract that turns one PENDING
// SyncJob into a SUCCESS or FAILED job: selective download, validation,
// profiling, and atomic partition swap.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Provider executes the full pipeline for a single sync job, identified
// by ID so the caller never needs to hold the job struct across the
// dispatch boundary.
type Provider interface {
	// Run loads the job, executes the pipeline, and persists the final
	// SUCCESS or FAILED state plus, where one is written, its report. A
	// pipeline failure that was recorded on the job is not returned as an
	// error; Run returns an error when the job or its tenant cannot be
	// loaded, the job is not PENDING, or the job's state or report cannot
	// be persisted.
	Run(ctx context.Context, jobID uuid.UUID) error
}

// ErrProviderConflict is returned by Registry.Register when a name is
// already taken.
var ErrProviderConflict = fmt.Errorf("worker provider already registered")

// ErrProviderNotFound is returned by Registry.Get for an unknown name.
var ErrProviderNotFound = fmt.Errorf("worker provider not found")

// Registry is a thread-safe name -> Provider lookup, mirroring the shape
// used for the warehouse and tenant backends.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under name.
func (r *Registry) Register(name string, p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderConflict, name)
	}
	r.providers[name] = p
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}
