package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/loanflow/pkg/domain"
)

// ErrUnknownAction is returned when a step names an action nobody registered.
var ErrUnknownAction = errors.New("action not registered")

// Func is a named side-effecting operation. It receives a private copy of the
// record and returns the enriched record.
type Func func(ctx context.Context, app *domain.Application) (*domain.Application, error)

// Registry manages the available actions.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Func
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Func),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// Names lists registered actions, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute runs the named action against a copy of app.
// On failure the original record is returned untouched alongside the error.
func (r *Registry) Execute(ctx context.Context, name string, app *domain.Application) (*domain.Application, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return app, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	out, err := fn(ctx, app.Clone())
	if err != nil {
		return app, fmt.Errorf("action %s: %w", name, err)
	}
	if out == nil {
		return app, nil
	}
	return out, nil
}
