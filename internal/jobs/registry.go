// Package jobs names the periodic jobs so the cron runner, the HTTP trigger and
// the Pub/Sub trigger can all start them the same way.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

const (
	Dispatch = "dispatch"
	Overdue  = "overdue"
	Water    = "water"
	Generate = "generate"
	Refresh  = "refresh"
	Prune    = "prune"
)

// ErrUnknownJob is returned for names that were never registered
var ErrUnknownJob = errors.New("unknown job")

// Func runs a job once and returns its summary
type Func func(ctx context.Context) (any, error)

// Registry maps job names to their run functions
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]Func)}
}

// Register adds or replaces a job
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = fn
}

// Run executes the named job
func (r *Registry) Run(ctx context.Context, name string) (any, error) {
	r.mu.RLock()
	fn, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return fn(ctx)
}

// Names lists registered jobs in alphabetical order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wrap adapts a typed job to Func
func Wrap[T any](run func(ctx context.Context) (T, error)) Func {
	return func(ctx context.Context) (any, error) {
		return run(ctx)
	}
}
