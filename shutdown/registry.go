// Package shutdown coordinates graceful teardown: an ordered registry of
// cleanup functions and a manager that ties them to OS signals.
package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go_backend/core"
)

// entry holds a registered cleanup function with metadata.
type entry struct {
	name     string
	fn       core.ShutdownFunc
	priority int // lower runs earlier
}

// Registry maintains an ordered collection of cleanup functions.
//
// Typical priority ranges:
//   - 0-9: flush telemetry
//   - 10-19: stop accepting external input (control surface)
//   - 20-29: stop background workers (engine loop, listener)
//   - 30-39: close storage (history writer, database)
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a cleanup function. Lower priority values execute
// earlier. Registration after Shutdown has run is a no-op.
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn, priority: priority})
}

// Names returns the registered handler names in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := append([]entry(nil), r.entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })

	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

// Shutdown executes all registered functions in priority order and
// returns any errors, each labeled with its handler name. The registry
// refuses further registrations afterwards.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	r.closed = true
	sorted := append([]entry(nil), r.entries...)
	r.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].priority < sorted[j].priority })

	var errs []error
	for _, e := range sorted {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}
