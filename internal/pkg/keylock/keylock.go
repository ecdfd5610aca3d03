// Package keylock provides process-scoped named mutexes. The masking session
// manager serializes its reuse-or-create path per (vehicle, phone) key so two
// near-simultaneous scans never create two live sessions for the same pair.
package keylock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Registry hands out mutexes by key. Idle entries are removed once released.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

// Acquire blocks until the named lock is held and returns its release func.
func (r *Registry) Acquire(key string) func() {
	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		r.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
