package rating

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps ids to rating systems. The application owns its registry
// and passes it to whatever needs a lookup.
type Registry struct {
	mu      sync.RWMutex
	systems map[string]System
}

// NewRegistry returns a registry pre-populated with systems.
func NewRegistry(systems ...System) (*Registry, error) {
	r := &Registry{systems: make(map[string]System, len(systems))}
	for _, s := range systems {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds s under s.ID(). Registering an id twice fails.
func (r *Registry) Register(s System) error {
	if s == nil || s.ID() == "" {
		return fmt.Errorf("%w: system must be non-nil with a non-empty id", ErrInvalidSystem)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.systems == nil {
		r.systems = make(map[string]System)
	}
	if _, exists := r.systems[s.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSystem, s.ID())
	}
	r.systems[s.ID()] = s
	return nil
}

// Get returns the system registered under id. The not-found error lists the
// ids that are available.
func (r *Registry) Get(id string) (System, error) {
	r.mu.RLock()
	s, ok := r.systems[id]
	r.mu.RUnlock()

	if !ok {
		ids := r.IDs()
		available := "none"
		if len(ids) > 0 {
			available = strings.Join(ids, ", ")
		}
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSystemNotFound, id, available)
	}
	return s, nil
}

// Unregister removes id; it reports whether anything was removed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.systems[id]; !ok {
		return false
	}
	delete(r.systems, id)
	return true
}

// Clear removes every system.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.systems)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.systems))
	for id := range r.systems {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered systems.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.systems)
}
