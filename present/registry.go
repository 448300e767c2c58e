// Copyright 2026 The pixtag Authors
// SPDX-License-Identifier: MIT

package present

import (
	"sort"
	"sync"
)

// Factory creates a Presenter with the given options.
type Factory func(opts Options) (Presenter, error)

// RegistryEntry describes a registered presenter backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	// Convention: 100 for GPU-backed presenters, 10 for the in-memory
	// image presenter.
	Priority int

	// Factory creates presenter instances.
	Factory Factory

	// Available reports whether the backend works on this system.
	Available func() bool
}

var globalRegistry = &Registry{}

// Registry manages presenter backends so front-ends can plug in their own
// without changes to the engine.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates an empty registry. Most code uses the global one via
// Register and New.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register adds a backend to the global registry.
// A nil available function means always available. Registering an existing
// name replaces the previous entry.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// Available returns the names of usable backends, best first.
func Available() []string {
	return globalRegistry.Available()
}

// New creates a presenter using the best available backend.
func New(opts Options) (Presenter, error) {
	return globalRegistry.New(opts)
}

// NewByName creates a presenter using a specific backend.
func NewByName(name string, opts Options) (Presenter, error) {
	return globalRegistry.NewByName(name, opts)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Available returns the names of usable backends, best first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.Available() {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := r.entries[names[i]], r.entries[names[j]]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Name < b.Name
	})
	return names
}

// New creates a presenter using the best available backend, falling
// through to lower-priority backends when creation fails.
func (r *Registry) New(opts Options) (Presenter, error) {
	available := r.Available()
	if len(available) == 0 {
		return nil, ErrNoBackend
	}

	var lastErr error
	for _, name := range available {
		p, err := r.NewByName(name, opts)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// NewByName creates a presenter using a specific backend.
func (r *Registry) NewByName(name string, opts Options) (Presenter, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory(opts)
}
