package alloy

import "sync"

// Registry is the process-wide metadata registry of spec.md §4.E.1: a
// mapping from service key to {scope, dependencies thunk, factory?}.
// Populated by generated modules, provider application and tests.
type Registry struct {
	mu      sync.RWMutex
	entries map[*ServiceKey]RegistryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[*ServiceKey]RegistryEntry{}}
}

// DefaultRegistry is the process-wide registry generated modules populate
// unless a Container is built with WithRegistry — the injection seam
// spec.md §9 recommends for a strict no-globals setup.
var DefaultRegistry = NewRegistry()

func (r *Registry) Register(key *ServiceKey, entry RegistryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry
}

func (r *Registry) Get(key *ServiceKey) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[key]
	return entry, ok
}

// GetOrDefault returns the registered entry, or the spec-mandated default
// (transient scope, no dependencies) when the key was never registered —
// this happens for plain Go values used as ad hoc dependencies in tests.
func (r *Registry) GetOrDefault(key *ServiceKey) RegistryEntry {
	entry, ok := r.Get(key)
	if !ok {
		return RegistryEntry{Scope: Transient}
	}
	return entry
}

// Clear resets the registry. Used by tests and by Restore.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = map[*ServiceKey]RegistryEntry{}
}

// Snapshot captures a complete copy of the registry's current state.
func (r *Registry) Snapshot() RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copyMap := make(map[*ServiceKey]RegistryEntry, len(r.entries))
	for k, v := range r.entries {
		copyMap[k] = v
	}
	return RegistrySnapshot{entries: copyMap}
}

// Restore replaces the registry's state wholesale with a prior snapshot.
func (r *Registry) Restore(snap RegistrySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[*ServiceKey]RegistryEntry, len(snap.entries))
	for k, v := range snap.entries {
		r.entries[k] = v
	}
}

// RegistrySnapshot is an opaque, complete-replacement snapshot of a
// Registry's state, per spec.md §4.E.5.
type RegistrySnapshot struct {
	entries map[*ServiceKey]RegistryEntry
}
