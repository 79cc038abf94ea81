package bridge

import (
	"fmt"
	"sync"

	"mark/internal/domain/entities"
)

// Registry resolves a BridgeKind to the concrete Adapter configured for it.
// Concrete adapters are external collaborators (out of scope for this
// engine); the registry only holds whatever has been registered at startup.
type Registry struct {
	mu       sync.RWMutex
	adapters map[entities.BridgeKind]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[entities.BridgeKind]Adapter)}
}

// Register installs adapter under its own Kind(), overwriting any previous
// registration for that kind. Intended for startup wiring and deterministic
// test injection.
func (r *Registry) Register(adapter Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Kind()] = adapter
}

// Get resolves kind to its configured adapter.
func (r *Registry) Get(kind entities.BridgeKind) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for bridge kind %q", kind)
	}
	return adapter, nil
}

// Kinds returns every bridge kind currently registered.
func (r *Registry) Kinds() []entities.BridgeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]entities.BridgeKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	return kinds
}
