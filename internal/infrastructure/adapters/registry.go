package adapters

import (
	"fmt"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Registry is the adapter lookup table. Populated once at startup; reads are
// lock-free.
type Registry struct {
	adapters map[syncdomain.AdapterType]syncdomain.StockAdapter
}

// NewRegistry creates a registry holding the given adapters
func NewRegistry(adapters ...syncdomain.StockAdapter) (*Registry, error) {
	m := make(map[syncdomain.AdapterType]syncdomain.StockAdapter, len(adapters))
	for _, a := range adapters {
		if _, dup := m[a.Type()]; dup {
			return nil, fmt.Errorf("adapters: duplicate registration for %s", a.Type())
		}
		m[a.Type()] = a
	}
	return &Registry{adapters: m}, nil
}

// Get returns the adapter for the given type
func (r *Registry) Get(adapterType syncdomain.AdapterType) (syncdomain.StockAdapter, error) {
	a, ok := r.adapters[adapterType]
	if !ok {
		return nil, syncdomain.ErrAdapterNotRegistered
	}
	return a, nil
}

// GetPush returns the push adapter for the given type
func (r *Registry) GetPush(adapterType syncdomain.AdapterType) (syncdomain.PushAdapter, error) {
	a, ok := r.adapters[adapterType]
	if !ok {
		return nil, syncdomain.ErrAdapterNotRegistered
	}
	push, ok := a.(syncdomain.PushAdapter)
	if !ok {
		return nil, syncdomain.ErrPushNotSupported
	}
	return push, nil
}

// Types returns all registered adapter types
func (r *Registry) Types() []syncdomain.AdapterType {
	types := make([]syncdomain.AdapterType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	return types
}
