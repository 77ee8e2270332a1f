// Package registry provides a generic named-item registry with insertion
// order preserved, used as the base of the agent registry.
package registry

import (
	"fmt"
	"sync"
)

// Registry is a generic store of named items.
type Registry[T any] interface {
	Register(name string, item T) error
	Get(name string) (T, bool)
	List() []string
	Items() []T
	Count() int
}

// BaseRegistry is a thread-safe Registry implementation. Iteration order
// follows registration order.
type BaseRegistry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewBaseRegistry creates an empty registry.
func NewBaseRegistry[T any]() *BaseRegistry[T] {
	return &BaseRegistry[T]{items: make(map[string]T)}
}

// Register adds an item under a name. Duplicate names are rejected.
func (r *BaseRegistry[T]) Register(name string, item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return fmt.Errorf("item %q already registered", name)
	}
	r.items[name] = item
	r.order = append(r.order, name)
	return nil
}

// Get looks up an item by name.
func (r *BaseRegistry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// List returns the registered names in registration order.
func (r *BaseRegistry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Items returns the registered items in registration order.
func (r *BaseRegistry[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]T, 0, len(r.order))
	for _, name := range r.order {
		items = append(items, r.items[name])
	}
	return items
}

// Count returns the number of registered items.
func (r *BaseRegistry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
