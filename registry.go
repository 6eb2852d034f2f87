package skemabind

import (
	"fmt"
	"maps"
	"reflect"
	"sort"
	"sync"
)

// Registry tracks which schema each model type is bound to. A model type is
// bound to at most one schema per registry.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Schema
	byName map[string]*Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*Schema),
		byName: make(map[string]*Schema),
	}
}

// DefaultRegistry is used by Bind unless WithRegistry says otherwise.
var DefaultRegistry = NewRegistry()

// Clone returns a registry holding the same bindings.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	maps.Copy(clone.byType, r.byType)
	maps.Copy(clone.byName, r.byName)
	return clone
}

func (r *Registry) register(t reflect.Type, s *Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, exists := r.byType[t]; exists {
		return fmt.Errorf("%w: model type %v is already bound to schema %q", ErrDoubleBinding, t, prev.Name())
	}
	r.byType[t] = s
	r.byName[s.Name()] = s
	return nil
}

// SchemaFor returns the schema bound to the model struct type t. Pointer
// types are dereferenced.
func (r *Registry) SchemaFor(t reflect.Type) (*Schema, bool) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byType[t]
	return s, ok
}

// Lookup returns the most recently registered schema with the given name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

// IsRegistered reports whether the model struct type t is bound.
func (r *Registry) IsRegistered(t reflect.Type) bool {
	_, ok := r.SchemaFor(t)
	return ok
}

// Names lists the registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
