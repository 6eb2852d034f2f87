package skemabind

import (
	"maps"
	"sort"
)

// Model is implemented by every bindable type through an embedded Base.
type Model interface {
	modelBase() *Base
}

// Base carries the state every model instance needs besides its typed
// fields: the validity flag and the container of fields the schema's struct
// does not hold (undeclared keys, and declared keys without a struct field).
//
// Embed it by value:
//
//	type Person struct {
//		skemabind.Base
//		Name string `json:"name"`
//	}
type Base struct {
	valid bool
	extra map[string]any
}

func (b *Base) modelBase() *Base { return b }

// Extra returns the value stored under key in the extra-fields container.
func (b *Base) Extra(key string) (any, bool) {
	v, ok := b.extra[key]
	return v, ok
}

// SetExtra stores v under key. The reserved validity key is ignored.
func (b *Base) SetExtra(key string, v any) {
	if key == ReservedValidityKey {
		return
	}
	if b.extra == nil {
		b.extra = make(map[string]any)
	}
	b.extra[key] = v
}

// DeleteExtra removes key from the extra-fields container.
func (b *Base) DeleteExtra(key string) { delete(b.extra, key) }

// ExtraKeys returns the keys of the extra-fields container in sorted order.
func (b *Base) ExtraKeys() []string {
	keys := make([]string, 0, len(b.extra))
	for k := range b.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extras returns a shallow copy of the extra-fields container.
func (b *Base) Extras() map[string]any {
	if len(b.extra) == 0 {
		return map[string]any{}
	}
	return maps.Clone(b.extra)
}

// Record is a model without typed fields: every declared and undeclared
// value lives in the extra-fields container.
type Record struct {
	Base
}

// Get is a shorthand for Extra.
func (r *Record) Get(key string) (any, bool) { return r.Extra(key) }

// Set is a shorthand for SetExtra.
func (r *Record) Set(key string, v any) { r.SetExtra(key, v) }
