package skemabind

import (
	"fmt"
	"reflect"
)

// FieldToken identifies a (possibly nested) field of the model type T by its
// schema keys. Obtain it via FieldOf so that renaming or removing the Go
// field breaks compilation instead of a path string.
type FieldToken[T any] struct {
	keys []string
}

// Key returns the key of the selected field itself.
func (t FieldToken[T]) Key() string { return t.keys[len(t.keys)-1] }

// Keys returns the key path segments, outermost first.
func (t FieldToken[T]) Keys() []string { return append([]string(nil), t.keys...) }

// Ref returns the PathRef of the field.
func (t FieldToken[T]) Ref() PathRef {
	r := RootPath()
	for _, k := range t.keys {
		r = r.Field(k)
	}
	return r
}

// Pointer returns the JSON Pointer of the field, for example "/user/id".
func (t FieldToken[T]) Pointer() string { return t.Ref().Pointer() }

// FieldOf builds a FieldToken from a selector returning the address of a
// field of T:
//
//	FieldOf(func(o *Order) *string { return &o.Status })
//	FieldOf(func(o *Order) *string { return &o.Customer.ID })
//
// Only struct fields held by value are descended into. FieldOf panics when
// the selector does not address such a field.
func FieldOf[T any, F any](selector func(*T) *F) FieldToken[T] {
	if selector == nil {
		panic("skemabind.FieldOf: selector must not be nil")
	}
	var zero T
	rv := reflect.ValueOf(&zero).Elem()
	if rv.Kind() != reflect.Struct {
		panic(fmt.Sprintf("skemabind.FieldOf: %v is not a struct type", rv.Type()))
	}
	target := reflect.ValueOf(selector(&zero)).Pointer()
	keys, ok := findPathKeys(rv, target, reflect.TypeOf((*F)(nil)).Elem(), 0)
	if !ok {
		panic("skemabind.FieldOf: selector must return the address of an exported field")
	}
	return FieldToken[T]{keys: keys}
}

const _maxPathDepth = 32

func findPathKeys(v reflect.Value, target uintptr, ft reflect.Type, depth int) ([]string, bool) {
	if depth > _maxPathDepth {
		return nil, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Type == _baseType {
			continue
		}
		name := ResolveStructKey(sf)
		if name == "" || name == "-" {
			continue
		}
		fv := v.Field(i)
		if fv.Addr().Pointer() == target && sf.Type == ft {
			return []string{name}, true
		}
		if fv.Kind() == reflect.Struct {
			if rest, ok := findPathKeys(fv, target, ft, depth+1); ok {
				return append([]string{name}, rest...), true
			}
		}
	}
	return nil, false
}
