// Package plan resolves the struct layout of a model type once, at binding
// time, so the engine can read and write declared fields by key.
package plan

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ResolveKey applies the repository-wide rule to resolve a struct field's
// external key.
// Priority: skemabind:"name=..." > json tag name > field name; "-" disables the field.
func ResolveKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("skemabind"); gt != "" {
		parts := strings.Split(gt, ",")
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
			return sf.Name
		}
		return jt
	}
	return sf.Name
}

// Field is one keyed, exported, top-level struct field.
type Field struct {
	Key       string
	Name      string
	Index     int
	Type      reflect.Type
	OmitEmpty bool
}

// omitEmpty reports whether the json or skemabind tag of sf carries omitempty.
func omitEmpty(sf reflect.StructField) bool {
	for _, tag := range []string{sf.Tag.Get("skemabind"), sf.Tag.Get("json")} {
		for _, p := range strings.Split(tag, ",") {
			if strings.TrimSpace(p) == "omitempty" {
				return true
			}
		}
	}
	return false
}

// Plan is the keyed view of a struct type.
type Plan struct {
	t      reflect.Type
	fields []Field
	byKey  map[string]int
}

// Build walks the top-level fields of t. Anonymous fields of type skip (the
// embedded model base) are ignored, as are unexported and "-" fields.
func Build(t reflect.Type, skip reflect.Type) (*Plan, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("plan: %v is not a struct type", t)
	}
	p := &Plan{t: t, byKey: map[string]int{}}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == skip {
			continue
		}
		if !sf.IsExported() {
			continue
		}
		key := ResolveKey(sf)
		if key == "" || key == "-" {
			continue
		}
		if _, dup := p.byKey[key]; dup {
			return nil, fmt.Errorf("plan: %v: key %q is used by more than one field", t, key)
		}
		p.byKey[key] = len(p.fields)
		p.fields = append(p.fields, Field{Key: key, Name: sf.Name, Index: i, Type: sf.Type, OmitEmpty: omitEmpty(sf)})
	}
	return p, nil
}

// Type returns the struct type of the plan.
func (p *Plan) Type() reflect.Type { return p.t }

// Fields returns the keyed fields in declaration order.
func (p *Plan) Fields() []Field { return p.fields }

// Lookup finds the field for key.
func (p *Plan) Lookup(key string) (Field, bool) {
	i, ok := p.byKey[key]
	if !ok {
		return Field{}, false
	}
	return p.fields[i], true
}

// Get reads field f of the struct value sv. Nil pointers, maps, slices and
// interfaces read as absent, as do zero values of omitempty fields.
func Get(sv reflect.Value, f Field) (any, bool) {
	fv := sv.Field(f.Index)
	switch fv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		if fv.IsNil() {
			return nil, false
		}
	}
	if f.OmitEmpty && isEmpty(fv) {
		return nil, false
	}
	return fv.Interface(), true
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return v.Len() == 0
	}
	return v.IsZero()
}

// Set assigns val to field f of the addressable struct value sv.
func Set(sv reflect.Value, f Field, val any) error {
	return Assign(sv.Field(f.Index), val)
}

// Assign stores val into dst, converting between compatible shapes: numbers
// across numeric kinds, json.Number into numbers, []any into typed slices,
// map[string]any into typed maps, and values into pointers.
func Assign(dst reflect.Value, val any) error {
	if !dst.CanSet() {
		return fmt.Errorf("plan: destination of type %v is not settable", dst.Type())
	}
	if val == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	vv := reflect.ValueOf(val)
	dt := dst.Type()
	if vv.Type().AssignableTo(dt) {
		dst.Set(vv)
		return nil
	}
	if vv.Kind() == reflect.Pointer && vv.Type().Elem() == dt {
		if vv.IsNil() {
			dst.Set(reflect.Zero(dt))
		} else {
			dst.Set(vv.Elem())
		}
		return nil
	}
	if n, ok := val.(json.Number); ok && isNumeric(dt.Kind()) {
		return assignNumber(dst, n)
	}
	switch dt.Kind() {
	case reflect.Pointer:
		nv := reflect.New(dt.Elem())
		if err := Assign(nv.Elem(), val); err != nil {
			return err
		}
		dst.Set(nv)
		return nil
	case reflect.Slice:
		if vv.Kind() != reflect.Slice && vv.Kind() != reflect.Array {
			break
		}
		out := reflect.MakeSlice(dt, vv.Len(), vv.Len())
		for i := 0; i < vv.Len(); i++ {
			if err := Assign(out.Index(i), vv.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		if vv.Kind() != reflect.Map || dt.Key().Kind() != reflect.String || vv.Type().Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(dt, vv.Len())
		iter := vv.MapRange()
		for iter.Next() {
			ev := reflect.New(dt.Elem()).Elem()
			if err := Assign(ev, iter.Value().Interface()); err != nil {
				return fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			out.SetMapIndex(iter.Key().Convert(dt.Key()), ev)
		}
		dst.Set(out)
		return nil
	}
	if compatibleKinds(vv.Kind(), dt.Kind()) && vv.Type().ConvertibleTo(dt) {
		dst.Set(vv.Convert(dt))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %v", val, dt)
}

func compatibleKinds(a, b reflect.Kind) bool {
	switch {
	case isNumeric(a) && isNumeric(b):
		return true
	case a == reflect.String && b == reflect.String:
		return true
	case a == reflect.Bool && b == reflect.Bool:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func assignNumber(dst reflect.Value, n json.Number) error {
	switch dst.Kind() {
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(string(n), 64)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(string(n), 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetUint(u)
	default:
		i, err := strconv.ParseInt(string(n), 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(i)
	}
	return nil
}

// Compatible reports whether values of type from can be assigned to a field
// of type to by Assign, judged on shapes alone. Element types of slices and
// maps are checked at assignment time.
func Compatible(from, to reflect.Type) bool {
	for to.Kind() == reflect.Pointer && from.Kind() != reflect.Pointer {
		to = to.Elem()
	}
	if to.Kind() == reflect.Interface {
		return from.Implements(to)
	}
	if from.AssignableTo(to) {
		return true
	}
	if from.Kind() == reflect.Pointer && from.Elem() == to {
		return true
	}
	switch to.Kind() {
	case reflect.Slice:
		return from.Kind() == reflect.Slice || from.Kind() == reflect.Array
	case reflect.Map:
		return from.Kind() == reflect.Map && from.Key().Kind() == reflect.String && to.Key().Kind() == reflect.String
	}
	return compatibleKinds(from.Kind(), to.Kind()) && from.ConvertibleTo(to)
}

var _numberType = reflect.TypeOf((*json.Number)(nil)).Elem()

// Primitive reports whether values of type t are already mapping values:
// unnamed booleans, numbers and strings, json.Number, the empty interface,
// and slices or string-keyed maps of those.
func Primitive(t reflect.Type) bool {
	if t == _numberType {
		return true
	}
	switch t.Kind() {
	case reflect.Interface:
		return t.NumMethod() == 0
	case reflect.Slice:
		return t.PkgPath() == "" && Primitive(t.Elem())
	case reflect.Map:
		return t.PkgPath() == "" && t.Key().Kind() == reflect.String && t.Key().PkgPath() == "" && Primitive(t.Elem())
	case reflect.Bool, reflect.String:
		return t.PkgPath() == ""
	}
	return isNumeric(t.Kind()) && t.PkgPath() == ""
}
