package dsl

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind"
)

// Field is the FieldValidator produced by every constructor in this package.
// Constraint methods mutate and return the receiver so calls chain.
type Field struct {
	kind     string
	check    func(context.Context, any) (any, error)
	dump     func(context.Context, any) (any, error)
	schema   func() *jsonschema.Schema
	rules    []rule
	required bool
	nullable bool
	hasDef   bool
	def      any
	desc     string
	errs     []error
	hint     func() reflect.Type

	// constraint values, kept for JSON Schema export
	min, max       *float64
	minLen, maxLen *int
	pattern        string
	enum           []any
}

var (
	_ skemabind.FieldValidator = (*Field)(nil)
	_ skemabind.Defaulter      = (*Field)(nil)
	_ skemabind.Nuller         = (*Field)(nil)
	_ skemabind.JSONSchemer    = (*Field)(nil)
	_ skemabind.TypeHinter     = (*Field)(nil)
)

// CheckAndCoerce type-checks raw, converts it to the field's typed form and
// runs the constraints. ValidModel passes through without constraints.
func (f *Field) CheckAndCoerce(ctx context.Context, raw any) (any, error) {
	v, err := f.check(ctx, raw)
	if err != nil {
		return nil, err
	}
	if skemabind.IsValidModel(v) {
		return v, nil
	}
	if iss := runRules(ctx, v, f.rules); len(iss) > 0 {
		return nil, iss
	}
	return v, nil
}

// Dump converts a typed value to its primitive form.
func (f *Field) Dump(ctx context.Context, typed any) (any, error) { return f.dump(ctx, typed) }

// Required reports whether the field must be present.
func (f *Field) Required() bool { return f.required }

// Nullable reports whether an explicit null is accepted.
func (f *Field) Nullable() bool { return f.nullable }

// Default returns the value applied when the field is missing.
func (f *Field) Default(ctx context.Context) (any, bool) {
	if !f.hasDef {
		return nil, false
	}
	if f.def == nil {
		return nil, true
	}
	v, err := f.CheckAndCoerce(ctx, f.def)
	if err != nil {
		return nil, false
	}
	return v, true
}

// TypeHint returns the Go type of the typed form, or nil when it varies.
func (f *Field) TypeHint() reflect.Type {
	if f.hint == nil {
		return nil
	}
	return f.hint()
}

func typeOf[T any]() func() reflect.Type {
	return func() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }
}

// Kind names the primitive shape of the field ("string", "integer", ...).
func (f *Field) Kind() string { return f.kind }

// Err reports constraint declarations that could not be compiled.
func (f *Field) Err() error { return errors.Join(f.errs...) }

// Describe sets the JSON Schema description.
func (f *Field) Describe(desc string) *Field { f.desc = desc; return f }

// AllowNull makes an explicit null acceptable.
func (f *Field) AllowNull() *Field { f.nullable = true; return f }

// JSONSchema describes the field, constraints included.
func (f *Field) JSONSchema() *jsonschema.Schema {
	s := &jsonschema.Schema{}
	if f.schema != nil {
		if base := f.schema(); base != nil {
			s = base
		}
	}
	if f.min != nil {
		s.Minimum = number(*f.min)
	}
	if f.max != nil {
		s.Maximum = number(*f.max)
	}
	if f.minLen != nil || f.maxLen != nil {
		lo, hi := lenBounds(f.minLen, f.maxLen)
		switch s.Type {
		case "array":
			s.MinItems, s.MaxItems = lo, hi
		case "object":
			s.MinProperties, s.MaxProperties = lo, hi
		default:
			s.MinLength, s.MaxLength = lo, hi
		}
	}
	if f.pattern != "" {
		s.Pattern = f.pattern
	}
	if len(f.enum) > 0 {
		s.Enum = append([]any(nil), f.enum...)
	}
	if f.hasDef {
		s.Default = f.def
	}
	if f.desc != "" {
		s.Description = f.desc
	}
	if f.nullable {
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}, Description: s.Description}
	}
	return s
}

// clone copies f so builders can set presence flags without aliasing.
func (f *Field) clone() *Field {
	c := *f
	c.rules = append([]rule(nil), f.rules...)
	c.enum = append([]any(nil), f.enum...)
	c.errs = append([]error(nil), f.errs...)
	return &c
}

func number(v float64) json.Number {
	return json.Number(strconv.FormatFloat(v, 'f', -1, 64))
}

func lenBounds(lo, hi *int) (*uint64, *uint64) {
	conv := func(p *int) *uint64 {
		if p == nil || *p < 0 {
			return nil
		}
		u := uint64(*p)
		return &u
	}
	return conv(lo), conv(hi)
}
