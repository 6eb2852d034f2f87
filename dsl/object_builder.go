package dsl

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/reoring/skemabind"
)

// ObjectBuilder declares the fields of a schema.
type ObjectBuilder struct {
	fields   map[string]skemabind.FieldValidator
	unknown  skemabind.UnknownPolicy
	reserved []string
	refines  []skemabind.SchemaOption
	errs     []error
}

// FieldStep configures the field most recently added to a builder.
type FieldStep struct {
	b    *ObjectBuilder
	name string
}

// Object creates a new object builder. Undeclared keys are preserved unless
// another policy is selected.
func Object() *ObjectBuilder {
	return &ObjectBuilder{
		fields:  map[string]skemabind.FieldValidator{},
		unknown: skemabind.UnknownPreserve,
	}
}

// Field registers a field. A *Field is copied so that presence settings made
// through the returned step stay local to this builder.
func (b *ObjectBuilder) Field(name string, fv skemabind.FieldValidator) *FieldStep {
	if f, ok := fv.(*Field); ok {
		if err := f.Err(); err != nil {
			b.errs = append(b.errs, fmt.Errorf("field %q: %w", name, err))
		}
		fv = f.clone()
	}
	b.fields[name] = fv
	return &FieldStep{b: b, name: name}
}

// Required marks the field as required and returns the builder.
func (f *FieldStep) Required() *ObjectBuilder {
	if fd, ok := f.b.fields[f.name].(*Field); ok {
		fd.required = true
	} else {
		f.b.errs = append(f.b.errs, fmt.Errorf("field %q: Required needs a dsl field", f.name))
	}
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *FieldStep) Optional() *ObjectBuilder {
	if fd, ok := f.b.fields[f.name].(*Field); ok {
		fd.required = false
	}
	return f.b
}

// Nullable lets the field hold an explicit null.
func (f *FieldStep) Nullable() *FieldStep {
	if fd, ok := f.b.fields[f.name].(*Field); ok {
		fd.nullable = true
	}
	return f
}

// Default sets a value used when the field is missing. It is coerced by the
// field like any input and exported to JSON Schema.
func (f *FieldStep) Default(v any) *ObjectBuilder {
	fd, ok := f.b.fields[f.name].(*Field)
	if !ok {
		f.b.errs = append(f.b.errs, fmt.Errorf("field %q: Default needs a dsl field", f.name))
		return f.b
	}
	if v != nil {
		if _, err := fd.CheckAndCoerce(context.Background(), v); err != nil {
			f.b.errs = append(f.b.errs, fmt.Errorf("field %q: default: %w", f.name, err))
			return f.b
		}
	}
	fd.hasDef, fd.def = true, v
	return f.b
}

func (f *FieldStep) Field(name string, fv skemabind.FieldValidator) *FieldStep {
	return f.b.Field(name, fv)
}
func (f *FieldStep) UnknownStrict() *ObjectBuilder   { return f.b.UnknownStrict() }
func (f *FieldStep) UnknownStrip() *ObjectBuilder    { return f.b.UnknownStrip() }
func (f *FieldStep) UnknownPreserve() *ObjectBuilder { return f.b.UnknownPreserve() }
func (f *FieldStep) Reserve(keys ...string) *ObjectBuilder { return f.b.Reserve(keys...) }
func (f *FieldStep) Rule(name, src string) *ObjectBuilder  { return f.b.Rule(name, src) }
func (f *FieldStep) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	return f.b.Refine(name, fn)
}
func (f *FieldStep) Build(name string) (*skemabind.Schema, error) {
	return f.b.Build(name)
}
func (f *FieldStep) MustBuild(name string) *skemabind.Schema { return f.b.MustBuild(name) }

// UnknownStrict rejects undeclared keys.
func (b *ObjectBuilder) UnknownStrict() *ObjectBuilder {
	b.unknown = skemabind.UnknownStrict
	return b
}

// UnknownStrip drops undeclared keys.
func (b *ObjectBuilder) UnknownStrip() *ObjectBuilder {
	b.unknown = skemabind.UnknownStrip
	return b
}

// UnknownPreserve carries undeclared keys through load and dump.
func (b *ObjectBuilder) UnknownPreserve() *ObjectBuilder {
	b.unknown = skemabind.UnknownPreserve
	return b
}

// Reserve excludes keys from serialization and unknown-field handling.
func (b *ObjectBuilder) Reserve(keys ...string) *ObjectBuilder {
	b.reserved = append(b.reserved, keys...)
	return b
}

// Refine adds a whole-object rule run on the coerced field values.
func (b *ObjectBuilder) Refine(name string, fn func(context.Context, map[string]any) error) *ObjectBuilder {
	b.refines = append(b.refines, skemabind.WithRefine(name, fn))
	return b
}

// Rule adds a whole-object boolean expression. Declared fields are bound by
// name; fields that are absent evaluate to nil.
//
//	dsl.Object().Rule("range", "low <= high")
func (b *ObjectBuilder) Rule(name, src string) *ObjectBuilder {
	prog, err := compileExpr(src, map[string]any{})
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("rule %q: %w", name, err))
		return b
	}
	return b.Refine(name, func(_ context.Context, vals map[string]any) error {
		if iss := evalExpr(prog, name, maps.Clone(vals)); len(iss) > 0 {
			return iss
		}
		return nil
	})
}

// Build declares the schema.
func (b *ObjectBuilder) Build(name string) (*skemabind.Schema, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("dsl: object %q: %w", name, errors.Join(b.errs...))
	}
	opts := []skemabind.SchemaOption{skemabind.WithUnknown(b.unknown)}
	if len(b.reserved) > 0 {
		opts = append(opts, skemabind.WithReserved(b.reserved...))
	}
	opts = append(opts, b.refines...)
	return skemabind.NewSchema(name, maps.Clone(b.fields), opts...)
}

// MustBuild is like Build but panics on error.
func (b *ObjectBuilder) MustBuild(name string) *skemabind.Schema {
	s, err := b.Build(name)
	if err != nil {
		panic(err)
	}
	return s
}
