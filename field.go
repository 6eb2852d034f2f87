package skemabind

import (
	"context"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FieldValidator is the per-field capability a Schema orchestrates. The
// engine never interprets field values itself.
type FieldValidator interface {
	// CheckAndCoerce confirms, rejects or coerces a primitive value into its
	// typed form. Errors should be Issues with paths relative to the field.
	CheckAndCoerce(ctx context.Context, raw any) (any, error)
	// Dump produces the primitive form of a typed value.
	Dump(ctx context.Context, typed any) (any, error)
	// Required reports whether the field must be present.
	Required() bool
}

// Defaulter is implemented by fields that materialize a value when missing.
type Defaulter interface {
	Default(ctx context.Context) (any, bool)
}

// Nuller is implemented by fields that accept an explicit null.
type Nuller interface {
	Nullable() bool
}

// JSONSchemer is implemented by fields that can describe themselves as JSON
// Schema.
type JSONSchemer interface {
	JSONSchema() *jsonschema.Schema
}

// TypeHinter is implemented by fields that know the Go type of their typed
// form. Bind uses it to reject struct fields that could never hold it. A nil
// result skips the check.
type TypeHinter interface {
	TypeHint() reflect.Type
}

func isNullable(fv FieldValidator) bool {
	n, ok := fv.(Nuller)
	return ok && n.Nullable()
}

func fieldDefault(ctx context.Context, fv FieldValidator) (any, bool) {
	if d, ok := fv.(Defaulter); ok {
		return d.Default(ctx)
	}
	return nil, false
}
