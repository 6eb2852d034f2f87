package dsl

import (
	"context"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind"
)

// Inline validates a nested mapping against s without constructing a model.
// The typed form is map[string]any; undeclared keys follow the unknown policy
// of s.
func Inline(s *skemabind.Schema) *Field {
	return &Field{
		kind: "object",
		hint: typeOf[map[string]any](),
		check: func(ctx context.Context, v any) (any, error) {
			m, ok := stringMap(v)
			if !ok {
				return nil, invalidType("object", v)
			}
			out, iss := s.Coerce(ctx, m)
			if len(iss) > 0 {
				return nil, iss
			}
			carryUnknown(s, m, out)
			return out, nil
		},
		dump: func(ctx context.Context, v any) (any, error) {
			m, ok := stringMap(v)
			if !ok {
				return nil, invalidType("object", v)
			}
			out := make(map[string]any, len(m))
			var iss skemabind.Issues
			for _, k := range s.Keys() {
				val, present := m[k]
				if !present {
					continue
				}
				if val == nil {
					out[k] = nil
					continue
				}
				fv, _ := s.Field(k)
				d, err := fv.Dump(ctx, val)
				if err != nil {
					iss = skemabind.AppendIssues(iss, rebase("/"+escape(k), err)...)
					continue
				}
				out[k] = d
			}
			if len(iss) > 0 {
				return nil, iss
			}
			carryUnknown(s, m, out)
			return out, nil
		},
		schema: func() *jsonschema.Schema { return s.JSONSchema() },
	}
}

func carryUnknown(s *skemabind.Schema, src, out map[string]any) {
	if s.Unknown() != skemabind.UnknownPreserve {
		return
	}
	for k, v := range src {
		if _, declared := s.Field(k); declared || s.IsReserved(k) {
			continue
		}
		out[k] = v
	}
}

// Nested holds an instance of the model bound to s. Loading constructs the
// instance through s, dumping serializes it through s. Within a validation
// session a nested instance that is already valid dumps to ValidModel and is
// not revisited.
//
// s may be bound after the field is declared, but must be bound before use.
func Nested(s *skemabind.Schema) *Field {
	return &Field{
		kind: "object",
		hint: func() reflect.Type {
			if t := s.Model(); t != nil {
				return reflect.PointerTo(t)
			}
			return nil
		},
		check: func(ctx context.Context, v any) (any, error) {
			out, iss := s.Load(ctx, v)
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
		dump: func(ctx context.Context, v any) (any, error) {
			out, iss := s.Dump(ctx, v)
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		},
		schema: func() *jsonschema.Schema { return s.JSONSchema() },
	}
}
