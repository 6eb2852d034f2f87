package dsl

import (
	"context"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

// MapOf validates every value of a string-keyed map with elem. The typed
// form is map[string]any.
func MapOf(elem skemabind.FieldValidator) *Field {
	return &Field{
		kind: "object",
		hint: typeOf[map[string]any](),
		check: func(ctx context.Context, v any) (any, error) {
			return eachValue(ctx, v, elem, elem.CheckAndCoerce)
		},
		dump: func(ctx context.Context, v any) (any, error) {
			return eachValue(ctx, v, elem, elem.Dump)
		},
		schema: func() *jsonschema.Schema {
			s := &jsonschema.Schema{Type: "object"}
			if js, ok := elem.(skemabind.JSONSchemer); ok {
				s.AdditionalProperties = js.JSONSchema()
			}
			return s
		},
	}
}

func eachValue(ctx context.Context, v any, elem skemabind.FieldValidator, fn func(context.Context, any) (any, error)) (any, error) {
	m, ok := stringMap(v)
	if !ok {
		return nil, invalidType("object", v)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(m))
	var iss skemabind.Issues
	for _, k := range keys {
		p := "/" + escape(k)
		ev := m[k]
		if isNil(ev) {
			if n, ok := elem.(skemabind.Nuller); ok && n.Nullable() {
				out[k] = nil
				continue
			}
			iss = skemabind.AppendIssues(iss, skemabind.Issue{Path: p, Code: skemabind.CodeNull, Message: i18n.T(skemabind.CodeNull, nil)})
		} else {
			r, err := fn(ctx, ev)
			if err == nil {
				out[k] = r
				continue
			}
			iss = skemabind.AppendIssues(iss, rebase(p, err)...)
		}
		if skemabind.IsFailFast(ctx) {
			break
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// stringMap views any string-keyed map as map[string]any.
func stringMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// escape encodes a key as a JSON Pointer segment (RFC 6901).
func escape(k string) string {
	return strings.ReplaceAll(strings.ReplaceAll(k, "~", "~0"), "/", "~1")
}
