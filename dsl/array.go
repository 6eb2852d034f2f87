package dsl

import (
	"context"
	"reflect"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

// List validates every element of a list with elem. The typed form is []any;
// models may hold any slice type the elements assign to.
func List(elem skemabind.FieldValidator) *Field {
	return &Field{
		kind: "array",
		hint: typeOf[[]any](),
		check: func(ctx context.Context, v any) (any, error) {
			return eachElem(ctx, v, elem, elem.CheckAndCoerce)
		},
		dump: func(ctx context.Context, v any) (any, error) {
			return eachElem(ctx, v, elem, elem.Dump)
		},
		schema: func() *jsonschema.Schema {
			s := &jsonschema.Schema{Type: "array"}
			if js, ok := elem.(skemabind.JSONSchemer); ok {
				s.Items = js.JSONSchema()
			}
			return s
		},
	}
}

func eachElem(ctx context.Context, v any, elem skemabind.FieldValidator, fn func(context.Context, any) (any, error)) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, invalidType("array", v)
	}
	out := make([]any, rv.Len())
	var iss skemabind.Issues
	for i := 0; i < rv.Len(); i++ {
		p := "/" + strconv.Itoa(i)
		ev := rv.Index(i).Interface()
		if isNil(ev) {
			if n, ok := elem.(skemabind.Nuller); ok && n.Nullable() {
				continue
			}
			iss = skemabind.AppendIssues(iss, skemabind.Issue{Path: p, Code: skemabind.CodeNull, Message: i18n.T(skemabind.CodeNull, nil)})
		} else {
			r, err := fn(ctx, ev)
			if err == nil {
				out[i] = r
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

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// rebase converts err into issues under path.
func rebase(path string, err error) skemabind.Issues {
	if iss, ok := skemabind.AsIssues(err); ok {
		return iss.Rebase(path)
	}
	return skemabind.Issues{{Path: path, Code: skemabind.CodeParseError, Message: err.Error(), Cause: err}}
}
