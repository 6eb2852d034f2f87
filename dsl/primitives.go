package dsl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

// String accepts strings and string-kinded values.
func String() *Field {
	conv := func(_ context.Context, v any) (any, error) {
		if s, ok := v.(string); ok {
			return s, nil
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
			return rv.String(), nil
		}
		return nil, invalidType("string", v)
	}
	return &Field{
		kind:   "string",
		hint:   typeOf[string](),
		check:  conv,
		dump:   conv,
		schema: func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} },
	}
}

// Int accepts integral numbers, including integral floats and json.Number,
// and normalizes them to int.
func Int() *Field {
	conv := func(_ context.Context, v any) (any, error) {
		if n, ok := toInt(v); ok {
			return n, nil
		}
		return nil, invalidType("integer", v)
	}
	return &Field{
		kind:   "integer",
		hint:   typeOf[int](),
		check:  conv,
		dump:   conv,
		schema: func() *jsonschema.Schema { return &jsonschema.Schema{Type: "integer"} },
	}
}

// Float accepts any number and normalizes it to float64.
func Float() *Field {
	conv := func(_ context.Context, v any) (any, error) {
		if x, ok := toFloat(v); ok {
			return x, nil
		}
		return nil, invalidType("number", v)
	}
	return &Field{
		kind:   "number",
		hint:   typeOf[float64](),
		check:  conv,
		dump:   conv,
		schema: func() *jsonschema.Schema { return &jsonschema.Schema{Type: "number"} },
	}
}

// Bool accepts booleans.
func Bool() *Field {
	conv := func(_ context.Context, v any) (any, error) {
		if b, ok := v.(bool); ok {
			return b, nil
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
		return nil, invalidType("boolean", v)
	}
	return &Field{
		kind:   "boolean",
		hint:   typeOf[bool](),
		check:  conv,
		dump:   conv,
		schema: func() *jsonschema.Schema { return &jsonschema.Schema{Type: "boolean"} },
	}
}

// Any accepts every value unchanged.
func Any() *Field {
	pass := func(_ context.Context, v any) (any, error) { return v, nil }
	return &Field{
		kind:   "any",
		check:  pass,
		dump:   pass,
		schema: func() *jsonschema.Schema { return &jsonschema.Schema{} },
	}
}

func invalidType(want string, got any) skemabind.Issues {
	return skemabind.Issues{{
		Path:    "/",
		Code:    skemabind.CodeInvalidType,
		Message: i18n.T(skemabind.CodeInvalidType, nil),
		Hint:    "expected " + want,
		Params:  map[string]any{"expected": want, "got": fmt.Sprintf("%T", got)},
	}}
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int(u), true
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f > math.MaxInt64 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
