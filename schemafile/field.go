package schemafile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/reoring/skemabind/dsl"
)

var propertyKeys = map[string]bool{
	"type": true, "format": true, "description": true, "default": true, "nullable": true,
	"anyOf": true, "enum": true, "const": true, "pattern": true, "items": true,
	"minimum": true, "maximum": true, "minLength": true, "maxLength": true,
	"minItems": true, "maxItems": true, "minProperties": true, "maxProperties": true,
	"x-rule": true, "x-kubernetes-int-or-string": true, "examples": true,
}

// field compiles a property schema. The boolean reports whether null is
// accepted.
func (c *compiler) field(name, ptr string, ps map[string]any) (*dsl.Field, bool, error) {
	ps, nullable := c.unwrapNullable(ptr, ps)
	if v, ok := ps["nullable"].(bool); ok && v {
		nullable = true
	}
	typ, err := typeOf(ptr, ps)
	if err != nil {
		return nil, false, err
	}
	if typ.null {
		nullable = true
	}

	var f *dsl.Field
	switch typ.name {
	case "string":
		switch format, _ := ps["format"].(string); format {
		case "date-time":
			f = dsl.Time()
		case "duration":
			f = dsl.Duration()
		default:
			if format != "" {
				c.d.warnf("%s: format %q not checked", ptr, format)
			}
			f = dsl.String()
		}
	case "integer":
		f = dsl.Int()
	case "number":
		f = dsl.Float()
	case "boolean":
		f = dsl.Bool()
	case "array":
		elem := dsl.Any()
		if items, ok := ps["items"].(map[string]any); ok {
			ef, enull, err := c.field(name+"[]", ptr+"/items", items)
			if err != nil {
				return nil, false, err
			}
			if enull {
				ef.AllowNull()
			}
			elem = ef
		}
		f = dsl.List(elem)
	case "object":
		if _, ok := ps["properties"].(map[string]any); ok {
			s, err := c.object(name, ptr, ps)
			if err != nil {
				return nil, false, err
			}
			f = dsl.Inline(s)
			break
		}
		elem := dsl.Any()
		if ap, ok := ps["additionalProperties"].(map[string]any); ok {
			ef, enull, err := c.field(name+"{}", ptr+"/additionalProperties", ap)
			if err != nil {
				return nil, false, err
			}
			if enull {
				ef.AllowNull()
			}
			elem = ef
		}
		f = dsl.MapOf(elem)
	default:
		if v, _ := ps["x-kubernetes-int-or-string"].(bool); v {
			c.d.warnf("%s: int-or-string accepted without a type check", ptr)
		}
		f = dsl.Any()
	}
	if err := c.constrain(ptr, f, ps); err != nil {
		return nil, false, err
	}
	if err := f.Err(); err != nil {
		return nil, false, fmt.Errorf("%s: %w", ptr, err)
	}
	return f, nullable, nil
}

// unwrapNullable recognizes anyOf: [S, {type: null}] as a nullable S. Keys
// next to anyOf, such as description or default, are kept.
func (c *compiler) unwrapNullable(ptr string, ps map[string]any) (map[string]any, bool) {
	alts, ok := ps["anyOf"].([]any)
	if !ok {
		return ps, false
	}
	var inner map[string]any
	null := false
	for _, a := range alts {
		am, _ := a.(map[string]any)
		if t, _ := am["type"].(string); t == "null" && len(am) == 1 {
			null = true
			continue
		}
		if inner != nil {
			c.d.warnf("%s: anyOf with several non-null branches accepts any value", ptr)
			return map[string]any{}, null
		}
		inner = am
	}
	if inner == nil {
		return map[string]any{"type": "null"}, null
	}
	out := make(map[string]any, len(inner)+len(ps))
	for k, v := range inner {
		out[k] = v
	}
	for k, v := range ps {
		if k != "anyOf" {
			out[k] = v
		}
	}
	return out, null
}

type typeName struct {
	name string
	null bool
}

func typeOf(ptr string, ps map[string]any) (typeName, error) {
	switch t := ps["type"].(type) {
	case nil:
		if _, ok := ps["properties"]; ok {
			return typeName{name: "object"}, nil
		}
		return typeName{}, nil
	case string:
		if t == "null" {
			return typeName{null: true}, nil
		}
		return typeName{name: t}, checkType(ptr, t)
	case []any:
		var out typeName
		for _, e := range t {
			s, _ := e.(string)
			switch {
			case s == "null":
				out.null = true
			case out.name == "":
				out.name = s
			default:
				return typeName{}, fmt.Errorf("%s: union type %v is not supported", ptr, t)
			}
		}
		return out, checkType(ptr, out.name)
	}
	return typeName{}, fmt.Errorf("%s: type must be a string or a list", ptr)
}

func checkType(ptr, t string) error {
	switch t {
	case "", "string", "integer", "number", "boolean", "array", "object":
		return nil
	}
	return fmt.Errorf("%s: unsupported type %q", ptr, t)
}

func (c *compiler) constrain(ptr string, f *dsl.Field, ps map[string]any) error {
	if d, ok := ps["description"].(string); ok {
		f.Describe(d)
	}
	for key, apply := range map[string]func(float64) *dsl.Field{"minimum": f.Min, "maximum": f.Max} {
		if v, ok := ps[key]; ok {
			n, ok := toFloat(v)
			if !ok {
				return fmt.Errorf("%s/%s: not a number", ptr, key)
			}
			apply(n)
		}
	}
	for _, pair := range [][2]string{{"minLength", "maxLength"}, {"minItems", "maxItems"}, {"minProperties", "maxProperties"}} {
		if v, ok := ps[pair[0]]; ok {
			n, ok := toInt(v)
			if !ok {
				return fmt.Errorf("%s/%s: not an integer", ptr, pair[0])
			}
			f.MinLen(n)
		}
		if v, ok := ps[pair[1]]; ok {
			n, ok := toInt(v)
			if !ok {
				return fmt.Errorf("%s/%s: not an integer", ptr, pair[1])
			}
			f.MaxLen(n)
		}
	}
	if p, ok := ps["pattern"].(string); ok {
		f.Pattern(p)
	}
	if e, ok := ps["enum"].([]any); ok {
		f.Enum(e...)
	}
	if cv, ok := ps["const"]; ok {
		f.Enum(cv)
	}
	switch r := ps["x-rule"].(type) {
	case string:
		f.Expr(r)
	case []any:
		for _, e := range r {
			if s, ok := e.(string); ok {
				f.Expr(s)
			}
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f < 0 {
		return 0, false
	}
	return int(f), true
}
