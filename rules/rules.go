// Package rules provides reusable whole-object checks for dsl builders.
//
// Every Rule has the signature accepted by ObjectBuilder.Refine, so rules
// compose with hand-written refinements:
//
//	dsl.Object().
//		Field("status", dsl.String()).Required().
//		Field("paidAt", dsl.Time()).Optional().
//		Field("items", dsl.List(item)).Required().
//		Refine("paid", rules.If("/status", rules.Eq, "paid").Then(rules.Present("/paidAt"))).
//		Refine("items", rules.And(rules.AtLeastOne("/items"), rules.UniqueBy("/items", "sku"))).
//		MustBuild("order")
//
// Paths are JSON Pointers over the coerced field values, using schema keys.
package rules

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/reoring/skemabind"
)

// Rule checks the coerced values of an object. A non-nil error is usually
// skemabind.Issues.
type Rule = func(ctx context.Context, vals map[string]any) error

// Op defines simple comparison operators for If(...).Then(...).
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional gates rules on a predicate over the values.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that compares the value at path with want. An
// absent value never satisfies the conditional.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Holds reports whether the conditional is satisfied by vals.
func (c Conditional) Holds(vals map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(vals) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(vals) {
				return true
			}
		}
		return false
	}
	cur, ok := valueAt(vals, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then attaches rules that run only when the conditional holds.
func (c Conditional) Then(rules ...Rule) Rule {
	run := And(rules...)
	return func(ctx context.Context, vals map[string]any) error {
		if !c.Holds(vals) {
			return nil
		}
		return run(ctx, vals)
	}
}

// Present requires a non-null value at path.
func Present(path string) Rule {
	p := normalizePath(path)
	return func(_ context.Context, vals map[string]any) error {
		if v, ok := valueAt(vals, p); ok && v != nil {
			return nil
		}
		return skemabind.Issues{skemabind.PathAt(p).Issue(skemabind.CodeRequired, "")}
	}
}

// AtLeastOne requires the collection at path to hold at least one element.
// Absent values and non-collections are left to the field checks.
func AtLeastOne(path string) Rule {
	p := normalizePath(path)
	return func(_ context.Context, vals map[string]any) error {
		val, ok := valueAt(vals, p)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Len() == 0 {
				return skemabind.Issues{skemabind.PathAt(p).Issue(skemabind.CodeTooShort, "at least 1 item is required", "minItems", 1)}
			}
		}
		return nil
	}
}

// UniqueBy requires the elements of the collection at collectionPath to have
// distinct values at keyPath, a pointer relative to each element (for
// example "sku" or "/sku"). Keys are compared by their printed form, so
// keep them to a single comparable type.
func UniqueBy(collectionPath, keyPath string) Rule {
	cp := normalizePath(collectionPath)
	kp := strings.TrimPrefix(keyPath, "/")
	return func(ctx context.Context, vals map[string]any) error {
		val, ok := valueAt(vals, cp)
		if !ok {
			return nil
		}
		rv := reflect.ValueOf(val)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		seen := map[string]int{}
		var out skemabind.Issues
		for i := 0; i < rv.Len(); i++ {
			kv, ok := within(rv.Index(i).Interface(), kp)
			if !ok {
				continue
			}
			key := fmt.Sprint(kv)
			j, dup := seen[key]
			if !dup {
				seen[key] = i
				continue
			}
			ref := skemabind.PathAt(cp).Index(i)
			for _, seg := range strings.Split(kp, "/") {
				ref = ref.Field(unescaper.Replace(seg))
			}
			out = append(out, ref.Issue(
				skemabind.CodeUniqueness, "",
				"first", j, "dup", i, "key", key,
			))
			if skemabind.IsFailFast(ctx) {
				break
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
}

// And runs every rule and concatenates their issues. Under fail-fast it
// stops at the first failing rule.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, vals map[string]any) error {
		var out skemabind.Issues
		for _, r := range rules {
			if r == nil {
				continue
			}
			iss := asIssues(r(ctx, vals))
			if len(iss) == 0 {
				continue
			}
			out = append(out, iss...)
			if skemabind.IsFailFast(ctx) {
				break
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
}

// Or succeeds when any rule succeeds. When all fail, the issues of the
// branch with the fewest issues are returned.
func Or(rules ...Rule) Rule {
	return func(ctx context.Context, vals map[string]any) error {
		var best skemabind.Issues
		for _, r := range rules {
			if r == nil {
				continue
			}
			iss := asIssues(r(ctx, vals))
			if len(iss) == 0 {
				return nil
			}
			if best == nil || len(iss) < len(best) {
				best = iss
			}
		}
		if best == nil {
			return nil
		}
		return best
	}
}

// asIssues turns a rule error into issues at the object root.
func asIssues(err error) skemabind.Issues {
	if err == nil {
		return nil
	}
	if iss, ok := skemabind.AsIssues(err); ok {
		return iss
	}
	return skemabind.Issues{{Path: "/", Code: skemabind.CodeRule, Message: err.Error(), Cause: err}}
}

// ------- helpers -------

func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if p[0] != '/' {
		return "/" + p
	}
	return p
}

var unescaper = strings.NewReplacer("~1", "/", "~0", "~")

func valueAt(vals map[string]any, pointer string) (any, bool) {
	return within(vals, strings.TrimPrefix(pointer, "/"))
}

// within navigates maps and slices by a relative pointer.
func within(v any, rel string) (any, bool) {
	if rel == "" {
		return v, true
	}
	cur := reflect.ValueOf(v)
	for _, seg := range strings.Split(rel, "/") {
		seg = unescaper.Replace(seg)
		for cur.IsValid() && (cur.Kind() == reflect.Pointer || cur.Kind() == reflect.Interface) {
			if cur.IsNil() {
				return nil, false
			}
			cur = cur.Elem()
		}
		switch cur.Kind() {
		case reflect.Map:
			if cur.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			mv := cur.MapIndex(reflect.ValueOf(seg).Convert(cur.Type().Key()))
			if !mv.IsValid() {
				return nil, false
			}
			cur = mv
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= cur.Len() {
				return nil, false
			}
			cur = cur.Index(idx)
		default:
			return nil, false
		}
	}
	if !cur.IsValid() {
		return nil, false
	}
	return cur.Interface(), true
}

func compare(cur any, op Op, want any) bool {
	a, aok := number(cur)
	b, bok := number(want)
	if aok && bok {
		switch op {
		case Eq:
			return a == b
		case Ne:
			return a != b
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
		return false
	}
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want)
	}
	return false
}

// number widens any integer, float or json.Number-like value to float64.
func number(v any) (float64, bool) {
	if s, ok := v.(interface{ Float64() (float64, error) }); ok {
		f, err := s.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
