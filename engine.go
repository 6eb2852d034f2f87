package skemabind

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/reoring/skemabind/i18n"
	"github.com/reoring/skemabind/internal/plan"
)

// modelPlan is the resolved layout of a bound model struct type.
type modelPlan struct {
	t    reflect.Type // struct type; instances are *t
	ptr  reflect.Type
	plan *plan.Plan
}

func newModelPlan(t reflect.Type) (*modelPlan, error) {
	p, err := plan.Build(t, _baseType)
	if err != nil {
		return nil, err
	}
	return &modelPlan{t: p.Type(), ptr: reflect.PointerTo(p.Type()), plan: p}, nil
}

// checkFields reports declared fields whose struct field can never hold the
// typed value the field validator produces.
func (mp *modelPlan) checkFields(s *Schema) Issues {
	var iss Issues
	for _, k := range s.keys {
		f, ok := mp.plan.Lookup(k)
		if !ok {
			continue
		}
		th, ok := s.fields[k].(TypeHinter)
		if !ok {
			continue
		}
		want := th.TypeHint()
		if want == nil || plan.Compatible(want, f.Type) {
			continue
		}
		iss = AppendIssues(iss, Issue{
			Path:    "/" + k,
			Code:    CodeInvalidType,
			Message: i18n.T(CodeInvalidType, nil),
			Hint:    fmt.Sprintf("field %s.%s of type %v cannot hold %v", mp.t.Name(), f.Name, f.Type, want),
		})
	}
	for _, f := range mp.plan.Fields() {
		if _, declared := s.fields[f.Key]; declared || s.IsReserved(f.Key) {
			continue
		}
		switch {
		case s.unknown == UnknownStrict:
			iss = AppendIssues(iss, Issue{
				Path:    "/" + f.Key,
				Code:    CodeUnknownKey,
				Message: i18n.T(CodeUnknownKey, nil),
				Hint:    fmt.Sprintf("field %s.%s is not declared by strict schema %q", mp.t.Name(), f.Name, s.name),
			})
		case s.unknown == UnknownPreserve && !plan.Primitive(f.Type):
			iss = AppendIssues(iss, Issue{
				Path:    "/" + f.Key,
				Code:    CodeInvalidType,
				Message: i18n.T(CodeInvalidType, nil),
				Hint:    fmt.Sprintf("undeclared field %s.%s of type %v is not a mapping value type", mp.t.Name(), f.Name, f.Type),
			})
		}
	}
	return iss
}

// instance returns the addressable struct value and model behind v. Both *T
// and T are accepted; a T is copied.
func (mp *modelPlan) instance(v any) (reflect.Value, Model, bool) {
	if v == nil {
		return reflect.Value{}, nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Type() {
	case mp.ptr:
		if rv.IsNil() {
			return reflect.Value{}, nil, false
		}
		return rv.Elem(), v.(Model), true
	case mp.t:
		pv := reflect.New(mp.t)
		pv.Elem().Set(rv)
		return pv.Elem(), pv.Interface().(Model), true
	}
	return reflect.Value{}, nil, false
}

// read returns the value held for key: the struct field when the model has
// one, otherwise the extra-fields container.
func (mp *modelPlan) read(sv reflect.Value, b *Base, key string) (any, bool) {
	if f, ok := mp.plan.Lookup(key); ok {
		return plan.Get(sv, f)
	}
	return b.Extra(key)
}

// construct builds a new instance from coerced declared values. Keys without
// a struct field land in the extra-fields container.
func (mp *modelPlan) construct(s *Schema, vals map[string]any) (reflect.Value, Model, Issues) {
	pv := reflect.New(mp.t)
	sv := pv.Elem()
	m := pv.Interface().(Model)
	b := m.modelBase()
	var iss Issues
	for _, k := range s.keys {
		v, ok := vals[k]
		if !ok {
			continue
		}
		f, ok := mp.plan.Lookup(k)
		if !ok {
			b.SetExtra(k, v)
			continue
		}
		if err := plan.Set(sv, f, v); err != nil {
			iss = AppendIssues(iss, Issue{
				Path:    "/" + k,
				Code:    CodeInvalidType,
				Message: i18n.T(CodeInvalidType, nil),
				Hint:    fmt.Sprintf("field %s.%s", mp.t.Name(), f.Name),
				Cause:   err,
			})
		}
	}
	return pv, m, iss
}

func (s *Schema) notBound() Issues {
	return Issues{{Path: "/", Code: CodeNotBound, Message: i18n.T(CodeNotBound, nil), Hint: s.name, Cause: ErrNotBound}}
}

// Dump serializes an instance of the bound model type into a mapping.
//
// A value of the wrong type is reported as wrong_type and echoed back
// unchanged. Within a validation session an instance whose validity flag is
// set dumps to ValidModel without visiting its fields.
func (s *Schema) Dump(ctx context.Context, v any) (any, Issues) {
	mp := s.bound()
	if mp == nil {
		return v, s.notBound()
	}
	if IsValidModel(v) {
		return v, nil
	}
	sv, m, ok := mp.instance(v)
	if !ok {
		return v, Issues{{
			Path:    "/",
			Code:    CodeWrongType,
			Message: i18n.T(CodeWrongType, nil),
			Params:  map[string]any{"expected": mp.ptr.String(), "got": fmt.Sprintf("%T", v)},
		}}
	}
	if InValidation(ctx) && IsValid(m) {
		return ValidModel, nil
	}
	b := m.modelBase()
	out := make(map[string]any, len(s.keys)+len(b.extra))
	var iss Issues
	for _, k := range s.keys {
		val, present := mp.read(sv, b, k)
		if !present {
			continue
		}
		if val == nil {
			out[k] = nil
			continue
		}
		d, err := s.fields[k].Dump(ctx, val)
		if err != nil {
			iss = AppendIssues(iss, issuesFromErr("/"+k, err)...)
			if IsFailFast(ctx) {
				return out, iss
			}
			continue
		}
		out[k] = d
	}
	s.mergeDumped(mp, sv, b, out)
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

// DumpMany applies Dump to each element. Issue paths are prefixed with the
// element index; the result keeps one slot per element.
func (s *Schema) DumpMany(ctx context.Context, vs []any) ([]any, Issues) {
	out := make([]any, len(vs))
	var all Issues
	for i, v := range vs {
		d, iss := s.Dump(ctx, v)
		out[i] = d
		if len(iss) > 0 {
			all = AppendIssues(all, iss.Rebase("/"+strconv.Itoa(i))...)
			if IsFailFast(ctx) {
				return out, all
			}
		}
	}
	return out, all
}

// Load deserializes a mapping into a new instance of the bound model type.
// The instance is built from already-validated values and starts out valid.
// ValidModel is returned unchanged.
func (s *Schema) Load(ctx context.Context, v any) (any, Issues) {
	if IsValidModel(v) {
		return v, nil
	}
	mp := s.bound()
	if mp == nil {
		return nil, s.notBound()
	}
	src, ok := v.(map[string]any)
	if !ok {
		return nil, Issues{{
			Path:    "/",
			Code:    CodeInvalidType,
			Message: i18n.T(CodeInvalidType, nil),
			Hint:    "expected object",
			Params:  map[string]any{"got": fmt.Sprintf("%T", v)},
		}}
	}
	vals, iss := s.Coerce(ctx, src)
	if len(iss) > 0 {
		return nil, iss
	}
	pv, m, iss := mp.construct(s, vals)
	if len(iss) > 0 {
		return nil, iss
	}
	s.mergeLoaded(mp, src, vals, pv.Elem(), m.modelBase())
	MarkValid(m)
	return pv.Interface(), nil
}

// LoadMany applies Load to each element. A slot whose element failed is nil.
func (s *Schema) LoadMany(ctx context.Context, vs []any) ([]any, Issues) {
	out := make([]any, len(vs))
	var all Issues
	for i, v := range vs {
		m, iss := s.Load(ctx, v)
		if len(iss) > 0 {
			all = AppendIssues(all, iss.Rebase("/"+strconv.Itoa(i))...)
			if IsFailFast(ctx) {
				return out, all
			}
			continue
		}
		out[i] = m
	}
	return out, all
}
