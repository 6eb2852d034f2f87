package skemabind

import (
	"reflect"

	"github.com/reoring/skemabind/internal/plan"
)

// mergeDumped copies into out everything the instance holds beyond what the
// declared fields produced: the extra-fields container first, then
// undeclared struct fields. Values are copied verbatim. Keys already present
// in out, declared keys and reserved keys are never touched.
func (s *Schema) mergeDumped(mp *modelPlan, sv reflect.Value, b *Base, out map[string]any) {
	if s.unknown == UnknownStrip {
		return
	}
	for k, v := range b.extra {
		if s.carries(k, out) {
			out[k] = v
		}
	}
	for _, f := range mp.plan.Fields() {
		if !s.carries(f.Key, out) {
			continue
		}
		if v, ok := plan.Get(sv, f); ok {
			out[f.Key] = v
		}
	}
}

// mergeLoaded carries the keys of src the declared fields did not consume onto
// the new instance. A key goes to the undeclared struct field of the same key
// only when its value is assignable as is; anything else, nil included, goes
// to the extra-fields container so that it dumps back unchanged.
func (s *Schema) mergeLoaded(mp *modelPlan, src, vals map[string]any, sv reflect.Value, b *Base) {
	if s.unknown == UnknownStrip {
		return
	}
	for k, v := range src {
		if !s.carries(k, vals) {
			continue
		}
		if f, ok := mp.plan.Lookup(k); ok && v != nil && reflect.TypeOf(v).AssignableTo(f.Type) {
			sv.Field(f.Index).Set(reflect.ValueOf(v))
			continue
		}
		b.SetExtra(k, v)
	}
}

// carries reports whether key is an unknown field the merger may copy given
// the keys already produced.
func (s *Schema) carries(key string, produced map[string]any) bool {
	if _, done := produced[key]; done {
		return false
	}
	if _, declared := s.fields[key]; declared {
		return false
	}
	return !s.IsReserved(key)
}
