package skemabind

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind/i18n"
)

// Schema is a named set of declared fields. It is stateless apart from one
// back-reference: the model type it is bound to.
type Schema struct {
	name     string
	fields   map[string]FieldValidator
	keys     []string // sorted for deterministic walks
	unknown  UnknownPolicy
	reserved map[string]struct{}
	refines  []refine

	mu    sync.RWMutex
	model *modelPlan
}

// SchemaOption configures a Schema at construction.
type SchemaOption func(*Schema)

// WithUnknown selects how undeclared keys are treated. The default is
// UnknownPreserve.
func WithUnknown(p UnknownPolicy) SchemaOption {
	return func(s *Schema) { s.unknown = p }
}

// WithReserved adds names that are never serialized and never carried as
// unknown fields. ReservedValidityKey is always reserved.
func WithReserved(keys ...string) SchemaOption {
	return func(s *Schema) {
		for _, k := range keys {
			s.reserved[k] = struct{}{}
		}
	}
}

// WithRefine adds a whole-object rule. Rules run after every declared field
// passed, on the coerced values, in registration order. Issues returned by fn
// are relative to the object; other errors are reported as a rule issue.
func WithRefine(name string, fn func(ctx context.Context, vals map[string]any) error) SchemaOption {
	return func(s *Schema) {
		if fn != nil {
			s.refines = append(s.refines, refine{name: name, fn: fn})
		}
	}
}

type refine struct {
	name string
	fn   func(context.Context, map[string]any) error
}

// NewSchema declares a schema. Field names must be non-empty, unreserved and
// carry a non-nil validator.
func NewSchema(name string, fields map[string]FieldValidator, opts ...SchemaOption) (*Schema, error) {
	s := &Schema{
		name:     name,
		fields:   make(map[string]FieldValidator, len(fields)),
		unknown:  UnknownPreserve,
		reserved: map[string]struct{}{ReservedValidityKey: {}},
	}
	for _, opt := range opts {
		opt(s)
	}
	var iss Issues
	for k, fv := range fields {
		switch {
		case k == "":
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeParseError, Message: i18n.T(CodeParseError, nil), Hint: "empty field name"})
		case s.IsReserved(k):
			iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeParseError, Message: i18n.T(CodeParseError, nil), Hint: "field name is reserved"})
		case fv == nil:
			iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeParseError, Message: i18n.T(CodeParseError, nil), Hint: "nil field validator"})
		default:
			s.fields[k] = fv
			s.keys = append(s.keys, k)
		}
	}
	if len(iss) > 0 {
		return nil, fmt.Errorf("skemabind: schema %q: %w", name, iss)
	}
	sort.Strings(s.keys)
	return s, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(name string, fields map[string]FieldValidator, opts ...SchemaOption) *Schema {
	s, err := NewSchema(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Keys returns the declared field names in sorted order.
func (s *Schema) Keys() []string { return append([]string(nil), s.keys...) }

// Field returns the validator declared for key.
func (s *Schema) Field(key string) (FieldValidator, bool) {
	fv, ok := s.fields[key]
	return fv, ok
}

// Unknown returns the unknown-key policy.
func (s *Schema) Unknown() UnknownPolicy { return s.unknown }

// IsReserved reports whether key is excluded from serialization.
func (s *Schema) IsReserved(key string) bool {
	_, ok := s.reserved[key]
	return ok
}

// Model returns the bound model struct type, or nil when unbound.
func (s *Schema) Model() reflect.Type {
	mp := s.bound()
	if mp == nil {
		return nil
	}
	return mp.t
}

func (s *Schema) bound() *modelPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// attach records the back-reference. A schema is bound at most once.
func (s *Schema) attach(mp *modelPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return &DoubleBindingError{Schema: s.name, BoundTo: s.model.t, Requested: mp.t}
	}
	s.model = mp
	return nil
}

// detach undoes attach when a registry refuses the binding.
func (s *Schema) detach(mp *modelPlan) {
	s.mu.Lock()
	if s.model == mp {
		s.model = nil
	}
	s.mu.Unlock()
}

// Validate checks a mapping against the declared fields. Missing required
// fields and rejected values produce issues; undeclared keys only do so under
// UnknownStrict. An empty result means the mapping is valid.
func (s *Schema) Validate(ctx context.Context, src map[string]any) Issues {
	_, iss := s.Coerce(ctx, src)
	return iss
}

// Coerce validates src and returns the typed values of the declared fields,
// with defaults applied for missing fields that declare one. Undeclared keys
// are not copied; that is the merger's job.
func (s *Schema) Coerce(ctx context.Context, src map[string]any) (map[string]any, Issues) {
	out := make(map[string]any, len(src))
	var iss Issues
	for _, k := range s.keys {
		fv := s.fields[k]
		raw, present := src[k]
		if present {
			if raw == nil {
				if isNullable(fv) {
					out[k] = nil
					continue
				}
				iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeNull, Message: i18n.T(CodeNull, nil)})
				if IsFailFast(ctx) {
					return out, iss
				}
				continue
			}
			v, err := fv.CheckAndCoerce(ctx, raw)
			if err != nil {
				iss = AppendIssues(iss, issuesFromErr("/"+k, err)...)
				if IsFailFast(ctx) {
					return out, iss
				}
				continue
			}
			out[k] = v
			continue
		}
		if dv, ok := fieldDefault(ctx, fv); ok {
			out[k] = dv
			continue
		}
		if fv.Required() {
			iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeRequired, Message: i18n.T(CodeRequired, nil), Hint: "required property missing"})
			if IsFailFast(ctx) {
				return out, iss
			}
		}
	}
	if s.unknown == UnknownStrict {
		for _, k := range s.unknownKeys(src) {
			iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeUnknownKey, Message: i18n.T(CodeUnknownKey, nil)})
			if IsFailFast(ctx) {
				return out, iss
			}
		}
	}
	if len(iss) == 0 {
		iss = s.runRefines(ctx, out)
	}
	if len(iss) > 0 {
		return out, iss
	}
	return out, nil
}

func (s *Schema) runRefines(ctx context.Context, vals map[string]any) Issues {
	var iss Issues
	for _, r := range s.refines {
		err := r.fn(ctx, vals)
		if err == nil {
			continue
		}
		if got, ok := AsIssues(err); ok {
			for _, it := range got {
				if it.Rule == "" {
					it.Rule = r.name
				}
				iss = AppendIssues(iss, it)
			}
		} else {
			iss = AppendIssues(iss, Issue{Path: "/", Code: CodeRule, Message: err.Error(), Rule: r.name, Cause: err})
		}
		if IsFailFast(ctx) {
			return iss
		}
	}
	return iss
}

// unknownKeys lists undeclared, unreserved keys of src in sorted order.
func (s *Schema) unknownKeys(src map[string]any) []string {
	uks := make([]string, 0, len(src))
	for k := range src {
		if _, known := s.fields[k]; known || s.IsReserved(k) {
			continue
		}
		uks = append(uks, k)
	}
	sort.Strings(uks)
	return uks
}

// JSONSchema projects the schema into a JSON Schema object.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var req []string
	for _, k := range s.keys {
		fv := s.fields[k]
		var ps *jsonschema.Schema
		if js, ok := fv.(JSONSchemer); ok {
			ps = js.JSONSchema()
		}
		if ps == nil {
			ps = &jsonschema.Schema{}
		}
		props.Set(k, ps)
		if fv.Required() {
			req = append(req, k)
		}
	}
	out := &jsonschema.Schema{Type: "object", Title: s.name, Properties: props, Required: req}
	switch s.unknown {
	case UnknownStrict:
		out.AdditionalProperties = jsonschema.FalseSchema
	case UnknownStrip:
		// accepted, then discarded
		out.AdditionalProperties = jsonschema.TrueSchema
		out.Extras = map[string]any{"x-unknown": UnknownStrip.String()}
	default:
		out.AdditionalProperties = jsonschema.TrueSchema
	}
	var reserved []string
	for k := range s.reserved {
		if k != ReservedValidityKey {
			reserved = append(reserved, k)
		}
	}
	if len(reserved) > 0 {
		sort.Strings(reserved)
		if out.Extras == nil {
			out.Extras = map[string]any{}
		}
		out.Extras["x-reserved"] = reserved
	}
	return out
}
