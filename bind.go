package skemabind

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/reoring/skemabind/i18n"
)

// Binding connects a Schema to the model type T. It provides the
// serialization, deserialization and validation operations for *T.
//
// A schema is bound at most once and, within a registry, a model type is bound
// at most once. Both are enforced by Bind.
type Binding[T any] struct {
	schema *Schema
	mp     *modelPlan
	log    *zap.Logger
	obs    Observer
}

// BindOption configures Bind.
type BindOption func(*bindOptions)

type bindOptions struct {
	reg *Registry
	log *zap.Logger
	obs Observer
}

// WithRegistry records the binding in r instead of DefaultRegistry. A nil
// registry leaves the model type untracked.
func WithRegistry(r *Registry) BindOption {
	return func(o *bindOptions) { o.reg = r }
}

// WithLogger sets the logger used for binding events. The default discards.
func WithLogger(l *zap.Logger) BindOption {
	return func(o *bindOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithObserver receives an Event for every operation of the binding.
func WithObserver(obs Observer) BindOption {
	return func(o *bindOptions) {
		if obs != nil {
			o.obs = obs
		}
	}
}

// Bind attaches s to the model type T, which must be a struct embedding Base
// by value. Binding an already bound schema, or a model type already bound in
// the registry, fails with an error matching ErrDoubleBinding.
//
// Struct fields the schema does not declare carry unknown keys. A strict
// schema admits none. Under the preserve policy they must hold mapping value
// types (unnamed bool, number or string kinds, json.Number, any, and slices or
// string-keyed maps of those); an unknown value lands in such a field only
// when it is assignable without conversion.
func Bind[T any](s *Schema, opts ...BindOption) (*Binding[T], error) {
	if s == nil {
		return nil, fmt.Errorf("skemabind: bind: nil schema")
	}
	o := bindOptions{reg: DefaultRegistry, log: zap.NewNop(), obs: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if err := checkModelType(t); err != nil {
		return nil, err
	}
	mp, err := newModelPlan(t)
	if err != nil {
		return nil, fmt.Errorf("skemabind: bind %v: %w", t, err)
	}
	if iss := mp.checkFields(s); len(iss) > 0 {
		return nil, fmt.Errorf("skemabind: bind %v to schema %q: %w", t, s.Name(), iss)
	}
	if err := s.attach(mp); err != nil {
		return nil, err
	}
	if o.reg != nil {
		if err := o.reg.register(t, s); err != nil {
			s.detach(mp)
			return nil, err
		}
	}
	o.log.Debug("schema bound",
		zap.String("schema", s.Name()),
		zap.String("model", t.String()),
		zap.Int("fields", len(s.keys)))
	return &Binding[T]{schema: s, mp: mp, log: o.log, obs: o.obs}, nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](s *Schema, opts ...BindOption) *Binding[T] {
	b, err := Bind[T](s, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// SchemaOf returns the schema T is bound to in DefaultRegistry.
func SchemaOf[T any]() (*Schema, bool) {
	return DefaultRegistry.SchemaFor(reflect.TypeOf((*T)(nil)).Elem())
}

func checkModelType(t reflect.Type) error {
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("skemabind: bind: %v is not a struct type", t)
	}
	if !reflect.PointerTo(t).Implements(_modelType) {
		return fmt.Errorf("skemabind: bind: %v does not embed skemabind.Base", t)
	}
	for i := 0; i < t.NumField(); i++ {
		if sf := t.Field(i); sf.Anonymous && sf.Type == _baseType {
			return nil
		}
	}
	return fmt.Errorf("skemabind: bind: %v must embed skemabind.Base by value", t)
}

// Schema returns the bound schema.
func (b *Binding[T]) Schema() *Schema { return b.schema }

// ToMapping serializes m. Undeclared values carried by m are merged back so
// that a load followed by a dump loses nothing. Any active validation session
// on ctx is ignored: the result is always a mapping.
func (b *Binding[T]) ToMapping(ctx context.Context, m *T) (map[string]any, error) {
	start := time.Now()
	out, iss := b.schema.Dump(withoutValidation(ctx), m)
	if len(iss) > 0 {
		b.fail(OpDump, false, 1, iss, start)
		return nil, newValidationError(b.schema.name, iss)
	}
	b.observe(OpDump, OutcomeOK, false, 1, 0, start)
	mapping, _ := out.(map[string]any)
	return mapping, nil
}

// ToMappingMany serializes every element of ms. Issues are keyed by element
// index; see ValidationError.Index.
func (b *Binding[T]) ToMappingMany(ctx context.Context, ms []*T) ([]map[string]any, error) {
	start := time.Now()
	in := make([]any, len(ms))
	for i, m := range ms {
		in[i] = m
	}
	out, iss := b.schema.DumpMany(withoutValidation(ctx), in)
	if len(iss) > 0 {
		b.fail(OpDump, true, len(ms), iss, start)
		return nil, newValidationError(b.schema.name, iss)
	}
	b.observe(OpDump, OutcomeOK, true, len(ms), 0, start)
	res := make([]map[string]any, len(out))
	for i, v := range out {
		res[i], _ = v.(map[string]any)
	}
	return res, nil
}

// FromMapping validates data and constructs a new *T from it. The returned
// instance is already marked valid.
func (b *Binding[T]) FromMapping(ctx context.Context, data map[string]any) (*T, error) {
	start := time.Now()
	out, iss := b.schema.Load(ctx, data)
	if len(iss) > 0 {
		b.fail(OpLoad, false, 1, iss, start)
		return nil, newValidationError(b.schema.name, iss)
	}
	b.observe(OpLoad, OutcomeOK, false, 1, 0, start)
	m, _ := out.(*T)
	return m, nil
}

// FromMappingMany loads every element of data. On failure the returned slice
// is still populated for the elements that loaded, with nil in failed slots.
func (b *Binding[T]) FromMappingMany(ctx context.Context, data []map[string]any) ([]*T, error) {
	start := time.Now()
	in := make([]any, len(data))
	for i, d := range data {
		in[i] = d
	}
	out, iss := b.schema.LoadMany(ctx, in)
	res := make([]*T, len(out))
	for i, v := range out {
		res[i], _ = v.(*T)
	}
	if len(iss) > 0 {
		b.fail(OpLoad, true, len(data), iss, start)
		return res, newValidationError(b.schema.name, iss)
	}
	b.observe(OpLoad, OutcomeOK, true, len(data), 0, start)
	return res, nil
}

// Validate checks m against the schema unless its validity flag is already
// set. Nested models that are already valid are not revisited. On success
// the flag is set. m must not be mutated concurrently.
func (b *Binding[T]) Validate(ctx context.Context, m *T) error {
	start := time.Now()
	if m == nil {
		iss := Issues{{Path: "/", Code: CodeWrongType, Message: i18n.T(CodeWrongType, nil), Params: map[string]any{"got": "nil"}}}
		b.fail(OpValidate, false, 1, iss, start)
		return newValidationError(b.schema.name, iss)
	}
	model := any(m).(Model)
	if IsValid(model) {
		b.observe(OpValidate, OutcomeCacheHit, false, 1, 0, start)
		return nil
	}
	vctx := WithValidation(ctx)
	out, iss := b.schema.Dump(vctx, m)
	if len(iss) == 0 {
		mapping, _ := out.(map[string]any)
		iss = b.schema.Validate(vctx, mapping)
	}
	if len(iss) > 0 {
		b.fail(OpValidate, false, 1, iss, start)
		return newValidationError(b.schema.name, iss)
	}
	MarkValid(model)
	b.observe(OpValidate, OutcomeOK, false, 1, 0, start)
	return nil
}

// Invalidate clears the validity flag of m so that the next Validate walks
// its fields again.
func (b *Binding[T]) Invalidate(m *T) {
	if m == nil {
		return
	}
	MarkInvalid(any(m).(Model))
}

// New builds a *T, lets init populate it and validates the result. An
// instance that fails validation is not returned.
func (b *Binding[T]) New(ctx context.Context, init func(*T)) (*T, error) {
	m := new(T)
	if init != nil {
		init(m)
	}
	if err := b.Validate(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update invalidates m, applies fn and validates the result.
func (b *Binding[T]) Update(ctx context.Context, m *T, fn func(*T)) error {
	b.Invalidate(m)
	if fn != nil && m != nil {
		fn(m)
	}
	return b.Validate(ctx, m)
}

func (b *Binding[T]) observe(op Op, out Outcome, many bool, items, issues int, start time.Time) {
	b.obs.Observe(Event{
		Schema:   b.schema.name,
		Op:       op,
		Outcome:  out,
		Many:     many,
		Items:    items,
		Issues:   issues,
		Duration: time.Since(start),
	})
}

func (b *Binding[T]) fail(op Op, many bool, items int, iss Issues, start time.Time) {
	if ce := b.log.Check(zap.DebugLevel, "operation rejected"); ce != nil {
		ce.Write(
			zap.String("schema", b.schema.name),
			zap.String("op", string(op)),
			zap.Int("issues", len(iss)),
			zap.Error(iss))
	}
	b.observe(op, OutcomeFailed, many, items, len(iss), start)
}

// withoutValidation shadows any session carried by ctx.
func withoutValidation(ctx context.Context) context.Context {
	if !InValidation(ctx) {
		return ctx
	}
	return context.WithValue(ctx, _ctxKeyValidating, false)
}
