package skemabind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reoring/skemabind/i18n"
)

// serviceKey is a distinct context key per service type T.
type serviceKey[T any] struct{}

// WithService stores svc on ctx for refinements that need external state,
// such as a lookup of existing identifiers. Loads and validations pass ctx
// through to every refinement unchanged.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, svc)
}

// Service returns the T stored by WithService.
func Service[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(serviceKey[T]{}).(T)
	return v, ok
}

// RequireService is Service for refinements: a missing service becomes a
// dependency_unavailable issue at the object root.
func RequireService[T any](ctx context.Context) (T, error) {
	if v, ok := Service[T](ctx); ok {
		return v, nil
	}
	var zero T
	return zero, Issues{Issue{
		Path:    "/",
		Code:    CodeDependency,
		Message: i18n.T(CodeDependency, nil),
		Hint:    fmt.Sprintf("no %v on the context", reflect.TypeOf((*T)(nil)).Elem()),
	}}
}
