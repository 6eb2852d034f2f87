package skemabind

import "context"

// ---- Context options (internal wiring, exported for subpackages) ----

type contextKey int

const (
	_ctxKeyFailFast contextKey = iota
	_ctxKeyValidating
)

// WithFailFast returns a child context that marks fail-fast behavior: schema
// walks stop at the first issue.
func WithFailFast(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyFailFast, enabled)
}

// IsFailFast reports whether the current walk should stop on the first issue.
func IsFailFast(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyFailFast)
	b, _ := v.(bool)
	return b
}

// WithValidation opens a validation session on the returned context. While a
// session is active, dumping an instance whose validity flag is set yields
// ValidModel instead of walking its fields.
func WithValidation(ctx context.Context) context.Context {
	return context.WithValue(ctx, _ctxKeyValidating, true)
}

// InValidation reports whether ctx carries an active validation session.
func InValidation(ctx context.Context) bool {
	v := ctx.Value(_ctxKeyValidating)
	b, _ := v.(bool)
	return b
}

// validModel is the type of the ValidModel sentinel.
type validModel struct{}

func (validModel) String() string { return "skemabind.ValidModel" }

// ValidModel is returned by Dump, in place of a mapping, for an instance that
// is already known to be valid while a validation session is active. Load
// passes it through unchanged.
var ValidModel any = validModel{}

// IsValidModel reports whether v is the ValidModel sentinel.
func IsValidModel(v any) bool {
	_, ok := v.(validModel)
	return ok
}
