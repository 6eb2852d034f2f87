// Package middleware binds HTTP request bodies to models.
//
// The net/http helpers here are framework neutral; the gin and echo
// sub-modules wrap them for those routers.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
)

// ctxKeyModel is a typed context key for storing *T.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyModel[T any] struct{}

// ContextWithModel attaches m to the context.
func ContextWithModel[T any](ctx context.Context, m *T) context.Context {
	return context.WithValue(ctx, ctxKeyModel[T]{}, m)
}

// ModelFromContext retrieves the *T stored by ContextWithModel.
func ModelFromContext[T any](ctx context.Context) (*T, bool) {
	v, ok := ctx.Value(ctxKeyModel[T]{}).(*T)
	return v, ok
}

// DefaultMaxBodyBytes bounds request bodies read by Decode.
const DefaultMaxBodyBytes int64 = 1 << 20

// DefaultDecodeOptions returns a recommended default for HTTP JSON boundaries:
// duplicate keys are errors.
func DefaultDecodeOptions() []format.Option {
	return []format.Option{format.WithDuplicateKeys(format.DuplicateError)}
}

// Decode reads the JSON body of r and loads it through b. A body larger than
// DefaultMaxBodyBytes is rejected.
func Decode[T any](r *http.Request, b *skemabind.Binding[T], opts ...format.Option) (*T, error) {
	if r.Body == nil {
		return nil, errors.New("middleware: empty request body")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("middleware: read body: %w", err)
	}
	if int64(len(data)) > DefaultMaxBodyBytes {
		return nil, fmt.Errorf("middleware: request body exceeds %d bytes", DefaultMaxBodyBytes)
	}
	if len(opts) == 0 {
		opts = DefaultDecodeOptions()
	}
	return format.Unmarshal(r.Context(), b, data, opts...)
}

// ValidateJSON decodes the request body through b, stores the model in the
// request context and calls next. On failure it answers 400 with an issue
// payload and next is not called.
func ValidateJSON[T any](b *skemabind.Binding[T], opts ...format.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, err := Decode(r, b, opts...)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithModel(r.Context(), m)))
		})
	}
}

// Respond dumps m through b and writes it as JSON with the given status.
func Respond[T any](w http.ResponseWriter, b *skemabind.Binding[T], status int, m *T) error {
	out, err := format.Marshal(context.Background(), b, m)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	return err
}

// IssuePayload is the wire form of one issue in an error response.
type IssuePayload struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Hint    string         `json:"hint,omitempty"`
	Rule    string         `json:"rule,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues skemabind.Issues) map[string]any {
	out := make([]IssuePayload, 0, len(issues))
	for _, it := range issues {
		out = append(out, IssuePayload{
			Path:    it.Path,
			Code:    it.Code,
			Message: it.Message,
			Hint:    it.Hint,
			Rule:    it.Rule,
			Params:  it.Params,
		})
	}
	return map[string]any{"issues": out}
}

// ErrorBody returns the response body for err: an issue payload when err
// carries issues, otherwise {"error": message}.
func ErrorBody(err error) map[string]any {
	if iss, ok := skemabind.AsIssues(err); ok {
		return ErrorPayload(iss)
	}
	return map[string]any{"error": err.Error()}
}

// WriteError writes ErrorBody(err) as JSON with the given status.
func WriteError(w http.ResponseWriter, status int, err error) {
	body, encErr := format.EncodeJSON(ErrorBody(err))
	if encErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
