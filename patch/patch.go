// Package patch applies JSON Patch (RFC 6902) and JSON Merge Patch (RFC 7386)
// documents to bound model instances.
//
// The instance is dumped to its mapping, the patch is applied to the JSON form
// and the result is loaded back through the binding. The original instance is
// never modified, and a patch that produces an invalid document is rejected
// with the binding's validation error. Undeclared values carried by the
// instance take part in the patch like any other key.
package patch

import (
	"context"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
)

// Apply applies the RFC 6902 patch document ops to m and returns the patched
// instance.
func Apply[T any](ctx context.Context, b *skemabind.Binding[T], m *T, ops []byte) (*T, error) {
	p, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return nil, fmt.Errorf("patch: decode json patch: %w", err)
	}
	return transform(ctx, b, m, func(doc []byte) ([]byte, error) {
		out, err := p.Apply(doc)
		if err != nil {
			return nil, fmt.Errorf("patch: apply json patch: %w", err)
		}
		return out, nil
	})
}

// Merge applies the RFC 7386 merge patch document to m and returns the patched
// instance. A null member removes the key.
func Merge[T any](ctx context.Context, b *skemabind.Binding[T], m *T, mergeDoc []byte) (*T, error) {
	return transform(ctx, b, m, func(doc []byte) ([]byte, error) {
		out, err := jsonpatch.MergePatch(doc, mergeDoc)
		if err != nil {
			return nil, fmt.Errorf("patch: apply merge patch: %w", err)
		}
		return out, nil
	})
}

// Diff returns the merge patch that turns before into after.
func Diff[T any](ctx context.Context, b *skemabind.Binding[T], before, after *T) ([]byte, error) {
	from, err := format.Marshal(ctx, b, before)
	if err != nil {
		return nil, err
	}
	to, err := format.Marshal(ctx, b, after)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.CreateMergePatch(from, to)
	if err != nil {
		return nil, fmt.Errorf("patch: create merge patch: %w", err)
	}
	return out, nil
}

func transform[T any](ctx context.Context, b *skemabind.Binding[T], m *T, fn func([]byte) ([]byte, error)) (*T, error) {
	doc, err := format.Marshal(ctx, b, m)
	if err != nil {
		return nil, err
	}
	out, err := fn(doc)
	if err != nil {
		return nil, err
	}
	return format.Unmarshal(ctx, b, out, format.WithDuplicateKeys(format.DuplicateLastWins))
}
