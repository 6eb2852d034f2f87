package format

import (
	"context"

	"github.com/reoring/skemabind"
)

// Unmarshal decodes a JSON object and loads it through b.
func Unmarshal[T any](ctx context.Context, b *skemabind.Binding[T], data []byte, opts ...Option) (*T, error) {
	m, err := DecodeJSON(data, opts...)
	if err != nil {
		return nil, err
	}
	return b.FromMapping(ctx, m)
}

// UnmarshalMany decodes a JSON array of objects and loads it through b in
// many-mode.
func UnmarshalMany[T any](ctx context.Context, b *skemabind.Binding[T], data []byte, opts ...Option) ([]*T, error) {
	ms, err := DecodeJSONMany(data, opts...)
	if err != nil {
		return nil, err
	}
	return b.FromMappingMany(ctx, ms)
}

// Marshal dumps m through b and encodes the mapping as JSON.
func Marshal[T any](ctx context.Context, b *skemabind.Binding[T], m *T) ([]byte, error) {
	out, err := b.ToMapping(ctx, m)
	if err != nil {
		return nil, err
	}
	return EncodeJSON(out)
}

// MarshalMany dumps every element through b and encodes them as a JSON array.
func MarshalMany[T any](ctx context.Context, b *skemabind.Binding[T], ms []*T) ([]byte, error) {
	out, err := b.ToMappingMany(ctx, ms)
	if err != nil {
		return nil, err
	}
	return EncodeJSON(out)
}

// UnmarshalYAML decodes a YAML object and loads it through b.
func UnmarshalYAML[T any](ctx context.Context, b *skemabind.Binding[T], data []byte, opts ...Option) (*T, error) {
	m, err := DecodeYAML(data, opts...)
	if err != nil {
		return nil, err
	}
	return b.FromMapping(ctx, m)
}

// MarshalYAML dumps m through b and encodes the mapping as YAML.
func MarshalYAML[T any](ctx context.Context, b *skemabind.Binding[T], m *T) ([]byte, error) {
	out, err := b.ToMapping(ctx, m)
	if err != nil {
		return nil, err
	}
	return EncodeYAML(out)
}
