package dsl

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/reoring/skemabind/codec"
)

// FromCodec builds a field whose wire value is checked by wire and then
// decoded by c. Dumping encodes with c and re-checks the result with wire.
func FromCodec[A, B any](wire *Field, c codec.Codec[A, B]) *Field {
	return &Field{
		kind: wire.kind,
		hint: typeOf[B](),
		check: func(ctx context.Context, v any) (any, error) {
			w, err := wire.CheckAndCoerce(ctx, v)
			if err != nil {
				return nil, err
			}
			a, ok := w.(A)
			if !ok {
				var zero A
				return nil, invalidType(fmt.Sprintf("%T", zero), w)
			}
			return c.Decode(ctx, a)
		},
		dump: func(ctx context.Context, v any) (any, error) {
			b, ok := v.(B)
			if !ok {
				var zero B
				return nil, invalidType(fmt.Sprintf("%T", zero), v)
			}
			a, err := c.Encode(ctx, b)
			if err != nil {
				return nil, err
			}
			return wire.CheckAndCoerce(ctx, a)
		},
		schema: wire.JSONSchema,
	}
}

// Time is an RFC3339 string on the wire and a time.Time in the model.
func Time() *Field {
	f := FromCodec[string, time.Time](String(), codec.TimeRFC3339())
	f.schema = func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string", Format: "date-time"} }
	return f
}

// Duration is a Go duration string on the wire and a time.Duration in the
// model.
func Duration() *Field {
	f := FromCodec[string, time.Duration](String(), codec.DurationString())
	f.schema = func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string", Format: "duration"} }
	return f
}
