// Package codec converts field values between their wire form and the typed
// form held by a model.
package codec

import "context"

// Codec converts between a wire value A and a domain value B.
type Codec[A, B any] interface {
	Decode(ctx context.Context, a A) (B, error)
	Encode(ctx context.Context, b B) (A, error)
}
