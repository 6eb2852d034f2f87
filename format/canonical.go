package format

import (
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// CanonicalJSON encodes v per RFC 8785 (JSON Canonicalization Scheme). Equal
// mappings produce byte-identical output, which makes the result usable for
// diffs and digests.
func CanonicalJSON(v any) ([]byte, error) {
	data, err := EncodeJSON(v)
	if err != nil {
		return nil, err
	}
	out, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("format: canonicalize: %w", err)
	}
	return out, nil
}
