// Package format moves mappings and bound models across text encodings.
//
// Decoding always yields the generic shapes the engine works with:
// map[string]any, []any, string, bool, nil and json.Number for numbers, so
// integers survive without passing through float64.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/i18n"
)

// DuplicateKeys selects how repeated object keys are handled while decoding.
type DuplicateKeys int

const (
	// DuplicateError rejects the document with a duplicate_key issue.
	DuplicateError DuplicateKeys = iota
	// DuplicateLastWins keeps the last occurrence, like encoding/json.
	DuplicateLastWins
)

// Option configures decoding.
type Option func(*options)

type options struct {
	dup       DuplicateKeys
	maxIssues int
}

// WithDuplicateKeys sets the duplicate key policy. The default is
// DuplicateError.
func WithDuplicateKeys(p DuplicateKeys) Option {
	return func(o *options) { o.dup = p }
}

// WithMaxIssues caps the number of duplicate_key issues collected before
// decoding stops. n <= 0 means unlimited.
func WithMaxIssues(n int) Option {
	return func(o *options) { o.maxIssues = n }
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ErrNotObject is returned when a document that must be an object is not.
var ErrNotObject = errors.New("format: document is not an object")

// ErrNotArray is returned when a document that must be an array is not.
var ErrNotArray = errors.New("format: document is not an array")

// DecodeJSON decodes a JSON object. Syntax errors and duplicate keys are
// returned as skemabind.Issues.
func DecodeJSON(data []byte, opts ...Option) (map[string]any, error) {
	v, err := DecodeJSONValue(data, opts...)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

// DecodeJSONMany decodes a JSON array of objects.
func DecodeJSONMany(data []byte, opts ...Option) ([]map[string]any, error) {
	v, err := DecodeJSONValue(data, opts...)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, ErrNotArray
	}
	out := make([]map[string]any, len(arr))
	for i, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("format: element %d: %w", i, ErrNotObject)
		}
		out[i] = m
	}
	return out, nil
}

// DecodeJSONValue decodes any single JSON document.
func DecodeJSONValue(data []byte, opts ...Option) (any, error) {
	return decodeJSON(bytes.NewReader(data), newOptions(opts))
}

// DecodeJSONReader is DecodeJSONValue over a reader. The reader is consumed
// up to the end of the first document; trailing non-space input is an error.
func DecodeJSONReader(r io.Reader, opts ...Option) (any, error) {
	return decodeJSON(r, newOptions(opts))
}

func decodeJSON(r io.Reader, o options) (any, error) {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	d := &decoder{dec: dec, opts: o}
	v, err := d.value("")
	if err != nil {
		if !errors.Is(err, errStop) {
			d.issues = skemabind.AppendIssues(d.issues, parseIssue("", err)...)
		}
		return nil, d.issues
	}
	if len(d.issues) > 0 {
		return nil, d.issues
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, parseIssue("", err)
	}
	return v, nil
}

var errStop = errors.New("format: issue limit reached")

type decoder struct {
	dec    *gojson.Decoder
	opts   options
	issues skemabind.Issues
}

func (d *decoder) value(path string) (any, error) {
	tok, err := d.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			return d.object(path)
		case '[':
			return d.array(path)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
	case gojson.Number:
		return v, nil
	case float64:
		return gojson.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case string, bool, nil:
		return v, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func (d *decoder) object(path string) (any, error) {
	out := map[string]any{}
	for d.dec.More() {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is %T, not a string", tok)
		}
		child := path + "/" + escapeToken(key)
		if _, dup := out[key]; dup && d.opts.dup == DuplicateError {
			d.issues = skemabind.AppendIssues(d.issues, skemabind.Issue{
				Path:    child,
				Code:    skemabind.CodeDuplicateKey,
				Message: i18n.T(skemabind.CodeDuplicateKey, map[string]string{"key": key}),
				Params:  map[string]any{"key": key},
			})
			if d.opts.maxIssues > 0 && len(d.issues) >= d.opts.maxIssues {
				return nil, errStop
			}
		}
		v, err := d.value(child)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *decoder) array(path string) (any, error) {
	out := []any{}
	for i := 0; d.dec.More(); i++ {
		v, err := d.value(path + "/" + strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := d.dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseIssue(path string, err error) skemabind.Issues {
	if path == "" {
		path = "/"
	}
	return skemabind.Issues{{
		Path:    path,
		Code:    skemabind.CodeParseError,
		Message: i18n.T(skemabind.CodeParseError, nil),
		Hint:    err.Error(),
		Cause:   err,
	}}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapeToken(s string) string { return pointerEscaper.Replace(s) }

// EncodeJSON encodes v compactly. Map keys are sorted.
func EncodeJSON(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// EncodeJSONIndent encodes v with two-space indentation.
func EncodeJSONIndent(v any) ([]byte, error) {
	return gojson.MarshalIndent(v, "", "  ")
}
