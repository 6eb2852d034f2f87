package skemabind

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeWrongType     = "wrong_type"
	CodeNull          = "null"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeRule          = "rule"
	CodeParseError    = "parse_error"
	CodeNotBound      = "not_bound"
	CodeDuplicateKey  = "duplicate_key"
	CodeUniqueness    = "uniqueness"
	CodeDependency    = "dependency_unavailable"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
	// Rule optionally records the rule name that produced this issue.
	Rule string
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Issues, true
	}
	return nil, false
}

// Rebase prefixes every issue path with base. Child issues rooted at "/" land
// exactly on base.
func (iss Issues) Rebase(base string) Issues {
	if len(iss) == 0 || base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// issuesFromErr converts an error into Issues, wrapping non-Issues with CodeParseError.
func issuesFromErr(path string, err error) Issues {
	if err == nil {
		return nil
	}
	if i2, ok := AsIssues(err); ok {
		return i2.Rebase(path)
	}
	return Issues{Issue{Path: path, Code: CodeParseError, Message: err.Error(), Cause: err}}
}

// ValidationError is returned by the binding operations when the schema
// rejects a value. It carries the full issue set.
type ValidationError struct {
	Schema string
	Issues Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("skemabind: %s: validation failed: %s", e.Schema, e.Issues.Error())
}

// Unwrap exposes the issue set to errors.As.
func (e *ValidationError) Unwrap() error { return e.Issues }

// Fields groups issue messages by JSON Pointer.
func (e *ValidationError) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Issues))
	for _, it := range e.Issues {
		msg := it.Message
		if msg == "" {
			msg = it.Code
		}
		out[it.Path] = append(out[it.Path], msg)
	}
	return out
}

// Index returns the issues of element i of a many-mode operation, rebased to
// the element root.
func (e *ValidationError) Index(i int) Issues {
	prefix := "/" + strconv.Itoa(i)
	var out Issues
	for _, it := range e.Issues {
		switch {
		case it.Path == prefix:
			it.Path = "/"
		case strings.HasPrefix(it.Path, prefix+"/"):
			it.Path = strings.TrimPrefix(it.Path, prefix)
		default:
			continue
		}
		out = append(out, it)
	}
	return out
}

// Failed lists the element indexes that reported issues in many mode, in
// ascending order.
func (e *ValidationError) Failed() []int {
	seen := map[int]struct{}{}
	for _, it := range e.Issues {
		seg := strings.TrimPrefix(it.Path, "/")
		if i := strings.IndexByte(seg, '/'); i >= 0 {
			seg = seg[:i]
		}
		if n, err := strconv.Atoi(seg); err == nil {
			seen[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func newValidationError(schema string, iss Issues) *ValidationError {
	return &ValidationError{Schema: schema, Issues: iss}
}

// ErrDoubleBinding is matched by every DoubleBindingError via errors.Is.
var ErrDoubleBinding = errors.New("skemabind: double binding")

// ErrNotBound is returned when a schema operation needs a model type but the
// schema has not been bound yet.
var ErrNotBound = errors.New("skemabind: schema is not bound to a model type")

// DoubleBindingError reports an attempt to bind a schema, or a model type,
// a second time.
type DoubleBindingError struct {
	Schema    string
	BoundTo   reflect.Type
	Requested reflect.Type
}

func (e *DoubleBindingError) Error() string {
	return fmt.Sprintf("skemabind: schema %q can not be bound twice: already bound to %v, requested %v; declare a new schema to reuse its fields",
		e.Schema, e.BoundTo, e.Requested)
}

// Is makes errors.Is(err, ErrDoubleBinding) succeed.
func (e *DoubleBindingError) Is(target error) bool { return target == ErrDoubleBinding }
