// Package schemafile declares schemas in YAML or JSON documents.
//
// The document language is the subset of JSON Schema that Schema.JSONSchema
// exports, so an exported schema parses back into an equivalent one:
//
//	title: server
//	type: object
//	additionalProperties: false
//	required: [host]
//	properties:
//	  host: {type: string, minLength: 1}
//	  port: {type: integer, minimum: 1, maximum: 65535, default: 8080}
//	  timeout: {type: string, format: duration}
//	  tls: {type: boolean, default: false}
//	  tags: {type: array, items: {type: string}}
//	x-rules:
//	  tls-port: 'port != 443 || tls == true'
//
// Extensions: x-unknown (preserve, strip or strict) overrides
// additionalProperties, x-reserved lists reserved keys, x-rules holds
// whole-object expressions and x-rule holds per-property expressions over
// "value". Kubernetes CRD documents are unwrapped to their served
// openAPIV3Schema, and x-kubernetes-preserve-unknown-fields selects preserve.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/dsl"
)

// Options controls parsing.
type Options struct {
	// Name overrides the document title as the schema name.
	Name string
	// Unknown applies to objects that set neither additionalProperties nor
	// x-unknown. The zero value preserves unknown keys.
	Unknown skemabind.UnknownPolicy
}

// Diag carries non-fatal warnings produced while parsing.
type Diag interface {
	HasWarnings() bool
	Warnings() []string
}

type simpleDiag struct{ ws []string }

func (d *simpleDiag) HasWarnings() bool        { return len(d.ws) > 0 }
func (d *simpleDiag) Warnings() []string       { return append([]string(nil), d.ws...) }
func (d *simpleDiag) warnf(f string, a ...any) { d.ws = append(d.ws, fmt.Sprintf(f, a...)) }

// Load reads and parses the schema document at path.
func Load(path string, opts Options) (*skemabind.Schema, Diag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &simpleDiag{}, fmt.Errorf("schemafile: %w", err)
	}
	return Parse(data, opts)
}

// Parse compiles a schema document.
func Parse(data []byte, opts Options) (*skemabind.Schema, Diag, error) {
	d := &simpleDiag{}
	doc, err := decodeDocument(bytes.NewReader(data))
	if err != nil {
		return nil, d, fmt.Errorf("schemafile: %w", err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, d, errors.New("schemafile: document is not a mapping")
	}
	return compile(root, opts, d)
}

// Compile builds a schema from an already decoded document. root is not
// modified.
func Compile(root map[string]any, opts Options) (*skemabind.Schema, Diag, error) {
	return compile(root, opts, &simpleDiag{})
}

func compile(root map[string]any, opts Options, d *simpleDiag) (*skemabind.Schema, Diag, error) {
	if oas, ok := root["openAPIV3Schema"].(map[string]any); ok {
		root = oas
	} else if oas := unwrapCRDSchema(root); oas != nil {
		root = oas
	}
	root = deepCopyMap(root)
	resolveRefsInPlace(root, extractDefs(root), d, map[string]bool{})

	name := opts.Name
	if name == "" {
		name, _ = root["title"].(string)
	}
	if name == "" {
		name = "schema"
	}
	c := &compiler{opts: opts, d: d}
	s, err := c.object(name, "", root)
	if err != nil {
		return nil, d, fmt.Errorf("schemafile: %w", err)
	}
	return s, d, nil
}

// unwrapCRDSchema extracts openAPIV3Schema from a Kubernetes CRD document,
// preferring a served version and falling back to spec.validation.
func unwrapCRDSchema(root map[string]any) map[string]any {
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil
	}
	if vers, ok := spec["versions"].([]any); ok {
		var first map[string]any
		for _, v := range vers {
			vm, _ := v.(map[string]any)
			sch, _ := vm["schema"].(map[string]any)
			oas, ok := sch["openAPIV3Schema"].(map[string]any)
			if !ok {
				continue
			}
			if served, ok := vm["served"].(bool); !ok || served {
				return oas
			}
			if first == nil {
				first = oas
			}
		}
		if first != nil {
			return first
		}
	}
	if val, ok := spec["validation"].(map[string]any); ok {
		if oas, ok := val["openAPIV3Schema"].(map[string]any); ok {
			return oas
		}
	}
	return nil
}

type compiler struct {
	opts Options
	d    *simpleDiag
}

var objectKeys = map[string]bool{
	"$schema": true, "$id": true, "$defs": true, "definitions": true, "title": true,
	"description": true, "type": true, "properties": true, "required": true,
	"additionalProperties": true, "x-unknown": true, "x-reserved": true, "x-rules": true,
	"x-kubernetes-preserve-unknown-fields": true,
}

// object compiles an object schema. ptr locates doc in the document for
// diagnostics.
func (c *compiler) object(name, ptr string, doc map[string]any) (*skemabind.Schema, error) {
	if t, ok := doc["type"].(string); ok && t != "object" {
		c.d.warnf("%s: type %q treated as object", at(ptr), t)
	}
	for k := range doc {
		if !objectKeys[k] && !propertyKeys[k] {
			c.d.warnf("%s: keyword %q ignored", at(ptr), k)
		}
	}
	b := dsl.Object()
	policy, err := c.unknownPolicy(ptr, doc)
	if err != nil {
		return nil, err
	}
	switch policy {
	case skemabind.UnknownStrict:
		b.UnknownStrict()
	case skemabind.UnknownStrip:
		b.UnknownStrip()
	default:
		b.UnknownPreserve()
	}

	required := map[string]bool{}
	for _, r := range stringList(doc["required"]) {
		required[r] = true
	}
	props, _ := doc["properties"].(map[string]any)
	var errs []error
	for _, key := range sortedKeys(props) {
		pptr := ptr + "/properties/" + key
		ps, ok := props[key].(map[string]any)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: property schema is not a mapping", at(pptr)))
			continue
		}
		f, nullable, err := c.field(name+"."+key, pptr, ps)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		step := b.Field(key, f)
		if nullable {
			step = step.Nullable()
		}
		def, hasDef := defaultOf(ps)
		switch {
		case hasDef:
			if required[key] {
				c.d.warnf("%s: required property has a default; treated as optional", at(pptr))
			}
			step.Default(def)
		case required[key]:
			step.Required()
		default:
			step.Optional()
		}
		delete(required, key)
	}
	for _, r := range sortedKeys(required) {
		c.d.warnf("%s: required property %q is not declared", at(ptr), r)
	}
	if reserved := stringList(doc["x-reserved"]); len(reserved) > 0 {
		b.Reserve(reserved...)
	}
	rules, _ := doc["x-rules"].(map[string]any)
	for _, rn := range sortedKeys(rules) {
		src, ok := rules[rn].(string)
		if !ok {
			errs = append(errs, fmt.Errorf("%s: x-rules/%s is not a string", at(ptr), rn))
			continue
		}
		b.Rule(rn, src)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b.Build(name)
}

func (c *compiler) unknownPolicy(ptr string, doc map[string]any) (skemabind.UnknownPolicy, error) {
	if s, ok := doc["x-unknown"].(string); ok {
		p, ok := skemabind.ParseUnknownPolicy(s)
		if !ok {
			return 0, fmt.Errorf("%s: unknown x-unknown policy %q", at(ptr), s)
		}
		return p, nil
	}
	if v, ok := doc["x-kubernetes-preserve-unknown-fields"].(bool); ok && v {
		return skemabind.UnknownPreserve, nil
	}
	switch ap := doc["additionalProperties"].(type) {
	case bool:
		if ap {
			return skemabind.UnknownPreserve, nil
		}
		return skemabind.UnknownStrict, nil
	case map[string]any:
		c.d.warnf("%s: additionalProperties schema next to properties is not checked", at(ptr))
		return skemabind.UnknownPreserve, nil
	}
	return c.opts.Unknown, nil
}

// defaultOf finds the default of a property, looking inside a nullable
// anyOf wrapper as well.
func defaultOf(ps map[string]any) (any, bool) {
	if v, ok := ps["default"]; ok {
		return v, true
	}
	alts, _ := ps["anyOf"].([]any)
	for _, a := range alts {
		if am, ok := a.(map[string]any); ok {
			if v, ok := am["default"]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func at(ptr string) string {
	if ptr == "" {
		return "/"
	}
	return ptr
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringList(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
