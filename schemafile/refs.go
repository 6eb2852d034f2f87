package schemafile

import "strings"

// extractDefs returns the local definitions of doc, from $defs or the older
// definitions keyword.
func extractDefs(doc map[string]any) map[string]any {
	if m, ok := doc["$defs"].(map[string]any); ok {
		return m
	}
	if m, ok := doc["definitions"].(map[string]any); ok {
		return m
	}
	return nil
}

// resolveRefsInPlace expands local $refs under properties, items,
// additionalProperties and anyOf.
func resolveRefsInPlace(node map[string]any, defs map[string]any, d *simpleDiag, visited map[string]bool) {
	if node == nil || defs == nil {
		return
	}
	if pm, ok := node["properties"].(map[string]any); ok {
		for k, raw := range pm {
			if sch, ok := raw.(map[string]any); ok {
				pm[k] = resolveOne(sch, defs, d, visited)
			}
		}
	}
	for _, key := range []string{"items", "additionalProperties"} {
		if sch, ok := node[key].(map[string]any); ok {
			node[key] = resolveOne(sch, defs, d, visited)
		}
	}
	if alts, ok := node["anyOf"].([]any); ok {
		for i, raw := range alts {
			if sch, ok := raw.(map[string]any); ok {
				alts[i] = resolveOne(sch, defs, d, visited)
			}
		}
	}
}

// resolveOne expands a single schema map with a local $ref, merging the
// target shallowly. Keys set next to the $ref win.
func resolveOne(s map[string]any, defs map[string]any, d *simpleDiag, visited map[string]bool) map[string]any {
	ref, ok := s["$ref"].(string)
	if !ok {
		resolveRefsInPlace(s, defs, d, visited)
		return s
	}
	var key string
	switch {
	case strings.HasPrefix(ref, "#/$defs/"):
		key = strings.TrimPrefix(ref, "#/$defs/")
	case strings.HasPrefix(ref, "#/definitions/"):
		key = strings.TrimPrefix(ref, "#/definitions/")
	default:
		d.warnf("$ref %q not supported (local definitions only)", ref)
		return s
	}
	base, ok := defs[key].(map[string]any)
	if !ok {
		d.warnf("$ref to unknown definition %q", key)
		return s
	}
	if visited[key] {
		d.warnf("cyclic $ref at definition %q (not expanded)", key)
		return s
	}
	visited[key] = true
	expanded := deepCopyMap(base)
	resolveRefsInPlace(expanded, defs, d, visited)
	delete(visited, key)
	delete(s, "$ref")
	for k, v := range expanded {
		if _, exists := s[k]; !exists {
			s[k] = v
		}
	}
	return s
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	}
	return v
}
