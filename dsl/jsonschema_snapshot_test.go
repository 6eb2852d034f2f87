package dsl_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	g "github.com/reoring/skemabind/dsl"
)

func TestJSONSchema_Snapshot(t *testing.T) {
	addr := g.Object().Field("city", g.String()).Required().UnknownStrict().MustBuild("address")
	s := g.Object().
		Field("name", g.String().MinLen(1).MaxLen(10).Pattern(`^\w+$`).Describe("display name")).Required().
		Field("role", g.String().Enum("admin", "user")).Default("user").
		Field("tags", g.List(g.String()).MaxLen(3)).
		Field("labels", g.MapOf(g.Int())).
		Field("born", g.Time()).
		Field("address", g.Inline(addr)).Nullable().
		MustBuild("user")

	raw, err := json.Marshal(s.JSONSchema())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{
		"type":                 "object",
		"title":                "user",
		"required":             []any{"name"},
		"additionalProperties": true,
		"properties": map[string]any{
			"address": map[string]any{
				"anyOf": []any{
					map[string]any{
						"type":                 "object",
						"title":                "address",
						"required":             []any{"city"},
						"additionalProperties": false,
						"properties":           map[string]any{"city": map[string]any{"type": "string"}},
					},
					map[string]any{"type": "null"},
				},
			},
			"born":   map[string]any{"type": "string", "format": "date-time"},
			"labels": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "integer"}},
			"name": map[string]any{
				"type":        "string",
				"minLength":   1.0,
				"maxLength":   10.0,
				"pattern":     `^\w+$`,
				"description": "display name",
			},
			"role": map[string]any{"type": "string", "enum": []any{"admin", "user"}, "default": "user"},
			"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 3.0},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("json schema (-want +got):\n%s", diff)
	}
}
