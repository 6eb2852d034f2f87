package schemafile_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/dsl"
	"github.com/reoring/skemabind/schemafile"
)

const serverDoc = `
title: server
type: object
additionalProperties: false
required: [host]
properties:
  host: {type: string, minLength: 1}
  port: {type: integer, minimum: 1, maximum: 65535, default: 8080}
  timeout: {type: string, format: duration}
  tls: {type: boolean, default: false}
  tags:
    type: array
    items: {type: string, x-rule: 'value != ""'}
x-rules:
  tls-port: 'port != 443 || tls == true'
`

func TestParse_DeclaresChecks(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	s, diag, err := schemafile.Parse([]byte(serverDoc), schemafile.Options{})
	r.NoError(err)
	r.False(diag.HasWarnings(), "%v", diag.Warnings())
	r.Equal("server", s.Name())
	r.Equal(skemabind.UnknownStrict, s.Unknown())
	r.Equal([]string{"host", "port", "tags", "timeout", "tls"}, s.Keys())

	vals, iss := s.Coerce(ctx, map[string]any{"host": "h", "timeout": "1m30s"})
	r.Empty(iss)
	r.Equal(map[string]any{"host": "h", "port": 8080, "tls": false, "timeout": 90 * time.Second}, vals)

	_, iss = s.Coerce(ctx, map[string]any{"host": "h", "port": 443})
	r.Len(iss, 1)
	r.Equal(skemabind.CodeRule, iss[0].Code)
	r.Equal("tls-port", iss[0].Rule)

	_, iss = s.Coerce(ctx, map[string]any{"port": 0, "tags": []any{"a", ""}, "x": 1})
	codes := map[string]string{}
	for _, it := range iss {
		codes[it.Path] = it.Code
	}
	r.Equal(map[string]string{
		"/host":   skemabind.CodeRequired,
		"/port":   skemabind.CodeTooSmall,
		"/tags/1": skemabind.CodeRule,
		"/x":      skemabind.CodeUnknownKey,
	}, codes)
}

func TestParse_ExportedSchemaParsesBack(t *testing.T) {
	r := require.New(t)
	addr := dsl.Object().
		Field("city", dsl.String()).Required().
		UnknownStrict().
		MustBuild("user.address")
	orig := dsl.Object().
		Field("name", dsl.String().MinLen(1).MaxLen(10).Pattern(`^\w+$`).Describe("display name")).Required().
		Field("role", dsl.String().Enum("admin", "user")).Default("user").
		Field("level", dsl.Int().Min(0).Max(9)).Nullable().Default(1).
		Field("score", dsl.Float()).
		Field("tags", dsl.List(dsl.String()).MaxLen(3)).
		Field("labels", dsl.MapOf(dsl.Int())).
		Field("born", dsl.Time()).
		Field("ttl", dsl.Duration()).
		Field("address", dsl.Inline(addr)).Nullable().
		UnknownStrip().
		Reserve("internal").
		MustBuild("user")

	first, err := json.MarshalIndent(orig.JSONSchema(), "", "  ")
	r.NoError(err)
	back, diag, err := schemafile.Parse(first, schemafile.Options{})
	r.NoError(err)
	r.False(diag.HasWarnings(), "%v", diag.Warnings())
	second, err := json.MarshalIndent(back.JSONSchema(), "", "  ")
	r.NoError(err)
	r.JSONEq(string(first), string(second))
	r.Equal(skemabind.UnknownStrip, back.Unknown())
	r.True(back.IsReserved("internal"))
}

const crdDoc = `
apiVersion: apiextensions.k8s.io/v1
kind: CustomResourceDefinition
metadata: {name: widgets.example.com}
spec:
  versions:
  - name: v1alpha1
    served: false
    schema:
      openAPIV3Schema: {type: object, properties: {legacy: {type: string}}}
  - name: v1
    served: true
    schema:
      openAPIV3Schema:
        type: object
        properties:
          spec:
            type: object
            x-kubernetes-preserve-unknown-fields: true
            required: [replicas]
            properties:
              replicas: {type: integer, minimum: 0}
              mode: {type: string, nullable: true, enum: [fast, safe]}
              selector: {type: object, additionalProperties: {type: string}}
`

func TestParse_CRD(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	s, _, err := schemafile.Parse([]byte(crdDoc), schemafile.Options{Name: "widget", Unknown: skemabind.UnknownStrip})
	r.NoError(err)
	r.Equal("widget", s.Name())
	r.Equal([]string{"spec"}, s.Keys())

	in := map[string]any{
		"spec":   map[string]any{"replicas": 2, "mode": nil, "selector": map[string]any{"app": "w"}, "extra": true},
		"status": "dropped",
	}
	vals, iss := s.Coerce(ctx, in)
	r.Empty(iss)
	r.Equal(map[string]any{
		"spec": map[string]any{"replicas": 2, "mode": nil, "selector": map[string]any{"app": "w"}, "extra": true},
	}, vals)

	_, iss = s.Coerce(ctx, map[string]any{"spec": map[string]any{"replicas": -1, "mode": "slow"}})
	r.Len(iss, 2)
	r.Equal("/spec/mode", iss[0].Path)
	r.Equal(skemabind.CodeInvalidEnum, iss[0].Code)
	r.Equal("/spec/replicas", iss[1].Path)
}

func TestParse_LocalRefs(t *testing.T) {
	r := require.New(t)
	doc := `
title: catalog
$defs:
  money: {type: object, required: [amount], properties: {amount: {type: number, minimum: 0}, currency: {type: string, default: EUR}}}
  node: {type: object, properties: {next: {$ref: '#/$defs/node'}}}
properties:
  price: {$ref: '#/$defs/money', description: list price}
  items: {type: array, items: {$ref: '#/$defs/money'}}
  chain: {$ref: '#/$defs/node'}
  remote: {$ref: 'https://example.com/x.json'}
`
	s, diag, err := schemafile.Parse([]byte(doc), schemafile.Options{})
	r.NoError(err)
	r.Len(diag.Warnings(), 2, "%v", diag.Warnings())

	vals, iss := s.Coerce(context.Background(), map[string]any{"price": map[string]any{"amount": 2}})
	r.Empty(iss)
	r.Equal(map[string]any{"amount": 2.0, "currency": "EUR"}, vals["price"])

	_, iss = s.Coerce(context.Background(), map[string]any{"items": []any{map[string]any{}}})
	r.Len(iss, 1)
	r.Equal("/items/0/amount", iss[0].Path)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"duplicate key":  "properties:\n  a: {type: string}\n  a: {type: integer}\n",
		"bad type":       "properties: {a: {type: decimal}}",
		"union type":     "properties: {a: {type: [string, integer]}}",
		"bad default":    "properties: {a: {type: integer, default: x}}",
		"bad pattern":    "properties: {a: {type: string, pattern: '['}}",
		"bad rule":       "properties: {a: {type: string}}\nx-rules: {r: 'a +'}",
		"bad policy":     "x-unknown: maybe",
		"not a mapping":  "- a\n- b\n",
		"bad minimum":    "properties: {a: {type: integer, minimum: low}}",
		"empty document": "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := schemafile.Parse([]byte(doc), schemafile.Options{})
			require.Error(t, err)
		})
	}

	_, _, err := schemafile.Parse([]byte(cases["duplicate key"]), schemafile.Options{})
	var dup *schemafile.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "a", dup.Key)
	require.Equal(t, 3, dup.Line)
}

func TestLoad(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "server.yaml")
	r.NoError(os.WriteFile(path, []byte(serverDoc), 0o600))

	s, _, err := schemafile.Load(path, schemafile.Options{Name: "srv"})
	r.NoError(err)
	r.Equal("srv", s.Name())

	type server struct {
		skemabind.Base
		Host    string        `json:"host"`
		Port    int           `json:"port"`
		Timeout time.Duration `json:"timeout,omitempty"`
	}
	b, err := skemabind.Bind[server](s, skemabind.WithRegistry(nil))
	r.NoError(err)
	srv, err := b.FromMapping(context.Background(), map[string]any{"host": "h", "timeout": "2s"})
	r.NoError(err)
	r.Equal("h", srv.Host)
	r.Equal(8080, srv.Port)
	r.Equal(2*time.Second, srv.Timeout)
	tls, ok := srv.Extra("tls")
	r.True(ok)
	r.Equal(false, tls)

	_, _, err = schemafile.Load(filepath.Join(t.TempDir(), "missing.yaml"), schemafile.Options{})
	r.Error(err)
}
