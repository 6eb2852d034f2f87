package skemabind_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/dsl"
)

// countingField accepts strings and counts CheckAndCoerce calls.
type countingField struct {
	calls    *atomic.Int64
	required bool
}

func newCountingField(required bool) countingField {
	return countingField{calls: &atomic.Int64{}, required: required}
}

func (c countingField) CheckAndCoerce(_ context.Context, raw any) (any, error) {
	c.calls.Add(1)
	s, ok := raw.(string)
	if !ok {
		return nil, skemabind.Issues{{Path: "/", Code: skemabind.CodeInvalidType}}
	}
	return s, nil
}

func (c countingField) Dump(_ context.Context, typed any) (any, error) { return typed, nil }
func (c countingField) Required() bool                                { return c.required }

type Person struct {
	skemabind.Base
	Name string `json:"name"`
	Age  int    `json:"age"`
	Nick string `json:"nick,omitempty"`
}

type Address struct {
	skemabind.Base
	City string `json:"city"`
}

type Customer struct {
	skemabind.Base
	Name    string     `json:"name"`
	Address *Address   `json:"address,omitempty"`
	Others  []*Address `json:"others,omitempty"`
}

func personSchema(t *testing.T) *skemabind.Schema {
	t.Helper()
	s, err := dsl.Object().
		Field("name", dsl.String().MinLen(1)).Required().
		Field("age", dsl.Int().Min(0)).Default(0).
		Build("person")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return s
}

func bindPerson(t *testing.T, opts ...skemabind.BindOption) *skemabind.Binding[Person] {
	t.Helper()
	opts = append([]skemabind.BindOption{skemabind.WithRegistry(skemabind.NewRegistry())}, opts...)
	b, err := skemabind.Bind[Person](personSchema(t), opts...)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	return b
}

// customerBindings binds Customer with a nested Address whose "city" field
// counts its checks.
func customerBindings(t *testing.T) (*skemabind.Binding[Customer], *skemabind.Binding[Address], countingField) {
	t.Helper()
	reg := skemabind.WithRegistry(skemabind.NewRegistry())
	city := newCountingField(true)
	addr := skemabind.MustSchema("address", map[string]skemabind.FieldValidator{"city": city})
	cust := dsl.Object().
		Field("name", dsl.String()).Required().
		Field("address", dsl.Nested(addr)).
		Field("others", dsl.List(dsl.Nested(addr))).
		MustBuild("customer")
	ab, err := skemabind.Bind[Address](addr, reg)
	if err != nil {
		t.Fatalf("bind address: %v", err)
	}
	cb, err := skemabind.Bind[Customer](cust, reg)
	if err != nil {
		t.Fatalf("bind customer: %v", err)
	}
	return cb, ab, city
}
