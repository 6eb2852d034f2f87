package plan

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type embedded struct{ hidden bool }

type sample struct {
	embedded
	A      string            `json:"a"`
	B      int               `skemabind:"name=bee" json:"b"`
	C      *float64          `json:"c,omitempty"`
	D      []int             `json:",omitempty"`
	E      map[string]uint16 `json:"e"`
	Ignore string            `json:"-"`
	hidden string
}

func TestResolveKey(t *testing.T) {
	st := reflect.TypeOf((*sample)(nil)).Elem()
	cases := map[string]string{"A": "a", "B": "bee", "C": "c", "D": "D", "Ignore": "-"}
	for name, want := range cases {
		sf, _ := st.FieldByName(name)
		if got := ResolveKey(sf); got != want {
			t.Errorf("ResolveKey(%s) = %q, want %q", name, got, want)
		}
	}
}

func TestBuild(t *testing.T) {
	p, err := Build(reflect.TypeOf((**sample)(nil)).Elem(), reflect.TypeOf((*embedded)(nil)).Elem())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var keys []string
	for _, f := range p.Fields() {
		keys = append(keys, f.Key)
	}
	if diff := cmp.Diff([]string{"a", "bee", "c", "D", "e"}, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if f, _ := p.Lookup("c"); !f.OmitEmpty {
		t.Fatalf("c should be omitempty")
	}
	if f, _ := p.Lookup("a"); f.OmitEmpty {
		t.Fatalf("a should not be omitempty")
	}
	if _, ok := p.Lookup("Ignore"); ok {
		t.Fatalf("\"-\" field must not be keyed")
	}

	type dup struct {
		X string `json:"k"`
		Y string `json:"k"`
	}
	if _, err := Build(reflect.TypeOf((*dup)(nil)).Elem(), nil); err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if _, err := Build(reflect.TypeOf((*int)(nil)).Elem(), nil); err == nil {
		t.Fatalf("expected error for non-struct")
	}
}

func TestGet_AbsentValues(t *testing.T) {
	p, _ := Build(reflect.TypeOf((*sample)(nil)).Elem(), reflect.TypeOf((*embedded)(nil)).Elem())
	sv := reflect.ValueOf(&sample{A: ""}).Elem()
	if _, ok := Get(sv, mustLookup(t, p, "a")); !ok {
		t.Fatalf("empty non-omitempty string must be present")
	}
	for _, k := range []string{"c", "D", "e"} {
		if _, ok := Get(sv, mustLookup(t, p, k)); ok {
			t.Errorf("%s: expected absent", k)
		}
	}
	sv = reflect.ValueOf(&sample{D: []int{}}).Elem()
	if _, ok := Get(sv, mustLookup(t, p, "D")); ok {
		t.Fatalf("empty omitempty slice must be absent")
	}
}

func TestAssign(t *testing.T) {
	var s sample
	sv := reflect.ValueOf(&s).Elem()
	p, _ := Build(reflect.TypeOf((*sample)(nil)).Elem(), reflect.TypeOf((*embedded)(nil)).Elem())

	steps := []struct {
		key string
		val any
	}{
		{"a", "x"},
		{"bee", json.Number("42")},
		{"c", 1.5},
		{"D", []any{1, 2.0, json.Number("3")}},
		{"e", map[string]any{"p": 7}},
	}
	for _, st := range steps {
		if err := Set(sv, mustLookup(t, p, st.key), st.val); err != nil {
			t.Fatalf("set %s: %v", st.key, err)
		}
	}
	c := 1.5
	want := sample{A: "x", B: 42, C: &c, D: []int{1, 2, 3}, E: map[string]uint16{"p": 7}}
	if diff := cmp.Diff(want, s, cmp.AllowUnexported(sample{}, embedded{})); diff != "" {
		t.Fatalf("assign mismatch (-want +got):\n%s", diff)
	}

	if err := Set(sv, mustLookup(t, p, "a"), 3); err == nil {
		t.Fatalf("expected error assigning a number to a string")
	}
	if err := Set(sv, mustLookup(t, p, "D"), []any{"no"}); err == nil {
		t.Fatalf("expected error for element mismatch")
	}

	type holder struct{ V time.Time }
	var h holder
	now := time.Now()
	if err := Assign(reflect.ValueOf(&h).Elem().Field(0), &now); err != nil {
		t.Fatalf("assign pointer to value: %v", err)
	}
	if !h.V.Equal(now) {
		t.Fatalf("pointer was not dereferenced")
	}
}

func TestCompatible(t *testing.T) {
	type child struct{ N int }
	cases := []struct {
		from, to reflect.Type
		want     bool
	}{
		{reflect.TypeOf((*string)(nil)).Elem(), reflect.TypeOf((*string)(nil)).Elem(), true},
		{reflect.TypeOf((*int)(nil)).Elem(), reflect.TypeOf((*int64)(nil)).Elem(), true},
		{reflect.TypeOf((*float64)(nil)).Elem(), reflect.TypeOf((**int)(nil)).Elem(), true},
		{reflect.TypeOf((*int)(nil)).Elem(), reflect.TypeOf((*any)(nil)).Elem(), true},
		{reflect.TypeOf((*[]any)(nil)).Elem(), reflect.TypeOf((*[]string)(nil)).Elem(), true},
		{reflect.TypeOf((*map[string]any)(nil)).Elem(), reflect.TypeOf((*map[string]int)(nil)).Elem(), true},
		{reflect.TypeOf((**child)(nil)).Elem(), reflect.TypeOf((*child)(nil)).Elem(), true},
		{reflect.TypeOf((**child)(nil)).Elem(), reflect.TypeOf((**child)(nil)).Elem(), true},
		{reflect.TypeOf((*time.Duration)(nil)).Elem(), reflect.TypeOf((*int64)(nil)).Elem(), true},
		{reflect.TypeOf((*string)(nil)).Elem(), reflect.TypeOf((*int)(nil)).Elem(), false},
		{reflect.TypeOf((*time.Time)(nil)).Elem(), reflect.TypeOf((*string)(nil)).Elem(), false},
		{reflect.TypeOf((*[]any)(nil)).Elem(), reflect.TypeOf((*map[string]any)(nil)).Elem(), false},
		{reflect.TypeOf((*bool)(nil)).Elem(), reflect.TypeOf((*fmtStringer)(nil)).Elem(), false},
	}
	for _, c := range cases {
		if got := Compatible(c.from, c.to); got != c.want {
			t.Errorf("Compatible(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

type fmtStringer interface{ String() string }

func mustLookup(t *testing.T, p *Plan, key string) Field {
	t.Helper()
	f, ok := p.Lookup(key)
	if !ok {
		t.Fatalf("no field for %q", key)
	}
	return f
}

func TestPrimitive(t *testing.T) {
	type color string
	cases := []struct {
		t    reflect.Type
		want bool
	}{
		{reflect.TypeOf((*string)(nil)).Elem(), true},
		{reflect.TypeOf((*int8)(nil)).Elem(), true},
		{reflect.TypeOf((*float64)(nil)).Elem(), true},
		{reflect.TypeOf((*bool)(nil)).Elem(), true},
		{reflect.TypeOf((*any)(nil)).Elem(), true},
		{reflect.TypeOf((*json.Number)(nil)).Elem(), true},
		{reflect.TypeOf((*[]string)(nil)).Elem(), true},
		{reflect.TypeOf((*map[string][]any)(nil)).Elem(), true},
		{reflect.TypeOf((*color)(nil)).Elem(), false},
		{reflect.TypeOf((*time.Time)(nil)).Elem(), false},
		{reflect.TypeOf((*time.Duration)(nil)).Elem(), false},
		{reflect.TypeOf((**string)(nil)).Elem(), false},
		{reflect.TypeOf((*map[int]string)(nil)).Elem(), false},
		{reflect.TypeOf((*[]time.Time)(nil)).Elem(), false},
		{reflect.TypeOf((*fmtStringer)(nil)).Elem(), false},
	}
	for _, c := range cases {
		if got := Primitive(c.t); got != c.want {
			t.Errorf("Primitive(%v) = %v, want %v", c.t, got, c.want)
		}
	}
}
