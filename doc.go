// Package skemabind binds declarative schemas to Go model types.
//
// A Schema is a named set of fields, each backed by a FieldValidator. Bind
// attaches a schema to a struct type embedding Base and returns a Binding
// with the operations of the model:
//
//   - ToMapping / ToMappingMany serialize instances into mappings.
//   - FromMapping / FromMappingMany validate mappings and construct instances.
//   - Validate checks an instance, and caches success in its validity flag.
//   - Invalidate clears that flag after a mutation.
//
// Keys the schema does not declare are preserved: they are loaded into
// undeclared struct fields or the Base extra-fields container, and merged
// back on serialization, so a load followed by a dump is lossless.
//
// Validation of an instance runs as a session carried by its context. Within
// a session, dumping an instance that is already valid yields ValidModel
// instead of walking its fields, and loading ValidModel returns it unchanged.
// This keeps revalidation of nested models proportional to what changed.
//
// Design policy:
//   - Keep only public APIs in the root package; put struct layout handling under internal/.
//   - Place field validators under dsl/, encodings under format/, and the CLI under cmd/skemabind.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	type Person struct {
//		skemabind.Base
//		Name string `json:"name"`
//		Age  int    `json:"age"`
//	}
//
//	s := dsl.Object().
//		Field("name", dsl.String().Required()).
//		Field("age", dsl.Int().Min(0)).
//		MustBuild("person")
//	b := skemabind.MustBind[Person](s)
//
//	p, err := b.FromMapping(ctx, map[string]any{"name": "ann", "age": 3, "nick": "a"})
//	m, err := b.ToMapping(ctx, p) // nick survives
package skemabind
