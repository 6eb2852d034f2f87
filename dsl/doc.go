// Package dsl provides the field validators and the object builder used to
// declare skemabind schemas.
//
// Overview
//   - Primitives: String(), Int(), Float(), Bool(), Any(). Numbers are
//     normalized to int and float64; json.Number is accepted on input.
//   - Codecs: Time(), Duration() and FromCodec(wire, codec) for values whose
//     wire form differs from the model form.
//   - Collections: List(elem), MapOf(elem).
//   - Objects: Inline(schema) validates a nested mapping; Nested(schema)
//     holds an instance of the model bound to schema.
//   - Constraints chain on every field: Min/Max, MinLen/MaxLen, Pattern,
//     Enum, Expr (expr-lang over "value") and Refine.
//
// Entry points
//   - Object(): create a builder; chain Field(...).Required()/Default(...)
//     and Unknown*; finish with Build(name) or MustBuild(name).
//   - Rule(name, expr) and Refine(name, fn) add whole-object checks.
//
// Example
//
//	address := dsl.Object().
//		Field("city", dsl.String()).Required().
//		MustBuild("address")
//	skemabind.MustBind[Address](address)
//
//	person := dsl.Object().
//		Field("name", dsl.String().MinLen(1)).Required().
//		Field("age", dsl.Int().Min(0).Max(150)).Default(0).
//		Field("tags", dsl.List(dsl.String())).
//		Field("address", dsl.Nested(address)).Nullable().
//		Rule("adult_has_address", "age < 18 || address != nil").
//		MustBuild("person")
package dsl
