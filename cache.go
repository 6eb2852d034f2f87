package skemabind

import "reflect"

// MarkValid records that m passed validation. Subsequent Validate calls skip
// all field checks until MarkInvalid is called.
func MarkValid(m Model) {
	if b := baseOf(m); b != nil {
		b.valid = true
	}
}

// MarkInvalid clears the validity flag of m. Callers must invoke it after
// mutating m in a way that could violate the schema; no change detection is
// performed.
func MarkInvalid(m Model) {
	if b := baseOf(m); b != nil {
		b.valid = false
	}
}

// IsValid reports whether m carries a set validity flag. A nil model is
// never valid.
func IsValid(m Model) bool {
	b := baseOf(m)
	return b != nil && b.valid
}

func baseOf(m Model) *Base {
	if m == nil {
		return nil
	}
	if rv := reflect.ValueOf(m); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	return m.modelBase()
}
