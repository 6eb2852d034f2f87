package skemabind

import (
	"reflect"

	"github.com/reoring/skemabind/internal/plan"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// external key used by schemas and mappings.
// Priority: skemabind:"name=..." > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string { return plan.ResolveKey(sf) }

var (
	_baseType  = reflect.TypeOf(Base{})
	_modelType = reflect.TypeOf((*Model)(nil)).Elem()
)
