package skemabind

// UnknownPolicy controls how undeclared keys are handled.
type UnknownPolicy int

const (
	UnknownPreserve UnknownPolicy = iota // Carry unknown keys through dump and load verbatim.
	UnknownStrip                         // Drop unknown keys.
	UnknownStrict                        // Reject unknown keys with an issue.
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrip:
		return "strip"
	case UnknownStrict:
		return "strict"
	default:
		return "preserve"
	}
}

// ParseUnknownPolicy maps "preserve", "strip" and "strict" to a policy. The
// empty string selects UnknownPreserve.
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch s {
	case "", "preserve", "passthrough":
		return UnknownPreserve, true
	case "strip":
		return UnknownStrip, true
	case "strict":
		return UnknownStrict, true
	}
	return UnknownPreserve, false
}

// ReservedValidityKey names the storage slot of the validity flag. It is never
// serialized and never treated as an unknown key on load.
const ReservedValidityKey = "__is_valid__"
