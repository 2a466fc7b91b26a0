package runtime

// ---------------------------------------------------------------------------
// Visibility and call-type enumerations
// ---------------------------------------------------------------------------

// Visibility is the method visibility recorded on a frame.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
	VisibilityModuleFunction
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	case VisibilityModuleFunction:
		return "module_function"
	}
	return "unknown"
}

// CallType classifies how the last dispatch was made. Builtins that care about
// receiver-less calls (super, functional calls) read this back.
type CallType int

const (
	CallTypeNormal CallType = iota
	CallTypeFunctional
	CallTypeSuper
	CallTypeVariable
)

func (c CallType) String() string {
	switch c {
	case CallTypeNormal:
		return "normal"
	case CallTypeFunctional:
		return "functional"
	case CallTypeSuper:
		return "super"
	case CallTypeVariable:
		return "variable"
	}
	return "unknown"
}
