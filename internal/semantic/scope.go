package semantic

import "typefence/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeModule             // file top level
	ScopeClass              // class body
	ScopeFunction           // function or lambda body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Scope models a lexical region with a parent-child hierarchy.
//
// For class scopes, Bases and Decorators carry the fully-qualified dotted
// paths the binder resolved for the class's base-class expressions and
// decorators (decorator calls unwrapped to their callee). Unresolvable
// expressions are omitted.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Span     source.Span
	Bindings []BindingID
	Children []ScopeID

	Bases      []string
	Decorators []string

	nameIndex map[source.StringID]BindingID
}

// Lookup returns the binding bound to name in this scope, or NoBindingID.
func (s *Scope) Lookup(name source.StringID) BindingID {
	if s.nameIndex == nil {
		return NoBindingID
	}
	return s.nameIndex[name]
}
