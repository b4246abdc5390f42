package typingonly

import "typefence/internal/semantic"

// IsRuntimeNecessary reports whether a binding must stay importable when the
// program runs: it is an import declared outside any type-checking guard and
// at least one of its use-sites is a plain runtime use.
//
// The resulting set of confirmed runtime imports also drives implicit-import
// suppression: a typing-only sibling of a module that is loaded anyway is
// not worth flagging.
func IsRuntimeNecessary(m *semantic.Model, b *semantic.Binding) bool {
	if b == nil || !b.Kind.IsImport() || b.InTypeCheckingBlock {
		return false
	}
	for _, id := range b.Refs {
		if r := m.Ref(id); r != nil && !r.IsTypingOnly() {
			return true
		}
	}
	return false
}

// ClassRequiresRuntimeImport reports whether a class scope needs its
// annotation imports live at runtime because of its ancestry or decoration.
// Base-class and decorator expressions arrive already resolved to dotted
// paths, with decorator calls unwrapped to their callee.
func ClassRequiresRuntimeImport(scope *semantic.Scope, baseClasses, decorators []string) bool {
	if scope == nil || scope.Kind != semantic.ScopeClass {
		return false
	}
	for _, base := range scope.Bases {
		for _, want := range baseClasses {
			if base == want {
				return true
			}
		}
	}
	for _, dec := range scope.Decorators {
		for _, want := range decorators {
			if dec == want {
				return true
			}
		}
	}
	return false
}
