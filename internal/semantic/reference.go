package semantic

import "typefence/internal/source"

// RefFlags records the execution context of a use-site.
type RefFlags uint8

const (
	// RefInTypeCheckingBlock marks references inside an `if TYPE_CHECKING:` body.
	RefInTypeCheckingBlock RefFlags = 1 << iota
	// RefInTypingOnlyAnnotation marks references inside an annotation that is
	// never evaluated at runtime (e.g. under `from __future__ import annotations`
	// or inside a function signature on modern targets).
	RefInTypingOnlyAnnotation
	// RefInRuntimeEvaluatedAnnotation marks references inside an annotation the
	// interpreter evaluates but whose value is only consumed by type tooling.
	// These are safe to rewrite into string forward references.
	RefInRuntimeEvaluatedAnnotation
	// RefInSimpleStringAnnotation marks references inside a string annotation
	// that is a single quoted expression.
	RefInSimpleStringAnnotation
	// RefInComplexStringAnnotation marks references inside a string annotation
	// composed with other expressions (e.g. `"List[" + name + "]"`).
	RefInComplexStringAnnotation
)

// Reference is one use-site of a binding.
type Reference struct {
	Span  source.Span
	Scope ScopeID
	Flags RefFlags
}

// IsTypingOnly reports whether this use-site never requires the bound value
// at runtime. A reference with no flags set is a plain runtime use.
func (r *Reference) IsTypingOnly() bool {
	return r.Flags != 0
}

// IsRuntimeContext reports whether the reference text is evaluated when the
// program runs. Runtime-evaluated annotations count: they qualify as
// typing-only overall, yet still need quoting when their import moves behind
// a type-checking guard.
func (r *Reference) IsRuntimeContext() bool {
	const deferred = RefInTypeCheckingBlock |
		RefInTypingOnlyAnnotation |
		RefInSimpleStringAnnotation |
		RefInComplexStringAnnotation
	return r.Flags&deferred == 0
}
