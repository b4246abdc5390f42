package semantic

import (
	"strings"

	"typefence/internal/source"
)

// BindingKind distinguishes how a name entered its scope.
type BindingKind uint8

const (
	BindingInvalid BindingKind = iota
	// BindingImport comes from `import x` or `import x.y as z`.
	BindingImport
	// BindingFromImport comes from `from x import y`.
	BindingFromImport
	// BindingSubmoduleImport comes from `import x.y` without an alias,
	// where the bound name is the top-level package `x`.
	BindingSubmoduleImport
	// BindingOther covers assignments, defs, classes, parameters and
	// anything else that can shadow an import.
	BindingOther
)

func (k BindingKind) String() string {
	switch k {
	case BindingImport:
		return "import"
	case BindingFromImport:
		return "from-import"
	case BindingSubmoduleImport:
		return "submodule-import"
	case BindingOther:
		return "other"
	default:
		return "invalid"
	}
}

// IsImport reports whether the binding was introduced by an import statement.
func (k BindingKind) IsImport() bool {
	return k == BindingImport || k == BindingFromImport || k == BindingSubmoduleImport
}

// Binding is a name introduced into a scope.
type Binding struct {
	Kind BindingKind
	// Name is the bound identifier as visible in the scope (the alias when
	// one is present), NFKC-normalized.
	Name source.StringID
	// QualifiedName is the full dotted path of the imported object,
	// including leading dots for relative imports ("..models.User").
	// Empty for BindingOther.
	QualifiedName string
	// Stmt is the owning import statement. NoStmtID for BindingOther.
	Stmt  StmtID
	Scope ScopeID
	// Span covers the name token that introduced the binding.
	Span source.Span
	// InTypeCheckingBlock is set when the declaration itself sits inside an
	// `if TYPE_CHECKING:` body.
	InTypeCheckingBlock bool
	// Refs lists use-sites in source order.
	Refs []RefID
}

// Level counts the leading dots of a relative import. Zero for absolute
// imports and non-import bindings.
func (b *Binding) Level() uint32 {
	var n uint32
	for i := 0; i < len(b.QualifiedName) && b.QualifiedName[i] == '.'; i++ {
		n++
	}
	return n
}

// ModuleName returns the first dotted segment of the qualified name, after
// any relative-import dots. Sibling imports of one module compare equal here
// even when they bind different members.
func (b *Binding) ModuleName() string {
	name := strings.TrimLeft(b.QualifiedName, ".")
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
