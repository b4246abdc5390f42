package typingonly

import (
	"strings"

	"typefence/internal/pycat"
	"typefence/internal/semantic"
	"typefence/internal/source"
)

// Candidate is one import binding found to be typing-only.
type Candidate struct {
	// QualifiedName is the imported object's dotted path, leading dots
	// included for relative imports.
	QualifiedName string
	Binding       semantic.BindingID
	Stmt          semantic.StmtID
	Category      pycat.Category
	// Span covers the bound name inside the import statement.
	Span source.Span
	// Parent covers the innermost compound statement enclosing the import,
	// zero when the import sits at the top level.
	Parent source.Span
	// FirstRef is the earliest use-site, the anchor the synthesized guard
	// must precede.
	FirstRef source.Span
}

// Detect walks one scope's bindings in source order and returns the
// typing-only import candidates.
func Detect(m *semantic.Model, scopeID semantic.ScopeID, cls *pycat.Classifier, st *Settings) []Candidate {
	scope := m.Scope(scopeID)
	if scope == nil {
		return nil
	}

	// Modules confirmed loaded at runtime, by top-level name. Used for
	// implicit-import suppression below.
	runtimeModules := make(map[string]bool)
	if !st.Strict {
		for _, id := range scope.Bindings {
			if b := m.Binding(id); IsRuntimeNecessary(m, b) {
				runtimeModules[b.ModuleName()] = true
			}
		}
	}

	var out []Candidate
	for _, id := range scope.Bindings {
		b := m.Binding(id)
		if b == nil || !b.Kind.IsImport() || b.InTypeCheckingBlock {
			continue
		}
		// Importing any other member of this module already keeps it
		// loaded at runtime, so deferring this one buys nothing. The
		// comparison is deliberately on top-level names only.
		if !st.Strict && runtimeModules[b.ModuleName()] {
			continue
		}
		if IsExempt(b.QualifiedName, st.ExemptModules) {
			continue
		}
		if !typingOnly(m, b) {
			continue
		}
		first := m.FirstRef(b)
		if first == nil {
			continue
		}

		level := b.Level()
		name := strings.TrimLeft(b.QualifiedName, ".")
		cat := cls.Categorize(name, level).Category()
		if cat == pycat.CategoryFuture {
			continue
		}
		if !st.CategoryEnabled(cat) {
			continue
		}

		cand := Candidate{
			QualifiedName: b.QualifiedName,
			Binding:       id,
			Stmt:          b.Stmt,
			Category:      cat,
			Span:          b.Span,
			FirstRef:      first.Span,
		}
		if stmt := m.Stmt(b.Stmt); stmt != nil && stmt.HasParent() {
			cand.Parent = stmt.Parent
		}
		out = append(out, cand)
	}
	return out
}

// DetectAll runs Detect over every scope of the model, preserving scope
// allocation order so output stays deterministic.
func DetectAll(m *semantic.Model, cls *pycat.Classifier, st *Settings) []Candidate {
	var out []Candidate
	for _, id := range m.Scopes() {
		out = append(out, Detect(m, id, cls, st)...)
	}
	return out
}

// typingOnly reports whether every use-site of the binding can be deferred
// behind a type-checking guard.
func typingOnly(m *semantic.Model, b *semantic.Binding) bool {
	if len(b.Refs) == 0 {
		return false
	}
	for _, id := range b.Refs {
		r := m.Ref(id)
		if r == nil || !r.IsTypingOnly() {
			return false
		}
	}
	return true
}
