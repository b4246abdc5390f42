// Package typingonly finds imports a file only ever uses in type
// annotations and rewrites them to load behind a TYPE_CHECKING guard, with
// runtime-evaluated annotation references converted to string forward
// references.
package typingonly

import (
	"fmt"

	"typefence/internal/diag"
	"typefence/internal/pycat"
	"typefence/internal/semantic"
	"typefence/internal/source"
)

// Check runs the full analysis over one file's model and reports one
// diagnostic per typing-only import. Candidates sharing an import statement
// and category share one fix; suppressed candidates report without one.
func Check(m *semantic.Model, fs *source.FileSet, cls *pycat.Classifier, st *Settings, r diag.Reporter) {
	cands := DetectAll(m, cls, st)
	groups := GroupCandidates(m, fs, cands)
	f := fs.Get(m.File)

	for i := range groups {
		g := &groups[i]
		var shared *diag.Fix
		if len(g.Actionable) > 0 {
			if fix, err := SynthesizeFix(m, f, g); err == nil {
				shared = fix
			}
		}
		for _, cand := range g.Actionable {
			emitCandidate(m, r, cand, shared)
		}
		for _, cand := range g.Suppressed {
			emitCandidate(m, r, cand, nil)
		}
	}

	checkRuntimeUseInGuard(m, r)
}

func emitCandidate(m *semantic.Model, r diag.Reporter, cand Candidate, fix *diag.Fix) {
	msg := fmt.Sprintf("Move %s import `%s` into a type-checking block",
		categoryLabel(cand.Category), cand.QualifiedName)
	rb := diag.ReportWarning(r, CategoryCode(cand.Category), cand.Span, msg)
	if !cand.Parent.Empty() {
		rb.WithParent(cand.Parent)
	}
	if fix != nil {
		rb.WithFixSuggestion(fix)
	}
	rb.Emit()
}

// checkRuntimeUseInGuard flags the inverse defect: an import declared inside
// a TYPE_CHECKING block whose binding is used at runtime. No fix; moving the
// import out needs a human eye on why the guard was there.
func checkRuntimeUseInGuard(m *semantic.Model, r diag.Reporter) {
	for _, sid := range m.Scopes() {
		scope := m.Scope(sid)
		for _, id := range scope.Bindings {
			b := m.Binding(id)
			if b == nil || !b.Kind.IsImport() || !b.InTypeCheckingBlock {
				continue
			}
			for _, rid := range b.Refs {
				ref := m.Ref(rid)
				if ref == nil || ref.IsTypingOnly() {
					continue
				}
				msg := fmt.Sprintf("Import `%s` is guarded by TYPE_CHECKING but used at runtime",
					b.QualifiedName)
				diag.ReportWarning(r, diag.TypRuntimeImportInTypeCheckBlock, b.Span, msg).
					WithNote(ref.Span, "first runtime use here").
					Emit()
				break
			}
		}
	}
}

func categoryLabel(cat pycat.Category) string {
	switch cat {
	case pycat.CategoryFirstParty:
		return "first-party"
	case pycat.CategoryThirdParty:
		return "third-party"
	case pycat.CategoryStandardLibrary:
		return "standard-library"
	default:
		return cat.String()
	}
}
