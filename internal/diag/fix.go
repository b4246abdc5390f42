package diag

import (
	"fmt"

	"typefence/internal/source"
)

// TextEdit replaces the text covered by Span with NewText. OldText is an
// optional guard: when non-empty, the fix engine validates the current
// content before applying the edit.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind is a coarse classification of a fix.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability is the confidence level of a fix.
type FixApplicability uint8

const (
	// FixApplicabilityAlwaysSafe marks fixes that can be applied blindly.
	FixApplicabilityAlwaysSafe FixApplicability = iota
	// FixApplicabilitySafeWithHeuristics marks suggested fixes that are
	// correct under heuristics and deserve a look after applying.
	FixApplicabilitySafeWithHeuristics
	// FixApplicabilityManualReview marks fixes that need human review.
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "suggested"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// FixBuildContext carries what a lazy fix builder may need.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds edits on demand, when they are expensive to construct
// eagerly for every diagnostic.
type FixThunk func(ctx FixBuildContext) ([]TextEdit, error)

// Fix represents a possible automated correction. Data-only; the fix
// engine and formatters materialize and apply it.
type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	// RequiresAll marks fixes that only make sense when every sibling
	// fix in the same group is applied together.
	RequiresAll bool
	// Isolation keys fixes that must not be combined with other fixes
	// touching the same enclosing region. Zero span disables isolation.
	Isolation source.Span
	Edits     []TextEdit
	Thunk     FixThunk
}

// Resolve returns a copy of the fix with Edits populated, invoking the
// thunk when present.
func (f *Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	resolved := *f
	resolved.Thunk = nil
	if f.Thunk == nil {
		return resolved, nil
	}
	edits, err := f.Thunk(ctx)
	if err != nil {
		return resolved, fmt.Errorf("build fix %q: %w", f.Title, err)
	}
	resolved.Edits = edits
	return resolved, nil
}

// MaterializeFixes resolves every fix, expanding lazy thunks. The first
// build error aborts materialization.
func MaterializeFixes(ctx FixBuildContext, fixes []*Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		if f == nil {
			continue
		}
		resolved, err := f.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}
