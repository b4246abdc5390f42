package diag

import (
	"typefence/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the central record produced by analysis phases.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Parent points at the start of the enclosing statement when the
	// primary span is nested (e.g. one name inside a from-import list).
	// Zero when absent.
	Parent source.Span
	Notes  []Note
	Fixes  []*Fix
}

// WithFix appends a materialized fix with default metadata.
func (d Diagnostic) WithFix(title string, edits ...TextEdit) Diagnostic {
	d.Fixes = append(d.Fixes, &Fix{
		Title:         title,
		Kind:          FixKindQuickFix,
		Applicability: FixApplicabilityAlwaysSafe,
		Edits:         edits,
	})
	return d
}

// WithFixSuggestion appends a configured fix (materialized or lazy).
func (d Diagnostic) WithFixSuggestion(fix *Fix) Diagnostic {
	if fix != nil {
		d.Fixes = append(d.Fixes, fix)
	}
	return d
}
