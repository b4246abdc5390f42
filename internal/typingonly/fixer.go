package typingonly

import (
	"errors"
	"fmt"
	"strings"

	"typefence/internal/diag"
	"typefence/internal/imports"
	"typefence/internal/semantic"
	"typefence/internal/source"
)

// SynthesizeFix builds the shared fix for one actionable group: removal of
// the moved members from their runtime import, insertion behind a
// TYPE_CHECKING guard anchored before the group's earliest use-site, and
// quoting of every runtime-evaluated reference. Any failure means the
// group's diagnostics go out without a fix.
func SynthesizeFix(m *semantic.Model, f *source.File, group *Group) (*diag.Fix, error) {
	if len(group.Actionable) == 0 {
		return nil, errors.New("no actionable candidates")
	}
	stmt := m.Stmt(group.Key.Stmt)
	if stmt == nil {
		return nil, fmt.Errorf("unknown import statement %d", group.Key.Stmt)
	}

	anchor := group.Actionable[0].FirstRef.Start
	remove := make(map[semantic.BindingID]bool, len(group.Actionable))
	members := make([]semantic.BindingID, 0, len(group.Actionable))
	names := make([]string, 0, len(group.Actionable))
	for _, cand := range group.Actionable {
		if cand.FirstRef.Start < anchor {
			anchor = cand.FirstRef.Start
		}
		remove[cand.Binding] = true
		members = append(members, cand.Binding)
		names = append(names, m.BindingName(m.Binding(cand.Binding)))
	}

	removal, err := imports.RemoveMembers(f, m, group.Key.Stmt, remove)
	if err != nil {
		return nil, err
	}
	insertion, err := imports.InsertTypingGuard(f, m, group.Key.Stmt, members, anchor)
	if err != nil {
		return nil, err
	}

	edits := make([]diag.TextEdit, 0, len(insertion)+1)
	edits = append(edits, removal)
	edits = append(edits, insertion...)

	// A binding can be typing-only overall yet still appear in annotations
	// the interpreter evaluates. Those references must become string
	// forward references once the import moves behind the guard.
	var quotes []diag.TextEdit
	for _, cand := range group.Actionable {
		b := m.Binding(cand.Binding)
		if b == nil {
			continue
		}
		for _, id := range b.Refs {
			if r := m.Ref(id); r != nil && r.IsRuntimeContext() {
				quotes = append(quotes, QuoteAnnotation(f, r.Span, m.QuoteChar))
			}
		}
	}
	edits = append(edits, pruneNestedQuoteEdits(quotes)...)

	isolation := stmt.Parent
	if isolation.Empty() {
		isolation = stmt.Span
	}
	return &diag.Fix{
		ID:            fmt.Sprintf("typefence.move-import/%d/%s", group.Key.Stmt, group.Key.Category),
		Title:         "Move into type-checking block: " + strings.Join(names, ", "),
		Kind:          diag.FixKindRefactorRewrite,
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		Isolation:     isolation,
		Edits:         edits,
	}, nil
}

// pruneNestedQuoteEdits drops quote edits whose span sits inside a sibling's.
// Quoting an outer subscript already embeds the inner name in the quoted
// text; the contained edit would only conflict at apply time.
func pruneNestedQuoteEdits(edits []diag.TextEdit) []diag.TextEdit {
	if len(edits) < 2 {
		return edits
	}
	out := make([]diag.TextEdit, 0, len(edits))
	for i, e := range edits {
		nested := false
		for j, other := range edits {
			if i == j || e.Span.File != other.Span.File {
				continue
			}
			wider := other.Span.End-other.Span.Start > e.Span.End-e.Span.Start
			if wider && other.Span.Start <= e.Span.Start && e.Span.End <= other.Span.End {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, e)
		}
	}
	return out
}
