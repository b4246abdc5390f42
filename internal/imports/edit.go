// Package imports builds text edits over Python import statements: removing
// members from a statement and inserting members into a type-checking
// guarded block. It works from the semantic model's statement records and
// regenerates statement text rather than patching substrings.
package imports

import (
	"errors"
	"fmt"
	"strings"

	"typefence/internal/diag"
	"typefence/internal/semantic"
	"typefence/internal/source"
)

// ErrNestedStatement marks imports inside compound statements, which the
// edit builders do not rewrite.
var ErrNestedStatement = errors.New("import statement is nested")

// ErrNoAnchor marks a guard insertion point that would land after the first
// use of a moved symbol.
var ErrNoAnchor = errors.New("no insertion point before first reference")

// RemoveMembers deletes the given member bindings from their import
// statement. When every member goes, the statement's whole lines are
// removed; otherwise the statement is regenerated without them.
func RemoveMembers(f *source.File, m *semantic.Model, stmtID semantic.StmtID, remove map[semantic.BindingID]bool) (diag.TextEdit, error) {
	stmt := m.Stmt(stmtID)
	if stmt == nil {
		return diag.TextEdit{}, fmt.Errorf("unknown import statement %d", stmtID)
	}
	if stmt.HasParent() {
		return diag.TextEdit{}, ErrNestedStatement
	}

	var keep []semantic.BindingID
	for _, id := range stmt.Members {
		if !remove[id] {
			keep = append(keep, id)
		}
	}

	if len(keep) == 0 {
		start := f.LineStart(stmt.Span.Start)
		end := f.LineEnd(stmt.Span.End - 1)
		span := source.Span{File: stmt.Span.File, Start: start, End: end}
		return diag.TextEdit{Span: span, OldText: f.Slice(span)}, nil
	}

	text, err := Render(m, stmt, keep)
	if err != nil {
		return diag.TextEdit{}, err
	}
	return diag.TextEdit{Span: stmt.Span, NewText: text, OldText: f.Slice(stmt.Span)}, nil
}

// InsertTypingGuard inserts an import of the given members behind a
// TYPE_CHECKING guard. An existing guard block is extended when it precedes
// the anchor; otherwise a fresh block is created right after the owning
// statement's line, importing TYPE_CHECKING first if the file does not have
// it yet. The anchor is the earliest use-site of any moved symbol; the
// inserted import must precede it.
func InsertTypingGuard(f *source.File, m *semantic.Model, stmtID semantic.StmtID, members []semantic.BindingID, anchor uint32) ([]diag.TextEdit, error) {
	stmt := m.Stmt(stmtID)
	if stmt == nil {
		return nil, fmt.Errorf("unknown import statement %d", stmtID)
	}
	if stmt.HasParent() {
		return nil, ErrNestedStatement
	}
	text, err := Render(m, stmt, members)
	if err != nil {
		return nil, err
	}

	for _, block := range m.TypeCheckingBlocks {
		if block.Empty() || block.End > anchor {
			continue
		}
		off := f.LineEnd(block.End - 1)
		if off > anchor {
			continue
		}
		indent := blockIndent(f, block)
		at := source.Span{File: block.File, Start: off, End: off}
		return []diag.TextEdit{{Span: at, NewText: indent + text + "\n"}}, nil
	}

	off := f.LineEnd(stmt.Span.End - 1)
	if off > anchor {
		return nil, ErrNoAnchor
	}
	var sb strings.Builder
	if !m.HasTypeCheckingImport {
		sb.WriteString("from typing import TYPE_CHECKING\n\n")
	}
	sb.WriteString("if TYPE_CHECKING:\n    ")
	sb.WriteString(text)
	sb.WriteString("\n")
	at := source.Span{File: stmt.Span.File, Start: off, End: off}
	return []diag.TextEdit{{Span: at, NewText: sb.String()}}, nil
}

// Render regenerates an import statement's text for the given subset of its
// members, preserving aliases and relative-import dots.
func Render(m *semantic.Model, stmt *semantic.ImportStmt, members []semantic.BindingID) (string, error) {
	if len(members) == 0 {
		return "", errors.New("no members to render")
	}
	var sb strings.Builder
	if stmt.Kind == semantic.StmtImportFrom {
		sb.WriteString("from ")
		sb.WriteString(strings.Repeat(".", int(stmt.Level)))
		sb.WriteString(stmt.Module)
		sb.WriteString(" import ")
	} else {
		sb.WriteString("import ")
	}
	for i, id := range members {
		b := m.Binding(id)
		if b == nil {
			return "", fmt.Errorf("unknown member binding %d", id)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		alias := m.BindingName(b)
		if stmt.Kind == semantic.StmtImportFrom {
			name := importedName(b)
			sb.WriteString(name)
			if alias != "" && alias != name {
				sb.WriteString(" as ")
				sb.WriteString(alias)
			}
		} else {
			sb.WriteString(b.QualifiedName)
			if b.Kind == semantic.BindingImport && alias != "" && alias != b.QualifiedName {
				sb.WriteString(" as ")
				sb.WriteString(alias)
			}
		}
	}
	return sb.String(), nil
}

// importedName is the member name as written after `import`, the last
// dotted segment of the qualified path.
func importedName(b *semantic.Binding) string {
	name := strings.TrimLeft(b.QualifiedName, ".")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// blockIndent infers the body indentation of a guard block from its first
// statement's line.
func blockIndent(f *source.File, block source.Span) string {
	ls := f.LineStart(block.Start)
	prefix := f.Slice(source.Span{File: block.File, Start: ls, End: block.Start})
	for i := 0; i < len(prefix); i++ {
		if prefix[i] != ' ' && prefix[i] != '\t' {
			return "    "
		}
	}
	if prefix == "" {
		return "    "
	}
	return prefix
}
