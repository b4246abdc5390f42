package semantic

import (
	"fmt"

	"fortio.org/safecast"

	"typefence/internal/source"
)

// Model is the fully built semantic view of one file: scopes, bindings and
// use-sites, all cross-linked by arena IDs. It is read-only once the binder
// returns it.
type Model struct {
	File source.FileID

	scopes   []Scope
	bindings []Binding
	refs     []Reference
	stmts    []ImportStmt

	// FutureAnnotations is set when the file has
	// `from __future__ import annotations`.
	FutureAnnotations bool
	// HasTypeCheckingImport is set when TYPE_CHECKING is already reachable
	// in the file (imported from typing or bound to an alias).
	HasTypeCheckingImport bool
	// TypeCheckingBlocks lists spans of existing `if TYPE_CHECKING:` bodies.
	TypeCheckingBlocks []source.Span
	// QuoteChar is the quote style dominant in the file, used when
	// synthesizing forward-reference strings. Defaults to '"'.
	QuoteChar byte

	Interner     *source.Interner
	Suppressions *SuppressionIndex
}

// NewModel creates an empty model with arena sentinels in place.
func NewModel(file source.FileID, interner *source.Interner) *Model {
	return &Model{
		File:         file,
		scopes:       make([]Scope, 1, 16),
		bindings:     make([]Binding, 1, 64),
		refs:         make([]Reference, 1, 128),
		stmts:        make([]ImportStmt, 1, 16),
		QuoteChar:    '"',
		Interner:     interner,
		Suppressions: NewSuppressionIndex(),
	}
}

func arenaIndex(n int, what string) uint32 {
	value, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", what, err))
	}
	return value
}

// NewScope allocates a scope and links it under its parent.
func (m *Model) NewScope(kind ScopeKind, parent ScopeID, span source.Span) ScopeID {
	id := ScopeID(arenaIndex(len(m.scopes), "scope"))
	m.scopes = append(m.scopes, Scope{
		Kind:      kind,
		Parent:    parent,
		Span:      span,
		nameIndex: make(map[source.StringID]BindingID),
	})
	if p := m.Scope(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// NewBinding allocates a binding, records it in its scope's source-order
// list, and indexes it by name. A later binding of the same name shadows the
// earlier one in the index; the list keeps both.
func (m *Model) NewBinding(b Binding) BindingID {
	id := BindingID(arenaIndex(len(m.bindings), "binding"))
	m.bindings = append(m.bindings, b)
	if s := m.Scope(b.Scope); s != nil {
		s.Bindings = append(s.Bindings, id)
		s.nameIndex[b.Name] = id
	}
	return id
}

// NewRef allocates a use-site and attaches it to its binding.
func (m *Model) NewRef(binding BindingID, r Reference) RefID {
	id := RefID(arenaIndex(len(m.refs), "reference"))
	m.refs = append(m.refs, r)
	if b := m.Binding(binding); b != nil {
		b.Refs = append(b.Refs, id)
	}
	return id
}

// NewStmt allocates an import statement record.
func (m *Model) NewStmt(s ImportStmt) StmtID {
	id := StmtID(arenaIndex(len(m.stmts), "statement"))
	m.stmts = append(m.stmts, s)
	return id
}

// Scope returns the scope pointer or nil for an invalid ID.
func (m *Model) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(m.scopes) {
		return nil
	}
	return &m.scopes[id]
}

// Binding returns the binding pointer or nil for an invalid ID.
func (m *Model) Binding(id BindingID) *Binding {
	if !id.IsValid() || int(id) >= len(m.bindings) {
		return nil
	}
	return &m.bindings[id]
}

// Ref returns the reference pointer or nil for an invalid ID.
func (m *Model) Ref(id RefID) *Reference {
	if !id.IsValid() || int(id) >= len(m.refs) {
		return nil
	}
	return &m.refs[id]
}

// Stmt returns the statement pointer or nil for an invalid ID.
func (m *Model) Stmt(id StmtID) *ImportStmt {
	if !id.IsValid() || int(id) >= len(m.stmts) {
		return nil
	}
	return &m.stmts[id]
}

// ModuleScope returns the ID of the file's top-level scope, the first one
// allocated by the binder.
func (m *Model) ModuleScope() ScopeID {
	if len(m.scopes) <= 1 {
		return NoScopeID
	}
	return ScopeID(1)
}

// Scopes iterates all scope IDs in allocation order.
func (m *Model) Scopes() []ScopeID {
	out := make([]ScopeID, 0, len(m.scopes)-1)
	for i := 1; i < len(m.scopes); i++ {
		out = append(out, ScopeID(arenaIndex(i, "scope")))
	}
	return out
}

// BindingName resolves a binding's interned name to its text.
func (m *Model) BindingName(b *Binding) string {
	if b == nil || m.Interner == nil {
		return ""
	}
	name, _ := m.Interner.Lookup(b.Name)
	return name
}

// FirstRef returns the earliest use-site of a binding, or nil when the
// binding has none.
func (m *Model) FirstRef(b *Binding) *Reference {
	if b == nil || len(b.Refs) == 0 {
		return nil
	}
	first := m.Ref(b.Refs[0])
	for _, id := range b.Refs[1:] {
		if r := m.Ref(id); r != nil && (first == nil || r.Span.Start < first.Span.Start) {
			first = r
		}
	}
	return first
}
