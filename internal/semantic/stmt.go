package semantic

import "typefence/internal/source"

// StmtKind distinguishes the two import statement forms.
type StmtKind uint8

const (
	StmtImport     StmtKind = iota // import a, b.c as d
	StmtImportFrom                 // from x import a, b as c
)

func (k StmtKind) String() string {
	if k == StmtImportFrom {
		return "import-from"
	}
	return "import"
}

// ImportStmt is one import statement as it appears in source.
type ImportStmt struct {
	Kind StmtKind
	// Span covers the whole statement, colon to end of the last member.
	Span source.Span
	// Parent covers the innermost enclosing compound statement, when the
	// import is nested (inside `if`, `try`, a function body). Zero at the
	// top level.
	Parent source.Span
	// Module is the source module of a from-import, without leading dots.
	// Empty for plain imports.
	Module string
	// Level counts leading dots of a relative from-import.
	Level uint32
	// Members lists the bindings this statement introduced, in source order.
	Members []BindingID
}

// HasParent reports whether the statement is nested inside a compound
// statement.
func (s *ImportStmt) HasParent() bool {
	return s.Parent.End > s.Parent.Start
}
