package imports

import (
	"strings"
	"testing"

	"typefence/internal/semantic"
	"typefence/internal/source"
)

const src = "from collections.abc import Sequence, Mapping\n" +
	"import numpy as np\n" +
	"\n" +
	"def f(xs: Sequence) -> Mapping:\n" +
	"    return np.zeros(1)\n"

type fixture struct {
	fs       *source.FileSet
	f        *source.File
	m        *semantic.Model
	fromStmt semantic.StmtID
	impStmt  semantic.StmtID
	seq      semantic.BindingID
	mapping  semantic.BindingID
	np       semantic.BindingID
}

func newFixture() *fixture {
	fs := source.NewFileSet()
	id := fs.AddVirtual("f.py", []byte(src))
	m := semantic.NewModel(id, source.NewInterner())
	mod := m.NewScope(semantic.ScopeModule, semantic.NoScopeID, source.Span{File: id, End: uint32(len(src))})

	fromStmt := m.NewStmt(semantic.ImportStmt{
		Kind: semantic.StmtImportFrom, Module: "collections.abc",
		Span: source.Span{File: id, Start: 0, End: 45},
	})
	seq := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingFromImport, Name: m.Interner.Intern("Sequence"),
		QualifiedName: "collections.abc.Sequence", Stmt: fromStmt, Scope: mod,
		Span: source.Span{File: id, Start: 28, End: 36},
	})
	mapping := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingFromImport, Name: m.Interner.Intern("Mapping"),
		QualifiedName: "collections.abc.Mapping", Stmt: fromStmt, Scope: mod,
		Span: source.Span{File: id, Start: 38, End: 45},
	})
	m.Stmt(fromStmt).Members = []semantic.BindingID{seq, mapping}

	impStmt := m.NewStmt(semantic.ImportStmt{
		Kind: semantic.StmtImport,
		Span: source.Span{File: id, Start: 46, End: 64},
	})
	np := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingImport, Name: m.Interner.Intern("np"),
		QualifiedName: "numpy", Stmt: impStmt, Scope: mod,
		Span: source.Span{File: id, Start: 62, End: 64},
	})
	m.Stmt(impStmt).Members = []semantic.BindingID{np}

	return &fixture{fs: fs, f: fs.Get(id), m: m, fromStmt: fromStmt, impStmt: impStmt, seq: seq, mapping: mapping, np: np}
}

func TestRemoveSingleMember(t *testing.T) {
	fx := newFixture()
	edit, err := RemoveMembers(fx.f, fx.m, fx.fromStmt, map[semantic.BindingID]bool{fx.seq: true})
	if err != nil {
		t.Fatalf("RemoveMembers: %v", err)
	}
	if edit.NewText != "from collections.abc import Mapping" {
		t.Fatalf("NewText = %q", edit.NewText)
	}
	if edit.Span != fx.m.Stmt(fx.fromStmt).Span {
		t.Fatalf("Span = %v, want statement span", edit.Span)
	}
}

func TestRemoveAllMembersDeletesLines(t *testing.T) {
	fx := newFixture()
	edit, err := RemoveMembers(fx.f, fx.m, fx.fromStmt, map[semantic.BindingID]bool{fx.seq: true, fx.mapping: true})
	if err != nil {
		t.Fatalf("RemoveMembers: %v", err)
	}
	if edit.NewText != "" {
		t.Fatalf("NewText = %q, want deletion", edit.NewText)
	}
	if edit.Span.Start != 0 || edit.Span.End != 46 {
		t.Fatalf("Span = %v, want whole line 0-46", edit.Span)
	}
	if !strings.HasSuffix(edit.OldText, "\n") {
		t.Fatalf("OldText must include the trailing newline: %q", edit.OldText)
	}
}

func TestRenderPlainImportKeepsAlias(t *testing.T) {
	fx := newFixture()
	text, err := Render(fx.m, fx.m.Stmt(fx.impStmt), []semantic.BindingID{fx.np})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if text != "import numpy as np" {
		t.Fatalf("text = %q", text)
	}
}

func TestInsertTypingGuardCreatesBlock(t *testing.T) {
	fx := newFixture()
	edits, err := InsertTypingGuard(fx.f, fx.m, fx.fromStmt, []semantic.BindingID{fx.seq, fx.mapping}, 76)
	if err != nil {
		t.Fatalf("InsertTypingGuard: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("got %d edits", len(edits))
	}
	e := edits[0]
	if e.Span.Start != 46 || e.Span.End != 46 {
		t.Fatalf("insertion at %v, want offset 46", e.Span)
	}
	want := "from typing import TYPE_CHECKING\n\nif TYPE_CHECKING:\n    from collections.abc import Sequence, Mapping\n"
	if e.NewText != want {
		t.Fatalf("NewText = %q, want %q", e.NewText, want)
	}
}

func TestInsertTypingGuardExtendsExistingBlock(t *testing.T) {
	content := "from typing import TYPE_CHECKING\n" +
		"from collections.abc import Sequence\n" +
		"\n" +
		"if TYPE_CHECKING:\n" +
		"    import numpy\n" +
		"\n" +
		"def f(xs: Sequence) -> None: ...\n"
	fs := source.NewFileSet()
	id := fs.AddVirtual("g.py", []byte(content))
	m := semantic.NewModel(id, source.NewInterner())
	mod := m.NewScope(semantic.ScopeModule, semantic.NoScopeID, source.Span{File: id, End: uint32(len(content))})

	stmt := m.NewStmt(semantic.ImportStmt{
		Kind: semantic.StmtImportFrom, Module: "collections.abc",
		Span: source.Span{File: id, Start: 33, End: 69},
	})
	seq := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingFromImport, Name: m.Interner.Intern("Sequence"),
		QualifiedName: "collections.abc.Sequence", Stmt: stmt, Scope: mod,
		Span: source.Span{File: id, Start: 61, End: 69},
	})
	m.Stmt(stmt).Members = []semantic.BindingID{seq}
	m.HasTypeCheckingImport = true
	// Guard body: the `import numpy` statement.
	m.TypeCheckingBlocks = []source.Span{{File: id, Start: 93, End: 105}}

	edits, err := InsertTypingGuard(fs.Get(id), m, stmt, []semantic.BindingID{seq}, 120)
	if err != nil {
		t.Fatalf("InsertTypingGuard: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("got %d edits", len(edits))
	}
	e := edits[0]
	if e.NewText != "    from collections.abc import Sequence\n" {
		t.Fatalf("NewText = %q", e.NewText)
	}
	if e.Span.Start != 106 || e.Span.End != 106 {
		t.Fatalf("insertion at %v, want end of guard body line (106)", e.Span)
	}
}

func TestInsertTypingGuardRejectsLateAnchor(t *testing.T) {
	fx := newFixture()
	if _, err := InsertTypingGuard(fx.f, fx.m, fx.fromStmt, []semantic.BindingID{fx.seq}, 10); err == nil {
		t.Fatal("anchor before the insertion point must fail")
	}
}

func TestRemoveMembersRejectsNestedStatement(t *testing.T) {
	fx := newFixture()
	stmt := fx.m.Stmt(fx.fromStmt)
	stmt.Parent = source.Span{File: fx.m.File, Start: 0, End: 100}
	if _, err := RemoveMembers(fx.f, fx.m, fx.fromStmt, map[semantic.BindingID]bool{fx.seq: true}); err == nil {
		t.Fatal("nested statement must not be rewritten")
	}
}
