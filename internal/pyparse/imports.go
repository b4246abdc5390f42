package pyparse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"typefence/internal/semantic"
	"typefence/internal/source"
)

func (b *binder) futureImport(n *sitter.Node, ctx blockCtx) {
	stmtID := b.m.NewStmt(semantic.ImportStmt{
		Kind:   semantic.StmtImportFrom,
		Module: "__future__",
		Span:   b.span(n),
		Parent: ctx.parent,
	})
	stmt := b.m.Stmt(stmtID)

	foundImport := false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "import":
			foundImport = true
		case "dotted_name", "identifier":
			if !foundImport {
				continue
			}
			name := b.text(child)
			if name == "annotations" {
				b.m.FutureAnnotations = true
			}
			id := b.m.NewBinding(semantic.Binding{
				Kind:                semantic.BindingFromImport,
				Name:                b.intern(name),
				QualifiedName:       "__future__." + name,
				Stmt:                stmtID,
				Scope:               b.scope,
				Span:                b.span(child),
				InTypeCheckingBlock: ctx.inTypeChecking,
			})
			stmt.Members = append(stmt.Members, id)
		case "aliased_import":
			name, alias, span := b.aliasedImport(child)
			if name == "annotations" {
				b.m.FutureAnnotations = true
			}
			id := b.m.NewBinding(semantic.Binding{
				Kind:                semantic.BindingFromImport,
				Name:                b.intern(alias),
				QualifiedName:       "__future__." + name,
				Stmt:                stmtID,
				Scope:               b.scope,
				Span:                span,
				InTypeCheckingBlock: ctx.inTypeChecking,
			})
			stmt.Members = append(stmt.Members, id)
		}
	}
}

func (b *binder) importStmt(n *sitter.Node, ctx blockCtx) {
	stmtID := b.m.NewStmt(semantic.ImportStmt{
		Kind:   semantic.StmtImport,
		Span:   b.span(n),
		Parent: ctx.parent,
	})
	stmt := b.m.Stmt(stmtID)

	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			qualified := b.text(child)
			kind := semantic.BindingImport
			bound := qualified
			if dot := strings.IndexByte(qualified, '.'); dot >= 0 {
				// `import a.b` binds the top-level package `a`.
				kind = semantic.BindingSubmoduleImport
				bound = qualified[:dot]
			}
			id := b.m.NewBinding(semantic.Binding{
				Kind:                kind,
				Name:                b.intern(bound),
				QualifiedName:       qualified,
				Stmt:                stmtID,
				Scope:               b.scope,
				Span:                b.span(child),
				InTypeCheckingBlock: ctx.inTypeChecking,
			})
			stmt.Members = append(stmt.Members, id)
		case "aliased_import":
			name, alias, span := b.aliasedImport(child)
			id := b.m.NewBinding(semantic.Binding{
				Kind:                semantic.BindingImport,
				Name:                b.intern(alias),
				QualifiedName:       name,
				Stmt:                stmtID,
				Scope:               b.scope,
				Span:                span,
				InTypeCheckingBlock: ctx.inTypeChecking,
			})
			stmt.Members = append(stmt.Members, id)
		}
	}
}

func (b *binder) importFromStmt(n *sitter.Node, ctx blockCtx) {
	var module string
	var level uint32
	foundImport := false

	// First sweep picks up the source module and relative level so member
	// bindings can carry full qualified names.
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "import":
			foundImport = true
		case "relative_import":
			text := b.text(child)
			for len(text) > 0 && text[0] == '.' {
				level++
				text = text[1:]
			}
			module = text
		case "dotted_name", "identifier":
			if !foundImport && module == "" && level == 0 {
				module = b.text(child)
			}
		}
		if foundImport {
			break
		}
	}

	stmtID := b.m.NewStmt(semantic.ImportStmt{
		Kind:   semantic.StmtImportFrom,
		Module: module,
		Level:  level,
		Span:   b.span(n),
		Parent: ctx.parent,
	})
	stmt := b.m.Stmt(stmtID)

	qualify := func(name string) string {
		dots := strings.Repeat(".", int(level))
		if module == "" {
			return dots + name
		}
		return dots + module + "." + name
	}

	addMember := func(name, alias string, span source.Span) {
		if module == "typing" && level == 0 && name == "TYPE_CHECKING" {
			b.m.HasTypeCheckingImport = true
		}
		id := b.m.NewBinding(semantic.Binding{
			Kind:                semantic.BindingFromImport,
			Name:                b.intern(alias),
			QualifiedName:       qualify(name),
			Stmt:                stmtID,
			Scope:               b.scope,
			Span:                span,
			InTypeCheckingBlock: ctx.inTypeChecking,
		})
		stmt.Members = append(stmt.Members, id)
	}

	foundImport = false
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch child.Kind() {
		case "import":
			foundImport = true
		case "dotted_name", "identifier":
			if foundImport {
				addMember(b.text(child), b.text(child), b.span(child))
			}
		case "aliased_import":
			name, alias, span := b.aliasedImport(child)
			addMember(name, alias, span)
		case "wildcard_import":
			// Star imports bind nothing the analysis can track.
		}
	}
}

// aliasedImport splits `name as alias`, returning the alias's span as the
// binding position.
func (b *binder) aliasedImport(n *sitter.Node) (name, alias string, span source.Span) {
	span = b.span(n)
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "dotted_name":
			name = b.text(child)
		case "identifier":
			if name == "" {
				name = b.text(child)
			} else {
				alias = b.text(child)
				span = b.span(child)
			}
		}
	}
	if alias == "" {
		alias = name
	}
	return name, alias, span
}
