package typingonly

import (
	"testing"

	"typefence/internal/semantic"
	"typefence/internal/source"
)

func TestIsRuntimeNecessary(t *testing.T) {
	m := semantic.NewModel(1, source.NewInterner())
	mod := m.NewScope(semantic.ScopeModule, semantic.NoScopeID, source.Span{File: 1, End: 200})

	typingOnly := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingFromImport, QualifiedName: "pandas.DataFrame", Scope: mod,
		Name: m.Interner.Intern("DataFrame"),
	})
	m.NewRef(typingOnly, semantic.Reference{Flags: semantic.RefInTypingOnlyAnnotation})
	m.NewRef(typingOnly, semantic.Reference{Flags: semantic.RefInSimpleStringAnnotation})
	if IsRuntimeNecessary(m, m.Binding(typingOnly)) {
		t.Fatal("binding with only typing references reported runtime-necessary")
	}

	mixed := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingImport, QualifiedName: "os", Scope: mod,
		Name: m.Interner.Intern("os"),
	})
	m.NewRef(mixed, semantic.Reference{Flags: semantic.RefInTypingOnlyAnnotation})
	m.NewRef(mixed, semantic.Reference{})
	if !IsRuntimeNecessary(m, m.Binding(mixed)) {
		t.Fatal("one plain runtime use must make the binding runtime-necessary")
	}

	guarded := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingFromImport, QualifiedName: "a.B", Scope: mod,
		Name: m.Interner.Intern("B"), InTypeCheckingBlock: true,
	})
	m.NewRef(guarded, semantic.Reference{})
	if IsRuntimeNecessary(m, m.Binding(guarded)) {
		t.Fatal("binding declared inside the guard is never a runtime import")
	}

	other := m.NewBinding(semantic.Binding{
		Kind: semantic.BindingOther, Scope: mod, Name: m.Interner.Intern("x"),
	})
	m.NewRef(other, semantic.Reference{})
	if IsRuntimeNecessary(m, m.Binding(other)) {
		t.Fatal("non-import binding must be ignored")
	}
}

func TestClassRequiresRuntimeImport(t *testing.T) {
	m := semantic.NewModel(1, source.NewInterner())
	mod := m.NewScope(semantic.ScopeModule, semantic.NoScopeID, source.Span{File: 1, End: 200})
	cls := m.NewScope(semantic.ScopeClass, mod, source.Span{File: 1, Start: 50, End: 150})

	scope := m.Scope(cls)
	scope.Bases = []string{"pydantic.BaseModel"}
	scope.Decorators = []string{"attrs.define"}

	if !ClassRequiresRuntimeImport(scope, []string{"pydantic.BaseModel"}, nil) {
		t.Fatal("matching base class not detected")
	}
	if !ClassRequiresRuntimeImport(scope, nil, []string{"attrs.define"}) {
		t.Fatal("matching decorator not detected")
	}
	if ClassRequiresRuntimeImport(scope, []string{"django.db.models.Model"}, []string{"functools.cache"}) {
		t.Fatal("unrelated paths matched")
	}
	if ClassRequiresRuntimeImport(m.Scope(mod), []string{"pydantic.BaseModel"}, nil) {
		t.Fatal("non-class scope matched")
	}
}
