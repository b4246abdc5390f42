package pyparse

import (
	"testing"

	"typefence/internal/diag"
	"typefence/internal/pycat"
	"typefence/internal/semantic"
	"typefence/internal/source"
	"typefence/internal/typingonly"
)

func bindSrc(t *testing.T, src string, opts Options) (*source.FileSet, *semantic.Model) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.py", []byte(src))
	m, err := Bind(fs, id, source.NewInterner(), opts, diag.NopReporter{})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return fs, m
}

func moduleBinding(t *testing.T, m *semantic.Model, name string) *semantic.Binding {
	t.Helper()
	id := m.Scope(m.ModuleScope()).Lookup(m.Interner.Intern(name))
	if !id.IsValid() {
		t.Fatalf("binding %q not found in module scope", name)
	}
	return m.Binding(id)
}

func TestBindImportForms(t *testing.T) {
	src := "import os\n" +
		"import os.path\n" +
		"import numpy as np\n" +
		"from collections.abc import Sequence, Mapping as Map\n" +
		"from ..models import User\n"
	_, m := bindSrc(t, src, Options{})

	osb := moduleBinding(t, m, "os")
	if osb.Kind != semantic.BindingSubmoduleImport || osb.QualifiedName != "os.path" {
		t.Fatalf("os binding = %s %q (the submodule import shadows the plain one)", osb.Kind, osb.QualifiedName)
	}

	np := moduleBinding(t, m, "np")
	if np.Kind != semantic.BindingImport || np.QualifiedName != "numpy" {
		t.Fatalf("np binding = %s %q", np.Kind, np.QualifiedName)
	}

	seq := moduleBinding(t, m, "Sequence")
	if seq.Kind != semantic.BindingFromImport || seq.QualifiedName != "collections.abc.Sequence" {
		t.Fatalf("Sequence binding = %s %q", seq.Kind, seq.QualifiedName)
	}
	if seq.ModuleName() != "collections" {
		t.Fatalf("Sequence module = %q", seq.ModuleName())
	}

	mp := moduleBinding(t, m, "Map")
	if mp.QualifiedName != "collections.abc.Mapping" {
		t.Fatalf("Map qualified = %q", mp.QualifiedName)
	}

	user := moduleBinding(t, m, "User")
	if user.QualifiedName != "..models.User" || user.Level() != 2 || user.ModuleName() != "models" {
		t.Fatalf("User binding = %q level %d module %q", user.QualifiedName, user.Level(), user.ModuleName())
	}

	stmt := m.Stmt(seq.Stmt)
	if stmt == nil || len(stmt.Members) != 2 {
		t.Fatalf("from-import statement members = %+v", stmt)
	}
}

func TestBindFutureAndTypeCheckingDetection(t *testing.T) {
	src := "from __future__ import annotations\n" +
		"from typing import TYPE_CHECKING\n" +
		"\n" +
		"if TYPE_CHECKING:\n" +
		"    from pandas import DataFrame\n"
	_, m := bindSrc(t, src, Options{})

	if !m.FutureAnnotations {
		t.Fatal("future annotations not detected")
	}
	if !m.HasTypeCheckingImport {
		t.Fatal("TYPE_CHECKING import not detected")
	}
	if len(m.TypeCheckingBlocks) != 1 {
		t.Fatalf("TypeCheckingBlocks = %v", m.TypeCheckingBlocks)
	}
	df := moduleBinding(t, m, "DataFrame")
	if !df.InTypeCheckingBlock {
		t.Fatal("guarded import not marked as in type-checking block")
	}
	stmt := m.Stmt(df.Stmt)
	if stmt == nil || !stmt.HasParent() {
		t.Fatal("guarded import must record the if statement as parent")
	}
}

func TestBindAnnotationContexts(t *testing.T) {
	src := "from pandas import DataFrame, Series\n" +
		"\n" +
		"def f(df: DataFrame) -> Series:\n" +
		"    return df\n"
	_, m := bindSrc(t, src, Options{})

	df := moduleBinding(t, m, "DataFrame")
	if len(df.Refs) != 1 {
		t.Fatalf("DataFrame refs = %d, want 1", len(df.Refs))
	}
	ref := m.Ref(df.Refs[0])
	if ref.Flags != semantic.RefInRuntimeEvaluatedAnnotation {
		t.Fatalf("without future import the annotation is runtime-evaluated, got %b", ref.Flags)
	}
}

func TestBindAnnotationContextsWithFuture(t *testing.T) {
	src := "from __future__ import annotations\n" +
		"from pandas import DataFrame\n" +
		"\n" +
		"def f(df: DataFrame) -> None:\n" +
		"    return None\n"
	_, m := bindSrc(t, src, Options{})

	df := moduleBinding(t, m, "DataFrame")
	if len(df.Refs) != 1 {
		t.Fatalf("DataFrame refs = %d, want 1", len(df.Refs))
	}
	if m.Ref(df.Refs[0]).Flags != semantic.RefInTypingOnlyAnnotation {
		t.Fatalf("with future import the annotation never evaluates, got %b", m.Ref(df.Refs[0]).Flags)
	}
}

func TestBindRuntimeUseIsFlagless(t *testing.T) {
	src := "import numpy as np\n" +
		"\n" +
		"x = np.zeros(3)\n"
	_, m := bindSrc(t, src, Options{})

	np := moduleBinding(t, m, "np")
	if len(np.Refs) != 1 {
		t.Fatalf("np refs = %d, want 1", len(np.Refs))
	}
	if m.Ref(np.Refs[0]).Flags != 0 {
		t.Fatalf("attribute chain base must be a plain runtime use, got %b", m.Ref(np.Refs[0]).Flags)
	}
}

func TestBindStringAnnotation(t *testing.T) {
	src := "from pandas import Series\n" +
		"\n" +
		"def f(x: \"Series\") -> None:\n" +
		"    return None\n"
	fs, m := bindSrc(t, src, Options{})

	serie := moduleBinding(t, m, "Series")
	if len(serie.Refs) != 1 {
		t.Fatalf("Series refs = %d, want 1", len(serie.Refs))
	}
	ref := m.Ref(serie.Refs[0])
	if ref.Flags&semantic.RefInSimpleStringAnnotation == 0 {
		t.Fatalf("string annotation flag missing, got %b", ref.Flags)
	}
	if got := fs.Get(m.File).Slice(ref.Span); got != "Series" {
		t.Fatalf("ref span points at %q inside the string, want Series", got)
	}
}

func TestBindRuntimeRequiredClass(t *testing.T) {
	src := "from pydantic import BaseModel\n" +
		"from decimal import Decimal\n" +
		"\n" +
		"class Invoice(BaseModel):\n" +
		"    total: Decimal\n"
	opts := Options{RuntimeRequiredBaseClasses: []string{"pydantic.BaseModel"}}
	_, m := bindSrc(t, src, opts)

	dec := moduleBinding(t, m, "Decimal")
	if len(dec.Refs) != 1 {
		t.Fatalf("Decimal refs = %d, want 1", len(dec.Refs))
	}
	if m.Ref(dec.Refs[0]).Flags != 0 {
		t.Fatalf("annotation inside runtime-required class must be a runtime use, got %b", m.Ref(dec.Refs[0]).Flags)
	}
}

func TestBindSuppressionDirectives(t *testing.T) {
	src := "from pandas import DataFrame  # typefence: ignore[TYP3002]\n" +
		"import os  # typefence: ignore\n" +
		"\n" +
		"def f(df: DataFrame) -> None:\n" +
		"    return os.getcwd()\n"
	_, m := bindSrc(t, src, Options{})

	if !m.Suppressions.Suppresses(1, "TYP3002") {
		t.Fatal("line 1 directive with explicit code not indexed")
	}
	if m.Suppressions.Suppresses(1, "TYP3001") {
		t.Fatal("line 1 directive must only cover the listed code")
	}
	if !m.Suppressions.Suppresses(2, "TYP3003") {
		t.Fatal("line 2 blanket directive not indexed")
	}
}

func TestBindQuotePreference(t *testing.T) {
	src := "x = 'one'\ny = 'two'\nz = \"three\"\n"
	_, m := bindSrc(t, src, Options{})
	if m.QuoteChar != '\'' {
		t.Fatalf("QuoteChar = %c, want single quote", m.QuoteChar)
	}
}

// TestEndToEndAlreadyGuarded checks idempotence: source that already defers
// its typing-only imports produces no diagnostics.
func TestEndToEndAlreadyGuarded(t *testing.T) {
	src := "from __future__ import annotations\n" +
		"from typing import TYPE_CHECKING\n" +
		"\n" +
		"if TYPE_CHECKING:\n" +
		"    from pandas import DataFrame\n" +
		"\n" +
		"def f(df: DataFrame) -> None:\n" +
		"    return None\n"
	fs, m := bindSrc(t, src, Options{})

	cls, err := pycat.NewClassifier(pycat.Options{})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	st := typingonly.DefaultSettings()
	bag := diag.NewBag(16)
	typingonly.Check(m, fs, cls, &st, diag.BagReporter{Bag: bag})
	if bag.Len() != 0 {
		t.Fatalf("already-guarded source produced %d diagnostics", bag.Len())
	}
}

// TestEndToEndFlagsTypingOnlyImport drives the full pipeline from source
// text to a diagnostic with a fix.
func TestEndToEndFlagsTypingOnlyImport(t *testing.T) {
	src := "from __future__ import annotations\n" +
		"\n" +
		"from pandas import DataFrame\n" +
		"\n" +
		"def f(df: DataFrame) -> None:\n" +
		"    return None\n"
	fs, m := bindSrc(t, src, Options{})

	cls, err := pycat.NewClassifier(pycat.Options{})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	st := typingonly.DefaultSettings()
	bag := diag.NewBag(16)
	typingonly.Check(m, fs, cls, &st, diag.BagReporter{Bag: bag})

	if bag.Len() != 1 {
		t.Fatalf("got %d diagnostics, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if d.Code != diag.TypTypingOnlyThirdPartyImport {
		t.Fatalf("code = %s", d.Code.ID())
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) < 2 {
		t.Fatalf("fix missing or incomplete: %+v", d.Fixes)
	}
}
