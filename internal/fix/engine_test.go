package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"typefence/internal/diag"
	"typefence/internal/source"
)

func loadTemp(t *testing.T, name, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	fs := source.NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load temp file: %v", err)
	}
	return fs, id, path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return string(data)
}

func TestApplySingleFix(t *testing.T) {
	fs, id, path := loadTemp(t, "a.py", "import os\n")

	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.TypTypingOnlyStandardLibImport,
		Message:  "move import into a type-checking block",
		Primary:  source.Span{File: id, Start: 7, End: 9},
		Fixes: []*diag.Fix{{
			ID:            "move/1",
			Title:         "Move into type-checking block",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 0, End: 10},
				NewText: "if TYPE_CHECKING:\n    import os\n",
				OldText: "import os\n",
			}},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].EditCount != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("file changes = %+v", res.FileChanges)
	}
	if got := readBack(t, path); got != "if TYPE_CHECKING:\n    import os\n" {
		t.Fatalf("file content = %q", got)
	}
}

func TestApplySharedFixOnce(t *testing.T) {
	fs, id, path := loadTemp(t, "b.py", "from pandas import DataFrame, Series\n")

	shared := &diag.Fix{
		ID:            "move/group",
		Title:         "Move into type-checking block: DataFrame, Series",
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    source.Span{File: id, Start: 0, End: 37},
			NewText: "if TYPE_CHECKING:\n    from pandas import DataFrame, Series\n",
		}},
	}
	diags := []diag.Diagnostic{
		{
			Code:    diag.TypTypingOnlyThirdPartyImport,
			Primary: source.Span{File: id, Start: 19, End: 28},
			Fixes:   []*diag.Fix{shared},
		},
		{
			Code:    diag.TypTypingOnlyThirdPartyImport,
			Primary: source.Span{File: id, Start: 30, End: 36},
			Fixes:   []*diag.Fix{shared},
		},
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("shared fix applied %d times", len(res.Applied))
	}
	if got := readBack(t, path); got != "if TYPE_CHECKING:\n    from pandas import DataFrame, Series\n" {
		t.Fatalf("file content = %q", got)
	}
}

func TestApplyRemovalWithBoundaryInsert(t *testing.T) {
	fs, id, path := loadTemp(t, "g.py", "from pandas import Series\nx = 1\n")

	// Whole-statement rewrites pair a full-line removal with a zero-length
	// insertion at the removal's end offset. The insertion must not shift
	// the removal span or its OldText guard rejects the original text.
	d := diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.TypTypingOnlyThirdPartyImport,
		Message:  "move import into a type-checking block",
		Primary:  source.Span{File: id, Start: 19, End: 25},
		Fixes: []*diag.Fix{{
			ID:            "move/boundary",
			Title:         "Move into type-checking block: Series",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Edits: []diag.TextEdit{
				{
					Span:    source.Span{File: id, Start: 0, End: 26},
					OldText: "from pandas import Series\n",
				},
				{
					Span:    source.Span{File: id, Start: 26, End: 26},
					NewText: "if TYPE_CHECKING:\n    from pandas import Series\n",
				},
			},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].EditCount != 2 {
		t.Fatalf("applied = %+v, skipped = %+v", res.Applied, res.Skipped)
	}
	if got := readBack(t, path); got != "if TYPE_CHECKING:\n    from pandas import Series\nx = 1\n" {
		t.Fatalf("file content = %q", got)
	}
}

func TestApplyOldTextGuard(t *testing.T) {
	fs, id, path := loadTemp(t, "c.py", "import sys\n")

	d := diag.Diagnostic{
		Code:    diag.TypTypingOnlyStandardLibImport,
		Primary: source.Span{File: id, Start: 0, End: 10},
		Fixes: []*diag.Fix{{
			ID:            "stale/1",
			Title:         "stale edit",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 0, End: 10},
				NewText: "pass",
				OldText: "import os\n",
			}},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, path); got != "import sys\n" {
		t.Fatalf("file was modified: %q", got)
	}
}

func TestApplySuggestedNeedsOptIn(t *testing.T) {
	fs, id, path := loadTemp(t, "d.py", "import os\n")

	fix := &diag.Fix{
		ID:            "sugg/1",
		Title:         "suggested rewrite",
		Applicability: diag.FixApplicabilitySafeWithHeuristics,
		Edits: []diag.TextEdit{{
			Span:    source.Span{File: id, Start: 0, End: 10},
			NewText: "import sys\n",
		}},
	}
	d := diag.Diagnostic{
		Code:    diag.TypTypingOnlyStandardLibImport,
		Primary: source.Span{File: id, Start: 0, End: 10},
		Fixes:   []*diag.Fix{fix},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes without opt-in", err)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}

	res, err = Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll, IncludeSuggested: true})
	if err != nil {
		t.Fatalf("Apply with opt-in: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, path); got != "import sys\n" {
		t.Fatalf("file content = %q", got)
	}
}

func TestApplyIsolationConflict(t *testing.T) {
	fs, id, path := loadTemp(t, "e.py", "from a import X\nfrom b import Y\n")

	first := diag.Diagnostic{
		Code:    diag.TypTypingOnlyThirdPartyImport,
		Primary: source.Span{File: id, Start: 14, End: 15},
		Fixes: []*diag.Fix{{
			ID:            "iso/1",
			Title:         "first",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Isolation:     source.Span{File: id, Start: 0, End: 32},
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 0, End: 16},
				NewText: "",
			}},
		}},
	}
	second := diag.Diagnostic{
		Code:    diag.TypTypingOnlyThirdPartyImport,
		Primary: source.Span{File: id, Start: 30, End: 31},
		Fixes: []*diag.Fix{{
			ID:            "iso/2",
			Title:         "second",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Isolation:     source.Span{File: id, Start: 0, End: 32},
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 16, End: 32},
				NewText: "",
			}},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{first, second}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "iso/1" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "iso/2" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, path); got != "from b import Y\n" {
		t.Fatalf("file content = %q", got)
	}
}

func TestApplyModeIDSelectsOne(t *testing.T) {
	fs, id, path := loadTemp(t, "f.py", "aaa\nbbb\n")

	mk := func(fixID string, start, end uint32, repl string) diag.Diagnostic {
		return diag.Diagnostic{
			Code:    diag.TypInfo,
			Primary: source.Span{File: id, Start: start, End: end},
			Fixes: []*diag.Fix{{
				ID:            fixID,
				Title:         fixID,
				Applicability: diag.FixApplicabilityAlwaysSafe,
				Edits: []diag.TextEdit{{
					Span:    source.Span{File: id, Start: start, End: end},
					NewText: repl,
				}},
			}},
		}
	}
	diags := []diag.Diagnostic{
		mk("edit/a", 0, 3, "xxx"),
		mk("edit/b", 4, 7, "yyy"),
	}

	res, err := Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "edit/b"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "edit/b" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, path); got != "aaa\nyyy\n" {
		t.Fatalf("file content = %q", got)
	}

	_, err = Apply(fs, diags, ApplyOptions{Mode: ApplyModeID, TargetID: "edit/missing"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes for unknown id", err)
	}
}

func TestApplySkipsVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("mem.py", []byte("import os\n"))

	d := diag.Diagnostic{
		Code:    diag.TypTypingOnlyStandardLibImport,
		Primary: source.Span{File: id, Start: 0, End: 10},
		Fixes: []*diag.Fix{{
			ID:            "virt/1",
			Title:         "virtual target",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 0, End: 10},
				NewText: "",
			}},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestApplyLazyThunkMaterialized(t *testing.T) {
	fs, id, path := loadTemp(t, "g.py", "import os\n")

	d := diag.Diagnostic{
		Code:    diag.TypTypingOnlyStandardLibImport,
		Primary: source.Span{File: id, Start: 0, End: 10},
		Fixes: []*diag.Fix{{
			ID:            "lazy/1",
			Title:         "lazy edit",
			Applicability: diag.FixApplicabilityAlwaysSafe,
			Thunk: func(ctx diag.FixBuildContext) ([]diag.TextEdit, error) {
				return []diag.TextEdit{{
					Span:    source.Span{File: id, Start: 0, End: 10},
					NewText: "import sys\n",
				}}, nil
			},
		}},
	}

	res, err := Apply(fs, []diag.Diagnostic{d}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, path); got != "import sys\n" {
		t.Fatalf("file content = %q", got)
	}
}
