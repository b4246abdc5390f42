package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"typefence/internal/diag"
	"typefence/internal/source"
)

func fixtureBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("app/models.py", []byte(
		"from pandas import DataFrame\n"+
			"\n"+
			"def f(df: DataFrame) -> None:\n"+
			"    return None\n"))

	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.TypTypingOnlyThirdPartyImport,
		Message:  "Move third-party import `pandas.DataFrame` into a type-checking block",
		Primary:  source.Span{File: id, Start: 19, End: 28},
		Parent:   source.Span{File: id, Start: 0, End: 28},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 40, End: 49}, Msg: "only used in annotations"},
		},
		Fixes: []*diag.Fix{{
			ID:            "typefence.move-import/1/third-party",
			Title:         "Move into type-checking block: DataFrame",
			Kind:          diag.FixKindRefactorRewrite,
			Applicability: diag.FixApplicabilitySafeWithHeuristics,
			Edits: []diag.TextEdit{{
				Span:    source.Span{File: id, Start: 0, End: 29},
				NewText: "",
				OldText: "from pandas import DataFrame\n",
			}},
		}},
	})
	bag.Sort()
	return bag, fs
}

func TestPrettyFormat(t *testing.T) {
	bag, fs := fixtureBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})
	out := buf.String()

	if !strings.Contains(out, "app/models.py:1:20: WARNING TYP3002:") {
		t.Fatalf("heading missing or malformed:\n%s", out)
	}
	if !strings.Contains(out, "from pandas import DataFrame") {
		t.Fatalf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~~~~") {
		t.Fatalf("underline missing:\n%s", out)
	}
	if !strings.Contains(out, "note: only used in annotations") {
		t.Fatalf("note missing:\n%s", out)
	}
	if !strings.Contains(out, "fix: Move into type-checking block: DataFrame (suggested)") {
		t.Fatalf("fix line missing:\n%s", out)
	}
}

func TestPrettyWithoutColorHasNoEscapes(t *testing.T) {
	bag, fs := fixtureBag(t)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("color escapes present with color disabled")
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs := fixtureBag(t)

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "TYP3002" || d.Severity != "WARNING" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 20 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "only used in annotations" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Applicability != "suggested" {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	if len(d.Fixes[0].Edits) != 1 || d.Fixes[0].Edits[0].OldText == "" {
		t.Fatalf("edits = %+v", d.Fixes[0].Edits)
	}
}

func TestJSONMaxTruncatesOutputOnly(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.py", []byte("import a\nimport b\n"))

	bag := diag.NewBag(8)
	for i := uint32(0); i < 2; i++ {
		bag.Add(diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.TypTypingOnlyThirdPartyImport,
			Message:  "m",
			Primary:  source.Span{File: id, Start: i * 9, End: i*9 + 8},
		})
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 1}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("count = %d, want 1", out.Count)
	}
	if bag.Len() != 2 {
		t.Fatal("Max must not mutate the bag")
	}
}

func TestSarifOutput(t *testing.T) {
	bag, fs := fixtureBag(t)

	var buf bytes.Buffer
	err := Sarif(&buf, bag, fs, SarifRunMeta{
		ToolName:       "typefence",
		ToolVersion:    "0.1.0",
		InvocationArgs: []string{"typefence", "check", "."},
	})
	if err != nil {
		t.Fatalf("Sarif: %v", err)
	}

	var log map[string]any
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if log["version"] != "2.1.0" {
		t.Fatalf("version = %v", log["version"])
	}
	runs, ok := log["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatalf("runs = %v", log["runs"])
	}
	out := buf.String()
	if !strings.Contains(out, `"ruleId": "TYP3002"`) {
		t.Fatalf("ruleId missing:\n%s", out)
	}
	if !strings.Contains(out, `"level": "warning"`) {
		t.Fatalf("level missing:\n%s", out)
	}
	if !strings.Contains(out, "Typing-only third-party import") {
		t.Fatalf("rule description missing:\n%s", out)
	}
}

func TestBuildFixEditPreview(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.py", []byte("import a\nimport b\nimport c\n"))

	preview, err := buildFixEditPreview(fs, diag.TextEdit{
		Span:    source.Span{File: id, Start: 9, End: 18},
		NewText: "",
	})
	if err != nil {
		t.Fatalf("buildFixEditPreview: %v", err)
	}
	// The span's end offset touches the next line, so the preview block
	// includes it.
	if len(preview.before) != 2 || preview.before[0] != "import b" {
		t.Fatalf("before = %q", preview.before)
	}
	if len(preview.after) != 1 || preview.after[0] != "import c" {
		t.Fatalf("after = %q", preview.after)
	}
}
