package pycat

import "testing"

func TestCategorizeSections(t *testing.T) {
	c, err := NewClassifier(Options{
		KnownFirstParty: []string{"myapp", "internal_*"},
		KnownThirdParty: []string{"vendored"},
		SrcModules:      []string{"services"},
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	cases := []struct {
		name  string
		level uint32
		want  Section
	}{
		{"__future__", 0, SectionFuture},
		{"os.path", 0, SectionStandardLibrary},
		{"collections.abc", 0, SectionStandardLibrary},
		{"numpy", 0, SectionThirdParty},
		{"myapp.models", 0, SectionFirstParty},
		{"internal_auth", 0, SectionFirstParty},
		{"vendored.lib", 0, SectionThirdParty},
		{"services.billing", 0, SectionFirstParty},
		{"helpers", 2, SectionLocalFolder},
	}
	for _, tc := range cases {
		if got := c.Categorize(tc.name, tc.level); got != tc.want {
			t.Errorf("Categorize(%q, %d) = %s, want %s", tc.name, tc.level, got, tc.want)
		}
	}
}

func TestCategorizeExplicitConfigWinsOverStdlib(t *testing.T) {
	c, err := NewClassifier(Options{KnownFirstParty: []string{"json"}})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	if got := c.Categorize("json", 0); got != SectionFirstParty {
		t.Fatalf("Categorize(json) = %s, want first-party override", got)
	}
}

func TestSectionCategoryFolding(t *testing.T) {
	cases := map[Section]Category{
		SectionFuture:          CategoryFuture,
		SectionStandardLibrary: CategoryStandardLibrary,
		SectionThirdParty:      CategoryThirdParty,
		SectionUserDefined:     CategoryThirdParty,
		SectionFirstParty:      CategoryFirstParty,
		SectionLocalFolder:     CategoryFirstParty,
	}
	for section, want := range cases {
		if got := section.Category(); got != want {
			t.Errorf("%s.Category() = %s, want %s", section, got, want)
		}
	}
}

func TestNewClassifierRejectsBadPattern(t *testing.T) {
	if _, err := NewClassifier(Options{KnownFirstParty: []string{"[unclosed"}}); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}
