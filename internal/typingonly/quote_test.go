package typingonly

import (
	"testing"

	"typefence/internal/source"
)

func quoteIn(t *testing.T, content string, start, end uint32) (string, source.Span) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("anno.py", []byte(content))
	f := fs.Get(id)
	edit := QuoteAnnotation(f, source.Span{File: id, Start: start, End: end}, '"')
	return edit.NewText, edit.Span
}

func TestQuoteSubscript(t *testing.T) {
	got, span := quoteIn(t, "x: Series[pd.Timestamp] = load()", 3, 9)
	if got != `"Series[pd.Timestamp]"` {
		t.Fatalf("NewText = %s", got)
	}
	if span.Start != 3 || span.End != 23 {
		t.Fatalf("Span = %v, want 3-23", span)
	}
}

func TestQuoteAbsorbsInnerQuotes(t *testing.T) {
	got, span := quoteIn(t, `x: Series["pd.Timestamp"]`, 3, 9)
	if got != `"Series[pd.Timestamp]"` {
		t.Fatalf("NewText = %s", got)
	}
	// Dropped quote characters still advance the input cursor.
	if span.Start != 3 || span.End != 25 {
		t.Fatalf("Span = %v, want 3-25", span)
	}
}

func TestQuoteBareName(t *testing.T) {
	got, span := quoteIn(t, "def f(x: Frame = default):", 9, 14)
	if got != `"Frame"` {
		t.Fatalf("NewText = %s", got)
	}
	if span.End != 14 {
		t.Fatalf("Span = %v, want end 14", span)
	}
}

func TestQuoteInnerSubscriptArgument(t *testing.T) {
	// Quoting the argument inside Dict[str, Custom] must stop at the
	// closing bracket that belongs to the outer subscript.
	content := "x: Dict[str, Custom]"
	got, span := quoteIn(t, content, 13, 19)
	if got != `"Custom"` {
		t.Fatalf("NewText = %s", got)
	}
	if span.Start != 13 || span.End != 19 {
		t.Fatalf("Span = %v, want 13-19", span)
	}
}

func TestQuoteAttributeChain(t *testing.T) {
	got, span := quoteIn(t, "x: np.typing.NDArray = make()", 3, 5)
	if got != `"np.typing.NDArray"` {
		t.Fatalf("NewText = %s", got)
	}
	if span.End != 20 {
		t.Fatalf("Span = %v, want end 20", span)
	}
}

func TestQuoteMultilineFallsBack(t *testing.T) {
	content := "x: Series[\n    int,\n]"
	got, span := quoteIn(t, content, 3, 9)
	if got != `"Series"` {
		t.Fatalf("NewText = %s", got)
	}
	if span.Start != 3 || span.End != 9 {
		t.Fatalf("fallback must replace only the reference, got %v", span)
	}
}
