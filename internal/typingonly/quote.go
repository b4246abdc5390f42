package typingonly

import (
	"typefence/internal/diag"
	"typefence/internal/source"
)

// QuoteAnnotation turns a bare reference inside an annotation into a quoted
// forward reference covering the whole annotation expression. Quoting
// `Series` in `Series[pd.Timestamp]` replaces the full subscript with
// `"Series[pd.Timestamp]"`; pre-existing inner quotes are absorbed so the
// result is never doubly quoted.
//
// The scan walks characters after the reference, tracking bracket depth.
// It stops at the first character that cannot extend the expression, or when
// the subscript opened at the reference closes. A newline inside brackets
// abandons the scan and falls back to quoting just the original reference
// text, which is always valid if less minimal.
func QuoteAnnotation(f *source.File, ref source.Span, quote byte) diag.TextEdit {
	content := f.Content
	buf := []byte(f.Slice(ref))

	depth := 0
	consumed := uint32(0)
scan:
	for int(ref.End+consumed) < len(content) {
		c := content[ref.End+consumed]
		switch {
		case c == '[':
			depth++
			buf = append(buf, c)
			consumed++
		case c == ']':
			if depth == 0 {
				// The subscript closed above us; the reference was an
				// inner argument and ends here.
				break scan
			}
			depth--
			buf = append(buf, c)
			consumed++
			if depth == 0 {
				break scan
			}
		case isIdentChar(c) || c == '.':
			buf = append(buf, c)
			consumed++
		case c == '"' || c == '\'':
			// Absorb inner quoting: the character advances the input
			// cursor but never reaches the output.
			consumed++
		case c == '\n':
			if depth > 0 {
				return quoteVerbatim(f, ref, quote)
			}
			break scan
		default:
			if depth == 0 {
				break scan
			}
			buf = append(buf, c)
			consumed++
		}
	}

	span := source.Span{File: ref.File, Start: ref.Start, End: ref.End + consumed}
	return diag.TextEdit{
		Span:    span,
		NewText: string(quote) + string(buf) + string(quote),
		OldText: f.Slice(span),
	}
}

// quoteVerbatim replaces exactly the reference range with its own text
// quoted, leaving the surrounding expression untouched.
func quoteVerbatim(f *source.File, ref source.Span, quote byte) diag.TextEdit {
	text := f.Slice(ref)
	return diag.TextEdit{
		Span:    ref,
		NewText: string(quote) + text + string(quote),
		OldText: text,
	}
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80 // multibyte identifier characters pass through untouched
}
