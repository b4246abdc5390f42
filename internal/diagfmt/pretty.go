package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"typefence/internal/diag"
	"typefence/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	pathColor = color.New(color.Bold)
	markColor = color.New(color.FgGreen, color.Bold)
	noteColor = color.New(color.FgBlue)
	fixColor  = color.New(color.FgMagenta)
)

// Pretty renders diagnostics for terminals. Expects bag.Sort() done
// beforehand. Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline, then notes and fix
// titles when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		printHeading(w, fs, d.Primary, d.Severity.String(), d.Code.ID(), d.Message, opts)
		printSnippet(w, fs, d.Primary, opts)

		if opts.ShowNotes {
			for _, note := range d.Notes {
				line := "note: " + note.Msg
				if !note.Span.Empty() {
					start, _ := fs.Resolve(note.Span)
					line = fmt.Sprintf("note: %s (%s:%d:%d)",
						note.Msg, formatPath(fs, note.Span.File, opts.PathMode), start.Line, start.Col)
				}
				fmt.Fprintf(w, "  %s\n", colorize(noteColor, line, opts.Color))
			}
		}

		if opts.ShowFixes {
			for _, f := range d.Fixes {
				if f == nil {
					continue
				}
				line := fmt.Sprintf("fix: %s (%s)", f.Title, f.Applicability.String())
				fmt.Fprintf(w, "  %s\n", colorize(fixColor, line, opts.Color))
			}
		}
	}
}

func printHeading(w io.Writer, fs *source.FileSet, span source.Span, sev, code, msg string, opts PrettyOpts) {
	loc := formatPath(fs, span.File, opts.PathMode)
	if !span.Empty() || span.Start > 0 {
		start, _ := fs.Resolve(span)
		loc = fmt.Sprintf("%s:%d:%d", loc, start.Line, start.Col)
	}

	line := fmt.Sprintf("%s: %s %s: %s",
		colorize(pathColor, loc, opts.Color),
		colorize(severityColor(sev), sev, opts.Color),
		code,
		msg)
	if opts.Width > 0 {
		line = runewidth.Truncate(line, int(opts.Width), "...")
	}
	fmt.Fprintln(w, line)
}

// printSnippet shows the primary line with a caret underline, plus up to
// opts.Context surrounding lines.
func printSnippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	if span.Empty() && span.Start == 0 {
		return
	}
	file := fs.Get(span.File)
	start, end := fs.Resolve(span)
	if start.Col == 0 {
		start.Col = 1
	}

	first := start.Line
	if ctx := uint32(max(opts.Context, 0)); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	last := start.Line + uint32(max(opts.Context, 0))

	for line := first; line <= last; line++ {
		text := file.GetLine(line)
		if text == "" && line != start.Line {
			continue
		}
		fmt.Fprintf(w, "  %4d | %s\n", line, strings.ReplaceAll(text, "\t", "    "))
		if line != start.Line {
			continue
		}

		// Underline from start col through the span end, clamped to the line.
		width := uint32(1)
		if end.Line == start.Line && end.Col > start.Col {
			width = end.Col - start.Col
		}
		lineLen := uint32(len(text))
		if start.Col > 0 && start.Col-1+width > lineLen {
			if lineLen >= start.Col {
				width = lineLen - start.Col + 1
			} else {
				width = 1
			}
		}
		pad := strings.Repeat(" ", int(start.Col-1)+strings.Count(text[:min(int(start.Col-1), len(text))], "\t")*3)
		marker := "^" + strings.Repeat("~", int(width-1))
		fmt.Fprintf(w, "       | %s%s\n", pad, colorize(markColor, marker, opts.Color))
	}
}

func severityColor(sev string) *color.Color {
	switch sev {
	case "ERROR":
		return errColor
	case "WARNING":
		return warnColor
	default:
		return infoColor
	}
}

func colorize(c *color.Color, s string, enabled bool) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", fs.BaseDir())
	}
}
