package pyparse

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const directivePrefix = "typefence:"

// scanExtras sweeps the whole tree once for things the statement walk does
// not see: suppression comments and the file's quote style.
func (b *binder) scanExtras(n *sitter.Node) {
	switch n.Kind() {
	case "comment":
		b.directive(n)
		return
	case "string":
		text := b.text(n)
		for i := 0; i < len(text); i++ {
			if text[i] == '\'' {
				b.singleQuotes++
				break
			}
			if text[i] == '"' {
				b.doubleQuotes++
				break
			}
		}
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		b.scanExtras(n.Child(i))
	}
}

// directive parses `# typefence: ignore` and `# typefence: ignore[CODE,...]`
// comments into the suppression index, keyed by the comment's line.
func (b *binder) directive(n *sitter.Node) {
	text := strings.TrimSpace(strings.TrimPrefix(b.text(n), "#"))
	if !strings.HasPrefix(text, directivePrefix) {
		return
	}
	text = strings.TrimSpace(text[len(directivePrefix):])

	pos, _ := b.fs.Resolve(b.span(n))
	switch {
	case text == "ignore":
		b.m.Suppressions.AddBlanket(pos.Line)
	case strings.HasPrefix(text, "ignore[") && strings.HasSuffix(text, "]"):
		var codes []string
		for _, code := range strings.Split(text[len("ignore["):len(text)-1], ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			b.m.Suppressions.AddCodes(pos.Line, codes...)
		}
	}
}
