package pyparse

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"typefence/internal/semantic"
	"typefence/internal/source"
)

// exprRefs records use-sites in plain expression position. Only the
// leftmost name of an attribute chain is a reference; `a.b.c` uses the
// binding of `a`.
func (b *binder) exprRefs(n *sitter.Node, flags semantic.RefFlags) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier":
		b.pending = append(b.pending, pendingRef{
			name:  b.intern(b.text(n)),
			scope: b.scope,
			span:  b.span(n),
			flags: flags,
		})
	case "attribute":
		b.exprRefs(n.ChildByFieldName("object"), flags)
	case "keyword_argument":
		b.exprRefs(n.ChildByFieldName("value"), flags)
	case "string", "comment":
	default:
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.exprRefs(n.NamedChild(i), flags)
		}
	}
}

// annotationFlags decides what context an annotation's names live in.
// Inside a runtime-required class the annotation is a plain runtime
// expression. Under `from __future__ import annotations` (or inside a
// guard) the annotation never evaluates. Otherwise the interpreter
// evaluates it, but the value only feeds type tooling, so it can be quoted.
func (b *binder) annotationFlags(ctx blockCtx) semantic.RefFlags {
	if ctx.runtimeRequiredClass {
		return ctx.baseFlags()
	}
	if b.m.FutureAnnotations || ctx.inTypeChecking {
		return ctx.baseFlags() | semantic.RefInTypingOnlyAnnotation
	}
	return ctx.baseFlags() | semantic.RefInRuntimeEvaluatedAnnotation
}

// annotationRefs walks an annotation expression. depth tracks nesting:
// a string at depth 0 is a whole-annotation forward reference, anything
// deeper is a composed one.
func (b *binder) annotationRefs(n *sitter.Node, ctx blockCtx, depth int) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "string":
		b.stringAnnotation(n, ctx, depth)
	case "identifier":
		b.pending = append(b.pending, pendingRef{
			name:  b.intern(b.text(n)),
			scope: b.scope,
			span:  b.span(n),
			flags: b.annotationFlags(ctx),
		})
	case "attribute":
		b.annotationRefs(n.ChildByFieldName("object"), ctx, depth)
	case "subscript":
		value := n.ChildByFieldName("value")
		b.annotationRefs(value, ctx, depth)
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if value != nil && child.StartByte() == value.StartByte() {
				continue
			}
			b.annotationRefs(child, ctx, depth+1)
		}
	case "parenthesized_expression":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.annotationRefs(n.NamedChild(i), ctx, depth)
		}
	case "comment":
	default:
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.annotationRefs(n.NamedChild(i), ctx, depth+1)
		}
	}
}

// stringAnnotation records references for names spelled inside a string
// annotation. Each dotted chain contributes one reference for its leading
// segment, positioned inside the string so quoting edits can target it.
func (b *binder) stringAnnotation(n *sitter.Node, ctx blockCtx, depth int) {
	flag := semantic.RefInSimpleStringAnnotation
	if depth > 0 {
		flag = semantic.RefInComplexStringAnnotation
	}
	flags := ctx.baseFlags() | flag
	if ctx.runtimeRequiredClass {
		// Runtime-required classes resolve their string annotations while
		// the program runs; names inside still need the import live.
		flags = ctx.baseFlags()
	}

	text := b.text(n)
	start, content := stringContent(text)
	if content == "" {
		return
	}
	base := b.span(n).Start + start

	i := 0
	for i < len(content) {
		c := content[i]
		if !identStart(c) {
			i++
			continue
		}
		j := i
		for j < len(content) && identChar(content[j]) {
			j++
		}
		b.pending = append(b.pending, pendingRef{
			name:  b.intern(content[i:j]),
			scope: b.scope,
			span:  source.Span{File: b.f.ID, Start: base + uint32(i), End: base + uint32(j)},
			flags: flags,
		})
		// Trailing attribute segments belong to the same chain and never
		// resolve to their own binding.
		for j < len(content) && (content[j] == '.' || identChar(content[j])) {
			j++
		}
		i = j
	}
}

// stringContent strips the prefix letters and quotes off a string literal,
// returning the content's offset within the literal and the content itself.
func stringContent(text string) (uint32, string) {
	i := 0
	for i < len(text) && text[i] != '\'' && text[i] != '"' {
		i++
	}
	if i == len(text) {
		return 0, ""
	}
	q := text[i]
	qlen := 1
	if i+2 < len(text) && text[i+1] == q && text[i+2] == q {
		qlen = 3
	}
	start := i + qlen
	end := len(text) - qlen
	if end <= start {
		return 0, ""
	}
	return uint32(start), text[start:end]
}

func identStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func identChar(c byte) bool {
	return identStart(c) || (c >= '0' && c <= '9')
}

// resolvePath maps a base-class or decorator expression to a dotted path,
// following import bindings so `BaseModel` imported from pydantic resolves
// to "pydantic.BaseModel". Locally defined names resolve to themselves.
func (b *binder) resolvePath(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "identifier":
		name := b.text(n)
		if id := b.lookupChain(b.scope, b.intern(name)); id.IsValid() {
			if bd := b.m.Binding(id); bd != nil && bd.Kind.IsImport() {
				return bd.QualifiedName
			}
		}
		return name
	case "attribute":
		base := b.resolvePath(n.ChildByFieldName("object"))
		attr := n.ChildByFieldName("attribute")
		if base == "" || attr == nil {
			return ""
		}
		return base + "." + b.text(attr)
	default:
		return ""
	}
}
