// Package pyparse turns Python source into the semantic model the
// typing-only analysis consumes: scopes, bindings, use-sites with their
// execution context, import statements, TYPE_CHECKING blocks, and
// suppression directives. Parsing is done with tree-sitter.
package pyparse

import (
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/text/unicode/norm"

	"typefence/internal/diag"
	"typefence/internal/semantic"
	"typefence/internal/source"
	"typefence/internal/typingonly"
)

// Options tunes semantic binding.
type Options struct {
	// RuntimeRequiredBaseClasses and RuntimeRequiredDecorators identify
	// classes whose annotations must stay evaluable at runtime. References
	// in such annotations are recorded as plain runtime uses.
	RuntimeRequiredBaseClasses []string
	RuntimeRequiredDecorators  []string
}

// Bind parses the file and builds its semantic model. Syntax errors are
// reported but never abort binding; tree-sitter recovers and the model
// covers whatever parsed.
func Bind(fs *source.FileSet, id source.FileID, interner *source.Interner, opts Options, r diag.Reporter) (*semantic.Model, error) {
	f := fs.Get(id)
	tree, err := parse(f.Content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	root := tree.RootNode()

	m := semantic.NewModel(id, interner)
	b := &binder{m: m, fs: fs, f: f, src: f.Content, opts: opts}

	if root.HasError() {
		diag.ReportWarning(r, diag.PrsSyntaxError, b.span(root),
			"file has syntax errors; typing-only analysis may be incomplete").Emit()
	}

	b.scope = m.NewScope(semantic.ScopeModule, semantic.NoScopeID, b.span(root))
	b.scanExtras(root)
	if b.singleQuotes > b.doubleQuotes {
		m.QuoteChar = '\''
	}
	b.block(root, blockCtx{})
	b.resolveRefs()
	return m, nil
}

type pendingRef struct {
	name  source.StringID
	scope semantic.ScopeID
	span  source.Span
	flags semantic.RefFlags
}

type blockCtx struct {
	inTypeChecking bool
	// parent is the innermost enclosing compound statement, zero at the
	// top level. Imports record it for diagnostic positioning and fix
	// isolation.
	parent source.Span
	// runtimeRequiredClass marks class bodies whose annotations the
	// interpreter must be able to evaluate.
	runtimeRequiredClass bool
}

// baseFlags is what a plain runtime expression picks up from its context.
func (c blockCtx) baseFlags() semantic.RefFlags {
	if c.inTypeChecking {
		return semantic.RefInTypeCheckingBlock
	}
	return 0
}

type binder struct {
	m       *semantic.Model
	fs      *source.FileSet
	f       *source.File
	src     []byte
	opts    Options
	scope   semantic.ScopeID
	pending []pendingRef

	singleQuotes int
	doubleQuotes int
}

func (b *binder) span(n *sitter.Node) source.Span {
	start, err := safecast.Conv[uint32](n.StartByte())
	if err != nil {
		panic(fmt.Errorf("node offset overflow: %w", err))
	}
	end, err := safecast.Conv[uint32](n.EndByte())
	if err != nil {
		panic(fmt.Errorf("node offset overflow: %w", err))
	}
	return source.Span{File: b.f.ID, Start: start, End: end}
}

func (b *binder) text(n *sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

// intern normalizes an identifier to NFKC before interning, matching how
// the interpreter folds identifier spellings.
func (b *binder) intern(name string) source.StringID {
	return b.m.Interner.Intern(norm.NFKC.String(name))
}

func (b *binder) block(n *sitter.Node, ctx blockCtx) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		b.stmt(n.NamedChild(i), ctx)
	}
}

func (b *binder) stmt(n *sitter.Node, ctx blockCtx) {
	switch n.Kind() {
	case "future_import_statement":
		b.futureImport(n, ctx)
	case "import_statement":
		b.importStmt(n, ctx)
	case "import_from_statement":
		b.importFromStmt(n, ctx)
	case "if_statement":
		b.ifStmt(n, ctx)
	case "decorated_definition":
		b.decorated(n, ctx)
	case "function_definition":
		b.funcDef(n, ctx, nil)
	case "class_definition":
		b.classDef(n, ctx, nil)
	case "expression_statement":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			switch child.Kind() {
			case "assignment":
				b.assign(child, ctx)
			case "augmented_assignment":
				b.exprRefs(child.ChildByFieldName("left"), ctx.baseFlags())
				b.exprRefs(child.ChildByFieldName("right"), ctx.baseFlags())
			default:
				b.exprRefs(child, ctx.baseFlags())
			}
		}
	case "for_statement", "while_statement", "with_statement", "try_statement", "match_statement":
		b.compound(n, ctx)
	case "global_statement", "nonlocal_statement":
		// Declarations, not uses.
	case "comment":
	default:
		if body := n.ChildByFieldName("body"); body != nil {
			b.compound(n, ctx)
			return
		}
		b.exprRefs(n, ctx.baseFlags())
	}
}

// compound walks a statement with nested blocks: the blocks recurse as
// statements with this node as parent, everything else is expression
// context.
func (b *binder) compound(n *sitter.Node, ctx blockCtx) {
	inner := ctx
	inner.parent = b.span(n)
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "block":
			b.block(child, inner)
		case "elif_clause", "else_clause", "except_clause", "finally_clause", "case_clause", "with_clause":
			b.compound(child, ctx)
		default:
			b.exprRefs(child, ctx.baseFlags())
		}
	}
}

func (b *binder) assign(n *sitter.Node, ctx blockCtx) {
	if left := n.ChildByFieldName("left"); left != nil {
		b.bindTargets(left)
	}
	if typ := n.ChildByFieldName("type"); typ != nil {
		b.annotationRefs(typ, ctx, 0)
	}
	if right := n.ChildByFieldName("right"); right != nil {
		b.exprRefs(right, ctx.baseFlags())
	}
}

// bindTargets introduces assignment targets as shadowing bindings;
// attribute and subscript targets are uses, not bindings.
func (b *binder) bindTargets(n *sitter.Node) {
	switch n.Kind() {
	case "identifier":
		b.m.NewBinding(semantic.Binding{
			Kind:  semantic.BindingOther,
			Name:  b.intern(b.text(n)),
			Scope: b.scope,
			Span:  b.span(n),
		})
	case "attribute", "subscript":
		b.exprRefs(n, 0)
	default:
		for i := uint(0); i < n.NamedChildCount(); i++ {
			b.bindTargets(n.NamedChild(i))
		}
	}
}

func (b *binder) ifStmt(n *sitter.Node, ctx blockCtx) {
	cond := n.ChildByFieldName("condition")
	body := n.ChildByFieldName("consequence")
	if cond != nil {
		b.exprRefs(cond, ctx.baseFlags())
	}

	inner := ctx
	inner.parent = b.span(n)
	if cond != nil && isTypeCheckingExpr(b, cond) {
		if body != nil {
			b.m.TypeCheckingBlocks = append(b.m.TypeCheckingBlocks, b.span(body))
			guarded := inner
			guarded.inTypeChecking = true
			b.block(body, guarded)
		}
	} else if body != nil {
		b.block(body, inner)
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "elif_clause" || child.Kind() == "else_clause" {
			b.compound(child, ctx)
		}
	}
}

// isTypeCheckingExpr recognizes TYPE_CHECKING and <module>.TYPE_CHECKING
// guard conditions.
func isTypeCheckingExpr(b *binder, n *sitter.Node) bool {
	switch n.Kind() {
	case "identifier":
		return b.text(n) == "TYPE_CHECKING"
	case "attribute":
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			return b.text(attr) == "TYPE_CHECKING"
		}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return isTypeCheckingExpr(b, n.NamedChild(0))
		}
	}
	return false
}

func (b *binder) decorated(n *sitter.Node, ctx blockCtx) {
	var decorators []string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "decorator":
			if child.NamedChildCount() > 0 {
				expr := child.NamedChild(0)
				if path := b.resolvePath(unwrapCall(expr)); path != "" {
					decorators = append(decorators, path)
				}
				b.exprRefs(expr, ctx.baseFlags())
			}
		case "function_definition":
			b.funcDef(child, ctx, decorators)
		case "class_definition":
			b.classDef(child, ctx, decorators)
		}
	}
}

// unwrapCall maps a decorator call to its callee, so `@define(frozen=True)`
// matches the configured path `attrs.define`.
func unwrapCall(n *sitter.Node) *sitter.Node {
	if n.Kind() == "call" {
		if fn := n.ChildByFieldName("function"); fn != nil {
			return fn
		}
	}
	return n
}

func (b *binder) funcDef(n *sitter.Node, ctx blockCtx, decorators []string) {
	if name := n.ChildByFieldName("name"); name != nil {
		b.m.NewBinding(semantic.Binding{
			Kind:  semantic.BindingOther,
			Name:  b.intern(b.text(name)),
			Scope: b.scope,
			Span:  b.span(name),
		})
	}

	fnScope := b.m.NewScope(semantic.ScopeFunction, b.scope, b.span(n))
	if sc := b.m.Scope(fnScope); sc != nil {
		sc.Decorators = decorators
	}

	// Parameter annotations and defaults evaluate in the enclosing scope
	// when the function object is created; the names bind inside.
	if params := n.ChildByFieldName("parameters"); params != nil {
		b.parameters(params, ctx, fnScope)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		b.annotationRefs(ret, ctx, 0)
	}

	if body := n.ChildByFieldName("body"); body != nil {
		prev := b.scope
		b.scope = fnScope
		inner := ctx
		inner.parent = b.span(n)
		inner.runtimeRequiredClass = false
		b.block(body, inner)
		b.scope = prev
	}
}

func (b *binder) parameters(params *sitter.Node, ctx blockCtx, fnScope semantic.ScopeID) {
	bindParam := func(name *sitter.Node) {
		if name == nil || name.Kind() != "identifier" {
			return
		}
		b.m.NewBinding(semantic.Binding{
			Kind:  semantic.BindingOther,
			Name:  b.intern(b.text(name)),
			Scope: fnScope,
			Span:  b.span(name),
		})
	}

	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case "identifier":
			bindParam(p)
		case "typed_parameter":
			if p.NamedChildCount() > 0 {
				bindParam(p.NamedChild(0))
			}
			if typ := p.ChildByFieldName("type"); typ != nil {
				b.annotationRefs(typ, ctx, 0)
			}
		case "default_parameter":
			bindParam(p.ChildByFieldName("name"))
			if val := p.ChildByFieldName("value"); val != nil {
				b.exprRefs(val, ctx.baseFlags())
			}
		case "typed_default_parameter":
			bindParam(p.ChildByFieldName("name"))
			if typ := p.ChildByFieldName("type"); typ != nil {
				b.annotationRefs(typ, ctx, 0)
			}
			if val := p.ChildByFieldName("value"); val != nil {
				b.exprRefs(val, ctx.baseFlags())
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if p.NamedChildCount() > 0 {
				bindParam(p.NamedChild(0))
			}
		}
	}
}

func (b *binder) classDef(n *sitter.Node, ctx blockCtx, decorators []string) {
	if name := n.ChildByFieldName("name"); name != nil {
		b.m.NewBinding(semantic.Binding{
			Kind:  semantic.BindingOther,
			Name:  b.intern(b.text(name)),
			Scope: b.scope,
			Span:  b.span(name),
		})
	}

	var bases []string
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			base := supers.NamedChild(i)
			if base.Kind() == "keyword_argument" {
				if val := base.ChildByFieldName("value"); val != nil {
					b.exprRefs(val, ctx.baseFlags())
				}
				continue
			}
			if path := b.resolvePath(base); path != "" {
				bases = append(bases, path)
			}
			b.exprRefs(base, ctx.baseFlags())
		}
	}

	clsScope := b.m.NewScope(semantic.ScopeClass, b.scope, b.span(n))
	sc := b.m.Scope(clsScope)
	sc.Bases = bases
	sc.Decorators = decorators

	if body := n.ChildByFieldName("body"); body != nil {
		prev := b.scope
		b.scope = clsScope
		inner := ctx
		inner.parent = b.span(n)
		inner.runtimeRequiredClass = typingonly.ClassRequiresRuntimeImport(
			sc, b.opts.RuntimeRequiredBaseClasses, b.opts.RuntimeRequiredDecorators)
		b.block(body, inner)
		b.scope = prev
	}
}

// resolveRefs attaches every recorded use-site to the binding its name
// resolves to. Unresolvable names are not errors; they are globals,
// builtins, or names from star imports.
func (b *binder) resolveRefs() {
	for _, ref := range b.pending {
		id := b.lookupChain(ref.scope, ref.name)
		if !id.IsValid() {
			continue
		}
		b.m.NewRef(id, semantic.Reference{Span: ref.span, Scope: ref.scope, Flags: ref.flags})
	}
}

// lookupChain resolves a name through enclosing scopes. Class scopes are
// only consulted when the reference sits directly in the class body.
func (b *binder) lookupChain(scope semantic.ScopeID, name source.StringID) semantic.BindingID {
	first := true
	for s := scope; s.IsValid(); {
		sc := b.m.Scope(s)
		if sc == nil {
			break
		}
		if first || sc.Kind != semantic.ScopeClass {
			if id := sc.Lookup(name); id.IsValid() {
				return id
			}
		}
		first = false
		s = sc.Parent
	}
	return semantic.NoBindingID
}
