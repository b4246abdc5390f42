package pyparse

import (
	"errors"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var pythonLang = sitter.NewLanguage(tree_sitter_python.Language())

// parserPool recycles tree-sitter parser instances so parallel file checks
// do not pay the allocation cost per file.
var parserPool = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(pythonLang)
		return p
	},
}

// ErrParseFailed is returned when tree-sitter produces no tree at all.
// Files with recoverable syntax errors still yield a tree.
var ErrParseFailed = errors.New("parse failed")

// parse produces a syntax tree for normalized file content. The caller must
// Close the tree.
func parse(content []byte) (*sitter.Tree, error) {
	p := parserPool.Get().(*sitter.Parser)
	defer func() {
		p.Reset()
		parserPool.Put(p)
	}()
	tree := p.Parse(content, nil)
	if tree == nil {
		return nil, ErrParseFailed
	}
	return tree, nil
}
