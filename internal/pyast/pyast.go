// Package pyast wraps the tree-sitter Python grammar and exposes the small
// set of node helpers the documentation model needs.
package pyast

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// DefaultExtensions are the file extensions treated as Python source.
var DefaultExtensions = []string{".py"}

var (
	grammar     *sitter.Language
	grammarOnce sync.Once
)

// Language returns the tree-sitter Python grammar. Initialized once.
func Language() *sitter.Language {
	grammarOnce.Do(func() {
		grammar = python.GetLanguage()
	})
	return grammar
}

// IsSource reports whether path carries one of the given extensions.
// A nil or empty list falls back to DefaultExtensions.
func IsSource(path string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// Tree is a parsed Python source file.
type Tree struct {
	Path   string
	Source []byte
	Root   *sitter.Node

	tree *sitter.Tree
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns the source text covered by n.
func (t *Tree) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.Source)
}

// Parse parses src as Python. A tree containing error or missing nodes is
// reported as a *SyntaxError located at the first offending node.
func Parse(ctx context.Context, path string, src []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("pyast: parse %s: %w", path, err)
	}

	t := &Tree{Path: path, Source: src, Root: tree.RootNode(), tree: tree}
	if t.Root.HasError() {
		serr := &SyntaxError{Path: path, Message: "invalid syntax"}
		if bad := firstError(t.Root); bad != nil {
			pt := bad.StartPoint()
			serr.Line = int(pt.Row) + 1
			serr.Column = int(pt.Column) + 1
			if bad.IsMissing() {
				serr.Message = fmt.Sprintf("missing %s", bad.Type())
			} else if text := strings.TrimSpace(t.Text(bad)); text != "" {
				serr.Message = fmt.Sprintf("unexpected %q", firstLine(text))
			}
		}
		t.Close()
		return nil, serr
	}
	return t, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := range int(n.ChildCount()) {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// NamedChildren returns the named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := range count {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// Children returns every child of n, named or not.
func Children(n *sitter.Node) []*sitter.Node {
	count := int(n.ChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := range count {
		out = append(out, n.Child(i))
	}
	return out
}

// Field returns the child stored under name, or nil.
func Field(n *sitter.Node, name string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(name)
}

// HasToken reports whether n has an anonymous child with the given type,
// e.g. "async" on a function definition or "|" on a binary operator.
func HasToken(n *sitter.Node, token string) bool {
	for _, c := range Children(n) {
		if !c.IsNamed() && c.Type() == token {
			return true
		}
	}
	return false
}

// Line returns the 1-based start line of n.
func Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// Column returns the 1-based start column of n.
func Column(n *sitter.Node) int {
	return int(n.StartPoint().Column) + 1
}
