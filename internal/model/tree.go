package model

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// ModuleID indexes a Module within its Tree.
type ModuleID int

const noModule ModuleID = -1

// Node is a child of a Module: either *Module or *File.
type Node interface {
	Key() string
	node()
}

// Tree owns every Module and File of one package. Nodes refer to their
// parent by ModuleID and resolve it through the tree.
type Tree struct {
	modules []*Module
	files   []*File
}

// NewTree returns a tree whose root module is named after the last element
// of root.
func NewTree(root string) *Tree {
	dir, err := filepath.Abs(root)
	if err != nil {
		dir = filepath.Clean(root)
	}
	t := &Tree{}
	name := filepath.Base(dir)
	t.newModule(name, name, dir, "", noModule)
	return t
}

func (t *Tree) newModule(name, modPath, dir, rel string, parent ModuleID) *Module {
	m := &Module{
		Name:   name,
		Path:   modPath,
		Dir:    dir,
		rel:    rel,
		id:     ModuleID(len(t.modules)),
		parent: parent,
		tree:   t,
		nested: make(map[string]Node),
	}
	t.modules = append(t.modules, m)
	return m
}

func (t *Tree) module(id ModuleID) *Module {
	if id < 0 || int(id) >= len(t.modules) {
		return nil
	}
	return t.modules[id]
}

// Root returns the package's root module.
func (t *Tree) Root() *Module { return t.modules[0] }

// Len returns the number of files in the tree.
func (t *Tree) Len() int { return len(t.files) }

// ModuleCount returns the number of modules, the root included.
func (t *Tree) ModuleCount() int { return len(t.modules) }

// Add parses the file at fsPath and inserts it under the root.
func (t *Tree) Add(ctx context.Context, fsPath string) (bool, error) {
	return t.Root().Add(ctx, fsPath)
}

// Insert attaches an already parsed file using its root-relative Path.
// It reports false when the key is already taken.
func (t *Tree) Insert(f *File) bool {
	return t.Root().insert(strings.Split(f.Path, "/"), f)
}

// Module is a directory of the package.
type Module struct {
	Name string
	// Path is the root module's name joined with the directory segments,
	// e.g. pkg/sub.
	Path string
	// Dir is the filesystem directory.
	Dir string

	rel    string
	id     ModuleID
	parent ModuleID
	tree   *Tree
	nested map[string]Node
}

// Key is the segment the module is stored under in its parent.
func (m *Module) Key() string { return m.Name }

func (*Module) node() {}

// Tree returns the tree owning m.
func (m *Module) Tree() *Tree { return m.tree }

// Parent returns the enclosing module, or nil for the root.
func (m *Module) Parent() *Module { return m.tree.module(m.parent) }

// Add parses the file at fsPath, which must live under m.Dir, and inserts
// it below m. It reports false when the filename is already taken.
func (m *Module) Add(ctx context.Context, fsPath string) (bool, error) {
	abs, err := filepath.Abs(fsPath)
	if err != nil {
		return false, fmt.Errorf("model: add %s: %w", fsPath, err)
	}
	rel, err := filepath.Rel(m.Dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, fmt.Errorf("model: add %s: %w", fsPath, ErrOutsideModule)
	}
	rel = filepath.ToSlash(rel)

	f, err := ParseFile(ctx, path.Join(m.rel, rel), fsPath)
	if err != nil {
		return false, err
	}
	return m.insert(strings.Split(rel, "/"), f), nil
}

// Insert attaches f below m. f.Path must be relative to the package root
// and lie under m.
func (m *Module) Insert(f *File) bool {
	rel := f.Path
	if m.rel != "" {
		if !strings.HasPrefix(rel, m.rel+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, m.rel+"/")
	}
	return m.insert(strings.Split(rel, "/"), f)
}

// insert walks or creates a module for each leading segment and stores f
// under the last one. The first entry stored under a key wins.
func (m *Module) insert(segments []string, f *File) bool {
	cur := m
	for _, seg := range segments[:len(segments)-1] {
		switch child := cur.nested[seg].(type) {
		case *Module:
			cur = child
		case nil:
			next := m.tree.newModule(seg, path.Join(cur.Path, seg), filepath.Join(cur.Dir, seg), path.Join(cur.rel, seg), cur.id)
			cur.nested[seg] = next
			cur = next
		default:
			return false
		}
	}

	key := segments[len(segments)-1]
	if _, taken := cur.nested[key]; taken {
		return false
	}
	f.tree = m.tree
	f.parent = cur.id
	f.identify(cur)
	cur.nested[key] = f
	m.tree.files = append(m.tree.files, f)
	return true
}

// Keys returns the child keys in lexicographic order.
func (m *Module) Keys() []string {
	keys := make([]string, 0, len(m.nested))
	for k := range m.nested {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Children returns every child in key order.
func (m *Module) Children() []Node {
	out := make([]Node, 0, len(m.nested))
	for _, k := range m.Keys() {
		out = append(out, m.nested[k])
	}
	return out
}

// Files returns the files directly in m, in key order.
func (m *Module) Files() []*File {
	var out []*File
	for _, k := range m.Keys() {
		if f, ok := m.nested[k].(*File); ok {
			out = append(out, f)
		}
	}
	return out
}

// SubModules returns the modules directly in m, in key order.
func (m *Module) SubModules() []*Module {
	var out []*Module
	for _, k := range m.Keys() {
		if sub, ok := m.nested[k].(*Module); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Contains reports whether key names a direct child.
func (m *Module) Contains(key string) bool {
	_, ok := m.nested[key]
	return ok
}

// Get returns the direct child stored under key.
func (m *Module) Get(key string) (Node, bool) {
	n, ok := m.nested[key]
	return n, ok
}

// File returns the file stored under key, or nil.
func (m *Module) File(key string) *File {
	f, _ := m.nested[key].(*File)
	return f
}

// Module returns the sub-module stored under key, or nil.
func (m *Module) Module(key string) *Module {
	sub, _ := m.nested[key].(*Module)
	return sub
}

// Init returns the package initializer, or nil.
func (m *Module) Init() *File {
	for _, name := range InitFileNames {
		if f := m.File(name); f != nil {
			return f
		}
	}
	return nil
}

// URL is the initializer's url, or "/" when the module has none.
func (m *Module) URL() string {
	if f := m.Init(); f != nil {
		return f.URL()
	}
	return "/"
}

// Docstring is the initializer's docstring.
func (m *Module) Docstring() string {
	if f := m.Init(); f != nil {
		return f.Docstring
	}
	return ""
}

// Walk calls fn for m and every descendant, depth first in key order.
// Returning an error stops the walk.
func (m *Module) Walk(fn func(Node) error) error {
	if err := fn(m); err != nil {
		return err
	}
	for _, child := range m.Children() {
		switch c := child.(type) {
		case *Module:
			if err := c.Walk(fn); err != nil {
				return err
			}
		default:
			if err := fn(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pretty renders an indented outline of the module and its children.
func (m *Module) Pretty() string {
	var b strings.Builder
	m.pretty(&b, 0)
	return b.String()
}

func (m *Module) pretty(b *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s%s/\n", indent, m.Name)
	for _, child := range m.Children() {
		switch c := child.(type) {
		case *Module:
			c.pretty(b, depth+1)
		case *File:
			fmt.Fprintf(b, "%s  %s\n", indent, c.Key())
		}
	}
}
