package model

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Tired-Fox/papi/internal/pyast"
)

// InitFileNames are the package initializer filenames. An initializer
// takes its module's name and url.
var InitFileNames = []string{"__init__.py", "__init__.pyi"}

func isInitFile(name string) bool {
	for _, n := range InitFileNames {
		if name == n {
			return true
		}
	}
	return false
}

// File is one parsed source file.
type File struct {
	// Path is the slash-separated path relative to the package root.
	Path string
	// FullPath is the filesystem path the file was read from.
	FullPath  string
	Docstring string
	Source    string

	entities    []Entity
	imports     []*Import
	public      []Entity
	protected   []Entity
	private     []Entity
	methods     []*Method
	classes     []*Class
	assignments []Entity

	name   string
	url    string
	tree   *Tree
	parent ModuleID
}

// ParseFile reads and parses the file at fullPath. relPath is its path
// relative to the package root.
func ParseFile(ctx context.Context, relPath, fullPath string) (*File, error) {
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, &NotAFileError{Path: fullPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &NotAFileError{Path: fullPath}
	}
	src, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, &NotAFileError{Path: fullPath, Err: err}
	}
	f, err := ParseSource(ctx, relPath, src)
	if err != nil {
		return nil, err
	}
	f.FullPath = fullPath
	return f, nil
}

// ParseSource parses src as the file at relPath.
func ParseSource(ctx context.Context, relPath string, src []byte) (*File, error) {
	relPath = filepath.ToSlash(relPath)
	tree, err := pyast.Parse(ctx, relPath, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	f := &File{
		Path:     relPath,
		FullPath: relPath,
		Source:   string(src),
		parent:   noModule,
	}
	if err := f.build(&parser{tree: tree}); err != nil {
		return nil, err
	}
	f.identify(nil)
	return f, nil
}

// build routes the top-level statements into entities.
func (f *File) build(p *parser) error {
	var last Entity
	for i, stmt := range statements(p.tree.Root) {
		if doc, ok := p.docString(stmt); ok {
			switch {
			case i == 0:
				f.Docstring = NormalizeDocstring(doc)
			case last != nil:
				last.setDoc(doc)
			}
			last = nil
			continue
		}
		last = nil

		if a := assignment(stmt); a != nil {
			e, err := p.assign(a)
			if err != nil {
				return err
			}
			if e != nil {
				f.entities = append(f.entities, e)
				last = e
			}
			continue
		}

		switch stmt.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			f.imports = append(f.imports, p.importStatement(stmt))
			continue
		}

		def, decs := p.definition(stmt)
		if def == nil {
			continue
		}
		switch def.Type() {
		case "function_definition":
			m, err := p.method(def, decs)
			if err != nil {
				return err
			}
			f.entities = append(f.entities, m)
		case "class_definition":
			c, err := p.class(def, decs)
			if err != nil {
				return err
			}
			f.entities = append(f.entities, c)
		}
	}

	for _, e := range f.entities {
		switch VisibilityOf(e.Ident()) {
		case Public:
			f.public = append(f.public, e)
		case Protected:
			f.protected = append(f.protected, e)
		default:
			f.private = append(f.private, e)
		}
		switch v := e.(type) {
		case *Method:
			f.methods = append(f.methods, v)
		case *Class:
			f.classes = append(f.classes, v)
		case *Assign, *AnnAssign:
			f.assignments = append(f.assignments, v)
		}
	}
	return nil
}

// identify derives the name and url from the path and the owning module.
func (f *File) identify(parent *Module) {
	base := path.Base(f.Path)
	f.name = strings.TrimSuffix(base, path.Ext(base))
	if parent != nil && isInitFile(base) {
		f.name = parent.Name
	}

	var parts []string
	if dir := path.Dir(f.Path); dir != "." {
		parts = strings.Split(dir, "/")
	}
	if parent == nil || f.name != parent.Name {
		parts = append(parts, f.name)
	}
	if len(parts) == 0 {
		f.url = "/"
		return
	}
	f.url = "/" + strings.Join(parts, "/") + "/"
}

// Name is the filename without extension, or the owning module's name for
// a package initializer.
func (f *File) Name() string { return f.name }

// URL is the file's address for rendering, e.g. /sub/mod/.
func (f *File) URL() string { return f.url }

// Key is the filename the file is stored under in its module.
func (f *File) Key() string { return path.Base(f.Path) }

// IsInit reports whether the file is a package initializer.
func (f *File) IsInit() bool { return isInitFile(f.Key()) }

// Parent returns the owning module, or nil before insertion.
func (f *File) Parent() *Module {
	if f.tree == nil {
		return nil
	}
	return f.tree.module(f.parent)
}

// Objects returns the file's entities in source order, imports excluded.
func (f *File) Objects() []Entity { return f.entities }

// Public returns entities whose name has no leading underscore.
func (f *File) Public() []Entity { return f.public }

// Protected returns entities whose name starts with exactly one underscore.
func (f *File) Protected() []Entity { return f.protected }

// Private returns entities whose name starts with two underscores.
func (f *File) Private() []Entity { return f.private }

// Methods returns the module-level functions.
func (f *File) Methods() []*Method { return f.methods }

// Classes returns the module-level classes.
func (f *File) Classes() []*Class { return f.classes }

// Assignments returns the module-level Assign and AnnAssign entities.
func (f *File) Assignments() []Entity { return f.assignments }

// Imports returns the top-level import statements in source order.
func (f *File) Imports() []*Import { return f.imports }

func (*File) node() {}
