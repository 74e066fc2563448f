package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tired-Fox/papi/internal/model"
)

// WriteTree inserts the module tree rooted at root as a new export within
// a single transaction. Modules are inserted before their files, files
// before their entities, and classes before their members, so every
// parent_id already exists when a child row is written.
func (s *Store) WriteTree(ctx context.Context, root *model.Module) (*Export, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: write tree: begin: %w", err)
	}
	defer tx.Rollback()

	exp := &Export{
		RunID:     uuid.NewString(),
		Root:      root.Dir,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO exports (run_id, root, created_at) VALUES (?, ?, ?)",
		exp.RunID, exp.Root, exp.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: write tree: export: %w", err)
	}
	if exp.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("store: write tree: last insert id: %w", err)
	}

	w := &treeWriter{ctx: ctx, tx: tx, exportID: exp.ID, modules: make(map[*model.Module]int64)}
	err = root.Walk(func(n model.Node) error {
		switch v := n.(type) {
		case *model.Module:
			return w.module(v)
		case *model.File:
			return w.file(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: write tree: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: write tree: commit: %w", err)
	}
	return exp, nil
}

// treeWriter carries the transaction and the module ids assigned so far.
type treeWriter struct {
	ctx      context.Context
	tx       *sql.Tx
	exportID int64
	modules  map[*model.Module]int64
}

func (w *treeWriter) insert(query string, args ...any) (int64, error) {
	res, err := w.tx.ExecContext(w.ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (w *treeWriter) module(m *model.Module) error {
	var parentID *int64
	if p := m.Parent(); p != nil {
		id := w.modules[p]
		parentID = &id
	}
	id, err := w.insert(
		"INSERT INTO modules (export_id, parent_id, name, path, url, docstring) VALUES (?, ?, ?, ?, ?, ?)",
		w.exportID, parentID, m.Name, m.Path, m.URL(), nullable(m.Docstring()),
	)
	if err != nil {
		return fmt.Errorf("module %s: %w", m.Path, err)
	}
	w.modules[m] = id
	return nil
}

func (w *treeWriter) file(f *model.File) error {
	fileID, err := w.insert(
		`INSERT INTO files (export_id, module_id, path, full_path, name, url, docstring)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.exportID, w.modules[f.Parent()], f.Path, f.FullPath, f.Name(), f.URL(), nullable(f.Docstring),
	)
	if err != nil {
		return fmt.Errorf("file %s: %w", f.Path, err)
	}

	for i, e := range f.Objects() {
		if err := w.entity(fileID, nil, "", i, e); err != nil {
			return fmt.Errorf("file %s: %w", f.Path, err)
		}
	}
	for i, imp := range f.Imports() {
		_, err := w.insert(
			"INSERT INTO imports (file_id, module, names, level, code, ordinal) VALUES (?, ?, ?, ?, ?, ?)",
			fileID, nullable(imp.Module), marshalNames(imp.Names), imp.Level, imp.Code(), i,
		)
		if err != nil {
			return fmt.Errorf("file %s: import %q: %w", f.Path, imp.Code(), err)
		}
	}
	return nil
}

// entity inserts e and, for classes, its members below it.
func (w *treeWriter) entity(fileID int64, parentID *int64, prefix string, ordinal int, e model.Entity) error {
	row := &Entity{
		FileID:     fileID,
		ParentID:   parentID,
		Kind:       string(e.Kind()),
		Name:       e.Ident(),
		QualName:   prefix + e.Ident(),
		Visibility: string(model.VisibilityOf(e.Ident())),
		Code:       e.Code(),
		Docstring:  e.Doc(),
		Ordinal:    ordinal,
	}
	var args []*Argument
	switch v := e.(type) {
	case *model.Assign:
		if !model.IsMissing(v.Value) {
			row.Value = v.Value.String()
		}
	case *model.AnnAssign:
		row.Annotation = v.Annotation.String()
		if !model.IsMissing(v.Value) {
			row.Value = v.Value.String()
		}
	case *model.Method:
		row.Async = v.Async
		if v.Returns != nil {
			row.Returns = v.Returns.String()
		}
		args = methodArguments(v)
	}
	row.SignatureHash = ComputeSignatureHash(row.Kind, row.QualName, row.Code, args)

	id, err := w.insert(
		`INSERT INTO entities (file_id, parent_id, kind, name, qualname, visibility, code, docstring,
			annotation, value, returns, async, signature_hash, ordinal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.FileID, row.ParentID, row.Kind, row.Name, row.QualName, row.Visibility, row.Code,
		nullable(row.Docstring), nullable(row.Annotation), nullable(row.Value), nullable(row.Returns),
		row.Async, row.SignatureHash, row.Ordinal,
	)
	if err != nil {
		return fmt.Errorf("entity %s: %w", row.QualName, err)
	}

	for _, a := range args {
		_, err := w.insert(
			`INSERT INTO arguments (entity_id, ordinal, kind, name, annotation, has_default, default_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, a.Ordinal, a.Kind, a.Name, nullable(a.Annotation), a.HasDefault, nullable(a.Default),
		)
		if err != nil {
			return fmt.Errorf("entity %s: argument %s: %w", row.QualName, a.Name, err)
		}
	}

	c, ok := e.(*model.Class)
	if !ok {
		return nil
	}
	prefix = row.QualName + "."
	n := 0
	for _, attr := range c.Attributes {
		if err := w.entity(fileID, &id, prefix, n, attr); err != nil {
			return err
		}
		n++
	}
	for _, m := range c.Methods {
		if err := w.entity(fileID, &id, prefix, n, m); err != nil {
			return err
		}
		n++
	}
	for _, nested := range c.Classes {
		if err := w.entity(fileID, &id, prefix, n, nested); err != nil {
			return err
		}
		n++
	}
	return nil
}

// methodArguments flattens a method's parameters in declaration order.
func methodArguments(m *model.Method) []*Argument {
	var out []*Argument
	add := func(kind string, a *model.Argument) {
		arg := &Argument{Ordinal: len(out), Kind: kind, Name: a.Name}
		if a.Annotation != nil {
			arg.Annotation = a.Annotation.String()
		}
		if !model.IsMissing(a.Default) {
			arg.HasDefault = true
			arg.Default = a.Default.String()
		}
		out = append(out, arg)
	}
	for _, a := range m.PosOnly {
		add(ArgPosOnly, a)
	}
	for _, a := range m.Args {
		add(ArgRegular, a)
	}
	if m.VarArg != nil {
		add(ArgVarArg, m.VarArg)
	}
	for _, a := range m.KwOnly {
		add(ArgKwOnly, a)
	}
	if m.KwArg != nil {
		add(ArgKwArg, m.KwArg)
	}
	return out
}
