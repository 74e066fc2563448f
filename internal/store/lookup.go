package store

import (
	"database/sql"
	"errors"
	"fmt"
)

type scanner interface{ Scan(...any) error }

// --- Export operations ---

const exportCols = `id, run_id, root, created_at`

func scanExport(sc scanner) (*Export, error) {
	e := &Export{}
	return e, sc.Scan(&e.ID, &e.RunID, &e.Root, &e.CreatedAt)
}

// Exports returns every export, oldest first.
func (s *Store) Exports() ([]*Export, error) {
	rows, err := s.db.Query("SELECT " + exportCols + " FROM exports ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("store: exports: %w", err)
	}
	defer rows.Close()
	var out []*Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan export: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestExport returns the most recent export, or ErrNotFound on an empty
// index.
func (s *Store) LatestExport() (*Export, error) {
	e, err := scanExport(s.db.QueryRow("SELECT " + exportCols + " FROM exports ORDER BY id DESC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: latest export: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest export: %w", err)
	}
	return e, nil
}

// --- Module operations ---

const moduleCols = `id, export_id, parent_id, name, path, url, docstring`

func (s *Store) ModulesByExport(exportID int64) ([]*Module, error) {
	rows, err := s.db.Query("SELECT "+moduleCols+" FROM modules WHERE export_id = ? ORDER BY path", exportID)
	if err != nil {
		return nil, fmt.Errorf("store: modules by export: %w", err)
	}
	defer rows.Close()
	var out []*Module
	for rows.Next() {
		m := &Module{}
		var doc sql.NullString
		if err := rows.Scan(&m.ID, &m.ExportID, &m.ParentID, &m.Name, &m.Path, &m.URL, &doc); err != nil {
			return nil, fmt.Errorf("store: scan module: %w", err)
		}
		m.Docstring = fromNull(doc)
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- File operations ---

const fileCols = `id, export_id, module_id, path, full_path, name, url, docstring`

func scanFile(sc scanner) (*File, error) {
	f := &File{}
	var full, doc sql.NullString
	if err := sc.Scan(&f.ID, &f.ExportID, &f.ModuleID, &f.Path, &full, &f.Name, &f.URL, &doc); err != nil {
		return nil, err
	}
	f.FullPath = fromNull(full)
	f.Docstring = fromNull(doc)
	return f, nil
}

// Files returns the files of an export ordered by path.
func (s *Store) Files(exportID int64) ([]*File, error) {
	rows, err := s.db.Query("SELECT "+fileCols+" FROM files WHERE export_id = ? ORDER BY path", exportID)
	if err != nil {
		return nil, fmt.Errorf("store: files: %w", err)
	}
	defer rows.Close()
	var out []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FileByPath returns the file stored under the root-relative path, or nil.
func (s *Store) FileByPath(exportID int64, path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow(
		"SELECT "+fileCols+" FROM files WHERE export_id = ? AND path = ?", exportID, path,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	return f, nil
}

// --- Entity operations ---

// EntityCols is the column list for entity queries, prefixed for joins.
const EntityCols = `e.id, e.file_id, e.parent_id, e.kind, e.name, e.qualname, e.visibility, e.code,
	e.docstring, e.annotation, e.value, e.returns, e.async, e.signature_hash, e.ordinal`

// ScanEntityRow scans a row selected with EntityCols.
func ScanEntityRow(sc scanner, extra ...any) (*Entity, error) {
	e := &Entity{}
	var doc, ann, val, ret sql.NullString
	dest := []any{
		&e.ID, &e.FileID, &e.ParentID, &e.Kind, &e.Name, &e.QualName, &e.Visibility, &e.Code,
		&doc, &ann, &val, &ret, &e.Async, &e.SignatureHash, &e.Ordinal,
	}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Docstring = fromNull(doc)
	e.Annotation = fromNull(ann)
	e.Value = fromNull(val)
	e.Returns = fromNull(ret)
	return e, nil
}

func (s *Store) queryEntities(query string, args ...any) ([]*Entity, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Entity
	for rows.Next() {
		e, err := ScanEntityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EntitiesByFile returns every entity of a file, class members included,
// in insertion order.
func (s *Store) EntitiesByFile(fileID int64) ([]*Entity, error) {
	out, err := s.queryEntities("SELECT "+EntityCols+" FROM entities e WHERE e.file_id = ? ORDER BY e.id", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: entities by file: %w", err)
	}
	return out, nil
}

// EntitiesByName returns the entities of an export declared as name.
func (s *Store) EntitiesByName(exportID int64, name string) ([]*Entity, error) {
	out, err := s.queryEntities(
		"SELECT "+EntityCols+" FROM entities e JOIN files f ON f.id = e.file_id WHERE f.export_id = ? AND e.name = ? ORDER BY e.id",
		exportID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entities by name: %w", err)
	}
	return out, nil
}

// EntitiesByKind returns the entities of an export of the given kind.
func (s *Store) EntitiesByKind(exportID int64, kind string) ([]*Entity, error) {
	out, err := s.queryEntities(
		"SELECT "+EntityCols+" FROM entities e JOIN files f ON f.id = e.file_id WHERE f.export_id = ? AND e.kind = ? ORDER BY e.id",
		exportID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entities by kind: %w", err)
	}
	return out, nil
}

// EntityChildren returns the members of a class entity.
func (s *Store) EntityChildren(entityID int64) ([]*Entity, error) {
	out, err := s.queryEntities("SELECT "+EntityCols+" FROM entities e WHERE e.parent_id = ? ORDER BY e.ordinal", entityID)
	if err != nil {
		return nil, fmt.Errorf("store: entity children: %w", err)
	}
	return out, nil
}

// --- Argument operations ---

func (s *Store) ArgumentsByEntity(entityID int64) ([]*Argument, error) {
	rows, err := s.db.Query(
		`SELECT id, entity_id, ordinal, kind, name, annotation, has_default, default_value
		 FROM arguments WHERE entity_id = ? ORDER BY ordinal`, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: arguments by entity: %w", err)
	}
	defer rows.Close()
	var out []*Argument
	for rows.Next() {
		a := &Argument{}
		var ann, def sql.NullString
		if err := rows.Scan(&a.ID, &a.EntityID, &a.Ordinal, &a.Kind, &a.Name, &ann, &a.HasDefault, &def); err != nil {
			return nil, fmt.Errorf("store: scan argument: %w", err)
		}
		a.Annotation = fromNull(ann)
		a.Default = fromNull(def)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Import operations ---

const importCols = `i.id, i.file_id, i.module, i.names, i.level, i.code, i.ordinal`

func (s *Store) queryImports(query string, args ...any) ([]*Import, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Import
	for rows.Next() {
		imp := &Import{}
		var module sql.NullString
		var names string
		if err := rows.Scan(&imp.ID, &imp.FileID, &module, &names, &imp.Level, &imp.Code, &imp.Ordinal); err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		imp.Module = fromNull(module)
		imp.Names = unmarshalNames(names)
		out = append(out, imp)
	}
	return out, rows.Err()
}

// ImportsByFile returns the imports of a file in source order.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	out, err := s.queryImports("SELECT "+importCols+" FROM imports i WHERE i.file_id = ? ORDER BY i.ordinal", fileID)
	if err != nil {
		return nil, fmt.Errorf("store: imports by file: %w", err)
	}
	return out, nil
}

// ImportsByModule returns the from-imports of an export that name module.
func (s *Store) ImportsByModule(exportID int64, module string) ([]*Import, error) {
	out, err := s.queryImports(
		"SELECT "+importCols+" FROM imports i JOIN files f ON f.id = i.file_id WHERE f.export_id = ? AND i.module = ? ORDER BY i.id",
		exportID, module,
	)
	if err != nil {
		return nil, fmt.Errorf("store: imports by module: %w", err)
	}
	return out, nil
}

