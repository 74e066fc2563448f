package store

import (
	"fmt"
	"sort"
)

// entityKey identifies an entity across exports. Python rebinds names
// freely (property setters, overloads, reassigned module variables), so n
// counts the earlier entities of the same file sharing the qualname.
type entityKey struct {
	path, qualname string
	n              int
}

// exportEntities loads every entity of an export in write order, keyed by
// file path, qualified name and occurrence.
func (s *Store) exportEntities(exportID int64) (map[entityKey]*Entity, error) {
	rows, err := s.db.Query(
		"SELECT "+EntityCols+", f.path FROM entities e JOIN files f ON f.id = e.file_id WHERE f.export_id = ? ORDER BY e.id",
		exportID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[entityKey]*Entity)
	seen := make(map[entityKey]int)
	for rows.Next() {
		var path string
		e, err := ScanEntityRow(rows, &path)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		name := entityKey{path: path, qualname: e.QualName}
		k := entityKey{path: path, qualname: e.QualName, n: seen[name]}
		seen[name]++
		out[k] = e
	}
	return out, rows.Err()
}

// DiffExports compares two exports entity by entity. An entity whose
// signature hash or docstring differs is reported as changed. Entities
// sharing a qualname are paired in order of appearance. The result is
// ordered by path, qualified name and occurrence.
func (s *Store) DiffExports(fromID, toID int64) ([]*EntityChange, error) {
	from, err := s.exportEntities(fromID)
	if err != nil {
		return nil, fmt.Errorf("store: diff exports: load %d: %w", fromID, err)
	}
	to, err := s.exportEntities(toID)
	if err != nil {
		return nil, fmt.Errorf("store: diff exports: load %d: %w", toID, err)
	}

	change := func(k entityKey, kind, what string, old, cur *Entity) *EntityChange {
		return &EntityChange{Path: k.path, QualName: k.qualname, Occurrence: k.n, Kind: kind, Change: what, Old: old, New: cur}
	}
	var changes []*EntityChange
	for k, old := range from {
		cur, ok := to[k]
		switch {
		case !ok:
			changes = append(changes, change(k, old.Kind, ChangeRemoved, old, nil))
		case old.SignatureHash != cur.SignatureHash || old.Docstring != cur.Docstring:
			changes = append(changes, change(k, cur.Kind, ChangeChanged, old, cur))
		}
	}
	for k, cur := range to {
		if _, ok := from[k]; !ok {
			changes = append(changes, change(k, cur.Kind, ChangeAdded, nil, cur))
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.QualName != b.QualName {
			return a.QualName < b.QualName
		}
		return a.Occurrence < b.Occurrence
	})
	return changes, nil
}
