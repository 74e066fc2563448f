package papi

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tired-Fox/papi/internal/store"
)

// EntityDetail is a combined response that bundles an entity with its
// arguments and, for classes, its direct members.
type EntityDetail struct {
	Entity    EntityResult
	Arguments []*store.Argument // method parameters in declaration order (empty otherwise)
	Members   []*store.Entity   // class attributes, methods and nested classes (empty otherwise)
}

// EntityDetail returns the entity with the given id and its structural
// metadata. Returns nil with no error if the id does not exist in this export.
func (q *QueryBuilder) EntityDetail(entityID int64) (*EntityDetail, error) {
	er, err := q.entityResult("e.id = ?", entityID)
	if err != nil {
		return nil, fmt.Errorf("entity detail: %w", err)
	}
	if er == nil {
		return nil, nil
	}
	return q.detail(er)
}

// EntityDetailByName resolves a dotted qualified name ("Widget.grow") in
// the file at path and returns its detail, or nil if nothing matches.
func (q *QueryBuilder) EntityDetailByName(path, qualname string) (*EntityDetail, error) {
	er, err := q.entityResult("f.path = ? AND e.qualname = ?", path, qualname)
	if err != nil {
		return nil, fmt.Errorf("entity detail %s:%s: %w", path, qualname, err)
	}
	if er == nil {
		return nil, nil
	}
	return q.detail(er)
}

func (q *QueryBuilder) detail(er *EntityResult) (*EntityDetail, error) {
	args, err := q.store.ArgumentsByEntity(er.ID)
	if err != nil {
		return nil, fmt.Errorf("entity detail: arguments: %w", err)
	}
	members, err := q.store.EntityChildren(er.ID)
	if err != nil {
		return nil, fmt.Errorf("entity detail: members: %w", err)
	}
	if args == nil {
		args = []*store.Argument{}
	}
	if members == nil {
		members = []*store.Entity{}
	}
	return &EntityDetail{Entity: *er, Arguments: args, Members: members}, nil
}

// entityResult loads the single entity matching cond within the export.
func (q *QueryBuilder) entityResult(cond string, args ...any) (*EntityResult, error) {
	row := q.store.DB().QueryRow(
		`SELECT `+store.EntityCols+`, f.path
		 FROM entities e
		 JOIN files f ON e.file_id = f.id
		 WHERE f.export_id = ? AND `+cond+`
		 ORDER BY e.id LIMIT 1`,
		append([]any{q.exportID}, args...)...,
	)
	var path string
	e, err := store.ScanEntityRow(row, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &EntityResult{Entity: *e, FilePath: path}, nil
}
