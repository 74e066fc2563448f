package papi

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tired-Fox/papi/internal/store"
)

// Index is an SQLite database of exported documentation trees.
type Index struct {
	store *store.Store
}

// OpenIndex opens (creating if needed) the index database at dbPath and
// migrates its schema.
func OpenIndex(dbPath string) (*Index, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("papi: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("papi: %w", err)
	}
	return &Index{store: s}, nil
}

// Close closes the database.
func (ix *Index) Close() error {
	return ix.store.Close()
}

// Store exposes the underlying store, e.g. for script runtimes.
func (ix *Index) Store() *store.Store {
	return ix.store
}

// Export writes the tree of res as a new export.
func (ix *Index) Export(ctx context.Context, res *Result) (*Export, error) {
	exp, err := ix.store.WriteTree(ctx, res.Root)
	if err != nil {
		return nil, fmt.Errorf("papi: %w", err)
	}
	return exp, nil
}

// Exports lists every export, oldest first.
func (ix *Index) Exports() ([]*Export, error) {
	return ix.store.Exports()
}

// Query returns a QueryBuilder scoped to one export.
func (ix *Index) Query(exportID int64) *QueryBuilder {
	return &QueryBuilder{store: ix.store, exportID: exportID}
}

// Latest returns a QueryBuilder over the most recent export. It returns
// ErrNoExports on an empty index.
func (ix *Index) Latest() (*QueryBuilder, error) {
	exp, err := ix.store.LatestExport()
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoExports
	}
	if err != nil {
		return nil, fmt.Errorf("papi: %w", err)
	}
	return ix.Query(exp.ID), nil
}

// ErrNoExports is returned by Index.Latest when nothing was exported yet.
var ErrNoExports = errors.New("papi: index has no exports")

// QueryBuilder provides read access to one export of the index.
type QueryBuilder struct {
	store    *store.Store
	exportID int64
}

// ExportID is the export the builder reads.
func (q *QueryBuilder) ExportID() int64 { return q.exportID }

// FileByPath returns the indexed file at the root-relative path, or nil.
func (q *QueryBuilder) FileByPath(path string) (*IndexedFile, error) {
	return q.store.FileByPath(q.exportID, path)
}

// Dependencies returns all imports for the given file.
func (q *QueryBuilder) Dependencies(fileID int64) ([]*Import, error) {
	return q.store.ImportsByFile(fileID)
}

// Dependents returns the from-imports across the export that name module.
func (q *QueryBuilder) Dependents(module string) ([]*Import, error) {
	return q.store.ImportsByModule(q.exportID, module)
}

// DiffFrom compares an earlier export against this one.
func (q *QueryBuilder) DiffFrom(exportID int64) ([]*EntityChange, error) {
	changes, err := q.store.DiffExports(exportID, q.exportID)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	return changes, nil
}
