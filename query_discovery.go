package papi

import (
	"fmt"
	"strings"

	"github.com/Tired-Fox/papi/internal/store"
)

// --- Common Types ---

// Pagination controls offset+limit paging on list/search results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// SortField specifies how to order results.
type SortField string

const (
	SortByName     SortField = "name"
	SortByKind     SortField = "kind"
	SortByFile     SortField = "file"
	SortByQualName SortField = "qualname"
)

// SortOrder specifies ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Sort controls result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// EntityResult is an indexed entity with the path of its file.
type EntityResult struct {
	store.Entity
	FilePath string
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// EntityFilter specifies which entities to include.
type EntityFilter struct {
	Kinds      []string // match any of these kinds
	Visibility *string  // exact match
	FileID     *int64   // restrict to a single file
	ParentID   *int64   // restrict to direct members of this class
	PathPrefix *string  // restrict to entities in files under this path
	TopLevel   bool     // only module-level entities
}

// where renders the filter as SQL conditions over "e" (entities) and "f"
// (files). The export restriction always comes first.
func (f EntityFilter) where(exportID int64) ([]string, []any) {
	where := []string{"f.export_id = ?"}
	args := []any{exportID}

	if len(f.Kinds) > 0 {
		placeholders := strings.Repeat("?,", len(f.Kinds)-1) + "?"
		where = append(where, "e.kind IN ("+placeholders+")")
		for _, k := range f.Kinds {
			args = append(args, k)
		}
	}
	if f.Visibility != nil {
		where = append(where, "e.visibility = ?")
		args = append(args, *f.Visibility)
	}
	if f.FileID != nil {
		where = append(where, "e.file_id = ?")
		args = append(args, *f.FileID)
	}
	if f.ParentID != nil {
		where = append(where, "e.parent_id = ?")
		args = append(args, *f.ParentID)
	}
	if f.TopLevel {
		where = append(where, "e.parent_id IS NULL")
	}
	if f.PathPrefix != nil {
		prefix := normalizePathPrefix(*f.PathPrefix)
		if prefix != "" {
			where = append(where, "f.path LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(prefix)+"%")
		}
	}
	return where, args
}

// --- Internal Helpers ---

// normalizePathPrefix ensures a path prefix ends with "/" for correct LIKE matching.
// "pkg/sub" -> "pkg/sub/" to prevent matching "pkg/sub_utils/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

// entitySortColumn returns the SQL ORDER BY expression for entity queries.
// Falls back to "e.name" for unknown fields.
func entitySortColumn(field SortField) string {
	switch field {
	case SortByKind:
		return "e.kind"
	case SortByFile:
		return "f.path"
	case SortByQualName:
		return "e.qualname"
	default:
		return "e.name"
	}
}

// sortDirection returns "ASC" or "DESC".
func sortDirection(order SortOrder) string {
	if order == Desc {
		return "DESC"
	}
	return "ASC"
}

// escapeLike escapes SQL LIKE special characters (% and _) with backslash.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// --- Enumeration Endpoints ---

// Entities is the primary listing/filtering endpoint. All filter fields are optional.
func (q *QueryBuilder) Entities(filter EntityFilter, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	where, args := filter.where(q.exportID)
	res, err := q.pagedEntities(where, args, sort, page)
	if err != nil {
		return nil, fmt.Errorf("entities: %w", err)
	}
	return res, nil
}

// SearchEntities performs glob-style search on entity names.
// '*' is the wildcard (mapped to SQL '%').
func (q *QueryBuilder) SearchEntities(pattern string, filter EntityFilter, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	where, args := filter.where(q.exportID)

	// Escape literal % and _ first, then convert * to %.
	if pattern != "" && pattern != "*" {
		likePattern := strings.ReplaceAll(escapeLike(pattern), "*", "%")
		where = append(where, "e.name LIKE ? ESCAPE '\\'")
		args = append(args, likePattern)
	}

	res, err := q.pagedEntities(where, args, sort, page)
	if err != nil {
		return nil, fmt.Errorf("search entities: %w", err)
	}
	return res, nil
}

func (q *QueryBuilder) pagedEntities(where []string, args []any, sort Sort, page Pagination) (*PagedResult[EntityResult], error) {
	page = page.normalize()
	whereClause := "WHERE " + strings.Join(where, " AND ")

	countSQL := `SELECT COUNT(*) FROM entities e JOIN files f ON e.file_id = f.id ` + whereClause
	var totalCount int
	if err := q.store.DB().QueryRow(countSQL, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT %s, f.path
		 FROM entities e
		 JOIN files f ON e.file_id = f.id
		 %s
		 ORDER BY %s %s, e.id
		 LIMIT ? OFFSET ?`,
		store.EntityCols, whereClause, entitySortColumn(sort.Field), sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	items := []EntityResult{}
	for rows.Next() {
		var path string
		e, err := store.ScanEntityRow(rows, &path)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, EntityResult{Entity: *e, FilePath: path})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &PagedResult[EntityResult]{Items: items, TotalCount: totalCount}, nil
}

// Files is a convenience method for listing the files of the export.
func (q *QueryBuilder) Files(pathPrefix string, sort Sort, page Pagination) (*PagedResult[store.File], error) {
	page = page.normalize()

	where := []string{"export_id = ?"}
	args := []any{q.exportID}
	if pathPrefix != "" {
		where = append(where, "path LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(normalizePathPrefix(pathPrefix))+"%")
	}
	whereClause := "WHERE " + strings.Join(where, " AND ")

	var totalCount int
	if err := q.store.DB().QueryRow("SELECT COUNT(*) FROM files "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("files: count: %w", err)
	}

	orderCol := "path"
	if sort.Field == SortByName {
		orderCol = "name"
	}
	dataSQL := fmt.Sprintf(
		`SELECT id, export_id, module_id, path, COALESCE(full_path, ''), name, url, COALESCE(docstring, '')
		 FROM files %s ORDER BY %s %s, id LIMIT ? OFFSET ?`,
		whereClause, orderCol, sortDirection(sort.Order),
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("files: query: %w", err)
	}
	defer rows.Close()

	items := []store.File{}
	for rows.Next() {
		var f store.File
		if err := rows.Scan(&f.ID, &f.ExportID, &f.ModuleID, &f.Path, &f.FullPath, &f.Name, &f.URL, &f.Docstring); err != nil {
			return nil, fmt.Errorf("files: scan: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("files: rows: %w", err)
	}

	return &PagedResult[store.File]{Items: items, TotalCount: totalCount}, nil
}

// --- Digest Endpoints ---

// ExportSummary provides a high-level overview of one export.
type ExportSummary struct {
	ModuleCount  int
	FileCount    int
	ImportCount  int
	KindCounts   map[string]int
	Undocumented int // public top-level methods and classes without a docstring
}

// Summary returns counts for the export.
func (q *QueryBuilder) Summary() (*ExportSummary, error) {
	db := q.store.DB()
	summary := &ExportSummary{KindCounts: map[string]int{}}

	if err := db.QueryRow(`SELECT COUNT(*) FROM modules WHERE export_id = ?`, q.exportID).Scan(&summary.ModuleCount); err != nil {
		return nil, fmt.Errorf("summary: modules: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM files WHERE export_id = ?`, q.exportID).Scan(&summary.FileCount); err != nil {
		return nil, fmt.Errorf("summary: files: %w", err)
	}
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM imports i JOIN files f ON i.file_id = f.id WHERE f.export_id = ?`, q.exportID,
	).Scan(&summary.ImportCount); err != nil {
		return nil, fmt.Errorf("summary: imports: %w", err)
	}
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM entities e JOIN files f ON e.file_id = f.id
		 WHERE f.export_id = ? AND e.parent_id IS NULL AND e.visibility = 'public'
		   AND e.kind IN ('method', 'class') AND e.docstring IS NULL`, q.exportID,
	).Scan(&summary.Undocumented); err != nil {
		return nil, fmt.Errorf("summary: undocumented: %w", err)
	}

	rows, err := db.Query(
		`SELECT e.kind, COUNT(*) FROM entities e
		 JOIN files f ON e.file_id = f.id
		 WHERE f.export_id = ?
		 GROUP BY e.kind`, q.exportID,
	)
	if err != nil {
		return nil, fmt.Errorf("summary: kind counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("summary: scan kind: %w", err)
		}
		summary.KindCounts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summary: kind rows: %w", err)
	}
	return summary, nil
}
