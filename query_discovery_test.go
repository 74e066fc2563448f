package papi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(items []EntityResult) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.QualName)
	}
	return out
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Entities
// =============================================================================

func TestEntities_All(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 9, res.TotalCount)
	assert.Len(t, res.Items, 9)
}

func TestEntities_TopLevel(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{TopLevel: true}, Sort{Field: SortByName}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"VERSION", "Widget", "_hidden", "greet", "helper", "limit"}, names(res.Items))
}

func TestEntities_KindFilter(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{Kinds: []string{"method"}}, Sort{Field: SortByName}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"_hidden", "greet", "Widget.grow", "helper"}, names(res.Items))

	res, err = q.Entities(EntityFilter{Kinds: []string{"assign", "annassign"}}, Sort{Field: SortByQualName}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"VERSION", "Widget.size", "limit"}, names(res.Items))
}

func TestEntities_Visibility(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{Visibility: strPtr("protected")}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "_hidden", res.Items[0].Name)
	assert.Equal(t, "sub/thing.py", res.Items[0].FilePath)
}

func TestEntities_PathPrefix(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{PathPrefix: strPtr("sub")}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	for _, it := range res.Items {
		assert.Equal(t, "sub/thing.py", it.FilePath)
	}
}

func TestEntities_ParentID(t *testing.T) {
	q := sampleQuery(t)

	widget, err := q.Entities(EntityFilter{Kinds: []string{"class"}, TopLevel: true}, Sort{}, Pagination{})
	require.NoError(t, err)
	require.Len(t, widget.Items, 1)

	id := widget.Items[0].ID
	res, err := q.Entities(EntityFilter{ParentID: &id}, Sort{Field: SortByQualName, Order: Desc}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget.size", "Widget.grow", "Widget.Meta"}, names(res.Items))
}

func TestEntities_Pagination(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Entities(EntityFilter{Kinds: []string{"method"}}, Sort{Field: SortByName}, Pagination{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCount)
	assert.Equal(t, []string{"greet", "Widget.grow"}, names(res.Items))

	res, err = q.Entities(EntityFilter{Kinds: []string{"method"}}, Sort{}, Pagination{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCount)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestEntities_OtherExportInvisible(t *testing.T) {
	ix := newTestIndex(t)
	exportSources(t, ix, sampleSources())
	q := exportSources(t, ix, map[string]string{"only.py": "X = 1\n"})

	res, err := q.Entities(EntityFilter{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, names(res.Items))
}

func TestPagination_Normalize(t *testing.T) {
	assert.Equal(t, Pagination{Offset: 0, Limit: defaultLimit}, Pagination{Offset: -3}.normalize())
	assert.Equal(t, Pagination{Limit: maxLimit}, Pagination{Limit: 10_000}.normalize())
	assert.Equal(t, Pagination{Offset: 5, Limit: 7}, Pagination{Offset: 5, Limit: 7}.normalize())
}

// =============================================================================
// Search
// =============================================================================

func TestSearchEntities_Glob(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.SearchEntities("gr*", EntityFilter{}, Sort{Field: SortByName}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"greet", "Widget.grow"}, names(res.Items))
}

func TestSearchEntities_Wildcard(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.SearchEntities("*", EntityFilter{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 9, res.TotalCount)
}

func TestSearchEntities_EscapesUnderscore(t *testing.T) {
	q := sampleQuery(t)

	// "_" must match literally, not as the single-character wildcard.
	res, err := q.SearchEntities("_*", EntityFilter{}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"_hidden"}, names(res.Items))
}

func TestSearchEntities_WithFilter(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.SearchEntities("M*", EntityFilter{Kinds: []string{"class"}}, Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget.Meta"}, names(res.Items))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\_b\%c\\d`, escapeLike(`a_b%c\d`))
}

func TestNormalizePathPrefix(t *testing.T) {
	assert.Equal(t, "", normalizePathPrefix(""))
	assert.Equal(t, "pkg/sub/", normalizePathPrefix("pkg/sub"))
	assert.Equal(t, "pkg/sub/", normalizePathPrefix("pkg/sub/"))
}

// =============================================================================
// Files & Summary
// =============================================================================

func TestFiles(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Files("", Sort{}, Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCount)
	var paths []string
	for _, f := range res.Items {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"__init__.py", "core.py", "sub/__init__.py", "sub/thing.py"}, paths)
	assert.Equal(t, "The pkg package.", res.Items[0].Docstring)
}

func TestFiles_PrefixAndPaging(t *testing.T) {
	q := sampleQuery(t)

	res, err := q.Files("sub", Sort{Order: Desc}, Pagination{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "sub/thing.py", res.Items[0].Path)
}

func TestSummary(t *testing.T) {
	q := sampleQuery(t)

	s, err := q.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, s.ModuleCount)
	assert.Equal(t, 4, s.FileCount)
	assert.Equal(t, 4, s.ImportCount)
	assert.Equal(t, map[string]int{"assign": 1, "annassign": 2, "method": 4, "class": 2}, s.KindCounts)
	// helper is the only public top-level definition without a docstring.
	assert.Equal(t, 1, s.Undocumented)
}
