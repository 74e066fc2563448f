package papi

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/store"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

// exportSources parses each source under a root named pkg, exports the
// tree and returns a builder over the new export.
func exportSources(t *testing.T, ix *Index, files map[string]string) *QueryBuilder {
	t.Helper()
	tree := model.NewTree(filepath.Join(t.TempDir(), "pkg"))
	for path, src := range files {
		f, err := model.ParseSource(context.Background(), path, []byte(src))
		require.NoError(t, err, "parse %s", path)
		require.True(t, tree.Insert(f), "insert %s", path)
	}
	exp, err := ix.Export(context.Background(), &Result{Tree: tree, Root: tree.Root()})
	require.NoError(t, err)
	return ix.Query(exp.ID)
}

const queryCoreSrc = `"""Core helpers."""
import os
from .sub import thing

VERSION = "1.0"

limit: int = 10

def greet(name: str, /, greeting="hi", *, loud: bool = False, **extra) -> str:
    """Say hello."""
    return greeting

class Widget(Base):
    """A widget."""

    size: int = 3

    def grow(self, by=1):
        pass

    class Meta:
        pass
`

const queryThingSrc = `from pkg.core import greet

def _hidden():
    pass

def helper():
    return greet
`

func sampleQuery(t *testing.T) *QueryBuilder {
	t.Helper()
	return exportSources(t, newTestIndex(t), sampleSources())
}

func sampleSources() map[string]string {
	return map[string]string{
		"__init__.py":     "\"\"\"The pkg package.\"\"\"\nfrom .core import Widget\n",
		"core.py":         queryCoreSrc,
		"sub/__init__.py": "",
		"sub/thing.py":    queryThingSrc,
	}
}

func TestOpenIndex_InvalidPath(t *testing.T) {
	_, err := OpenIndex("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestIndex_LatestEmpty(t *testing.T) {
	ix := newTestIndex(t)
	_, err := ix.Latest()
	assert.ErrorIs(t, err, ErrNoExports)
}

func TestIndex_LatestPicksNewest(t *testing.T) {
	ix := newTestIndex(t)
	first := exportSources(t, ix, sampleSources())
	second := exportSources(t, ix, sampleSources())

	q, err := ix.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.ExportID(), q.ExportID())
	assert.NotEqual(t, first.ExportID(), q.ExportID())

	exports, err := ix.Exports()
	require.NoError(t, err)
	assert.Len(t, exports, 2)
}

func TestFileByPath(t *testing.T) {
	q := sampleQuery(t)

	f, err := q.FileByPath("sub/thing.py")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "thing", f.Name)
	assert.Equal(t, "/sub/thing/", f.URL)

	missing, err := q.FileByPath("nope.py")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDependencies(t *testing.T) {
	q := sampleQuery(t)
	core, err := q.FileByPath("core.py")
	require.NoError(t, err)

	imports, err := q.Dependencies(core.ID)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "import os", imports[0].Code)
	assert.Equal(t, -1, imports[0].Level)
	assert.Equal(t, []string{"os"}, imports[0].Names)
	assert.Equal(t, "sub", imports[1].Module)
	assert.Equal(t, 1, imports[1].Level)
	assert.Equal(t, []string{"thing"}, imports[1].Names)
}

func TestDependents(t *testing.T) {
	q := sampleQuery(t)

	abs, err := q.Dependents("pkg.core")
	require.NoError(t, err)
	require.Len(t, abs, 1)
	assert.Equal(t, "from pkg.core import greet", abs[0].Code)

	rel, err := q.Dependents("core")
	require.NoError(t, err)
	require.Len(t, rel, 1)
	assert.Equal(t, "from .core import Widget", rel[0].Code)

	none, err := q.Dependents("os")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDiffFrom(t *testing.T) {
	ix := newTestIndex(t)
	before := exportSources(t, ix, sampleSources())

	changed := sampleSources()
	changed["sub/thing.py"] = queryThingSrc + "\ndef added():\n    pass\n"
	after := exportSources(t, ix, changed)

	changes, err := after.DiffFrom(before.ExportID())
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "sub/thing.py", changes[0].Path)
	assert.Equal(t, "added", changes[0].QualName)
	assert.Equal(t, store.ChangeAdded, changes[0].Change)
}
