package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/store"
)

const modSource = `"""Widgets and helpers."""
import os
from . import sibling

VERSION = "2.1"
"""Release."""

_cache: dict = {}

def build(name: str, *parts, strict=False, **opts) -> Widget:
    """Build a widget."""

async def fetch(url):
    pass

class Widget(Base):
    """A widget."""

    size: int = 3
    """Widget size."""

    def grow(self, by=1):
        pass
`

// newTestTree parses each source into a tree rooted at a directory named pkg.
func newTestTree(t *testing.T, files map[string]string) *model.Module {
	t.Helper()
	tree := model.NewTree(filepath.Join(t.TempDir(), "pkg"))
	for path, src := range files {
		f, err := model.ParseSource(context.Background(), path, []byte(src))
		require.NoError(t, err, "parse %s", path)
		require.True(t, tree.Insert(f), "insert %s", path)
	}
	return tree.Root()
}

func sampleRoot(t *testing.T) *model.Module {
	return newTestTree(t, map[string]string{
		"__init__.py":     `"""Package docs."""`,
		"mod.py":          modSource,
		"sub/__init__.py": "",
		"sub/leaf.py":     "def __secret():\n    pass\n",
	})
}

// --- Tree globals ---

func TestRunSource_RootModule(t *testing.T) {
	rt := NewRuntime(sampleRoot(t), "")

	script := `
assert(root["name"] == "pkg", "expected pkg")
assert(root["url"] == "/", "expected /")
assert(root["docstring"] == "Package docs.", "root docstring")
assert(root["init"]["key"] == "__init__.py", "root init")

files := root["files"]
assert(len(files) == 2, 'expected 2 files, got {len(files)}')
assert(files[0]["key"] == "__init__.py", "files sorted by key")
assert(files[1]["name"] == "mod", "second file is mod")
assert(files[1]["url"] == "/mod/", "mod url")

mods := root["modules"]
assert(len(mods) == 1, "one sub-module")
sub := mods[0]
assert(sub["path"] == "pkg/sub", "expected pkg/sub")
assert(sub["url"] == "/sub/", "expected /sub/")
assert(sub["files"][1]["name"] == "leaf", "leaf file")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_FileViews(t *testing.T) {
	rt := NewRuntime(sampleRoot(t), "")

	script := `
mod := find("mod.py")
assert(mod != nil, "mod.py found")
assert(mod["docstring"] == "Widgets and helpers.", "file docstring")
assert(len(mod["objects"]) == 5, "expected 5 objects")
assert(len(mod["public"]) == 4, "expected 4 public")
assert(len(mod["protected"]) == 1, "one protected")
assert(mod["protected"][0]["name"] == "_cache", "protected is _cache")
assert(len(mod["methods"]) == 2, "two functions")
assert(len(mod["classes"]) == 1, "one class")
assert(len(mod["assignments"]) == 2, "two assignments")
assert(len(mod["imports"]) == 2, "two imports")

version := mod["objects"][0]
assert(version["kind"] == "assign", "VERSION is an assign")
assert(version["value"] == "'2.1'", "value rendered as repr")
assert(version["docstring"] == "Release.", "attribute docstring")

imp := mod["imports"][1]
assert(imp["relative"] == true, "relative import")
assert(imp["level"] == 1, "level 1")
assert(imp["code"] == "from . import sibling", "relative import code")

leaf := find("/sub/leaf/")
assert(leaf != nil, "lookup by url")
assert(leaf["private"][0]["visibility"] == "private", "dunder is private")

assert(find("missing.py") == nil, "missing file")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_MethodsAndClasses(t *testing.T) {
	rt := NewRuntime(sampleRoot(t), "")

	script := `
mod := find("mod.py")
build := mod["methods"][0]
assert(build["name"] == "build", "first function")
assert(build["async"] == false, "build is sync")
assert(build["returns"] == "Widget", "return annotation")
assert(build["docstring"] == "Build a widget.", "method docstring")

params := build["parameters"]
assert(len(params) == 4, 'expected 4 params, got {len(params)}')
assert(params[0]["code"] == "name: str", "typed parameter code")
assert(params[1]["kind"] == "vararg", "vararg")
assert(params[2]["kind"] == "kwonly", "kwonly")
assert(params[2]["default"] == "False", "kwonly default")
assert(params[3]["kind"] == "kwarg", "kwarg")
assert(params[0]["default"] == nil, "missing default is nil")

fetch := mod["methods"][1]
assert(fetch["async"] == true, "fetch is async")
assert(signature(fetch) == "async def fetch(url)", 'got {signature(fetch)}')

widget := mod["classes"][0]
assert(signature(widget) == "class Widget(Base)", 'got {signature(widget)}')
assert(widget["bases"][0] == "Base", "base")
assert(widget["attributes"][0]["docstring"] == "Widget size.", "attribute docstring")
assert(widget["methods"][0]["code"] == "def grow(self, by=1)", "method code")
`
	err := rt.RunSource(context.Background(), script, nil)
	require.NoError(t, err)
}

func TestRunSource_SignatureRejectsAssignments(t *testing.T) {
	rt := NewRuntime(sampleRoot(t), "")

	script := `
mod := find("mod.py")
signature(mod["objects"][0])
`
	err := rt.RunSource(context.Background(), script, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature")
}

func TestRunSource_NilRoot(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
assert(root == nil, "root is nil")
assert(find("a.py") == nil, "find on nil root")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_ExtraGlobals(t *testing.T) {
	rt := NewRuntime(nil, "")

	script := `
assert(title == "Docs", 'expected Docs, got {title}')
`
	err := rt.RunSource(context.Background(), script, map[string]any{"title": "Docs"})
	require.NoError(t, err)
}

// --- write ---

func TestRunSource_Write(t *testing.T) {
	out := t.TempDir()
	rt := NewRuntime(sampleRoot(t), "", WithOutputDir(out))

	script := `
for _, f := range root["files"] {
	write(f["url"] + "index.md", "# " + f["name"] + "\n\n" + f["docstring"] + "\n")
}
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	data, err := os.ReadFile(filepath.Join(out, "mod", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "# mod\n\nWidgets and helpers.\n", string(data))

	data, err = os.ReadFile(filepath.Join(out, "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "# pkg\n\nPackage docs.\n", string(data))
}

func TestRunSource_WriteRejectsEscape(t *testing.T) {
	rt := NewRuntime(nil, "", WithOutputDir(t.TempDir()))

	err := rt.RunSource(context.Background(), `write("../outside.md", "x")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the output directory")
}

func TestRunSource_WriteUnavailableWithoutOutputDir(t *testing.T) {
	rt := NewRuntime(nil, "")

	err := rt.RunSource(context.Background(), `write("a.md", "x")`, nil)
	require.Error(t, err)
}

// --- db_query ---

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewStore(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func entityCount(t *testing.T, s *store.Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM entities").Scan(&n))
	return n
}

func TestRunSource_DBQuery(t *testing.T) {
	s := newTestStore(t)
	exp, err := s.WriteTree(context.Background(), sampleRoot(t))
	require.NoError(t, err)

	rt := NewRuntime(nil, "", WithStore(s))

	script := `
assert(export_id == want, 'expected export {want}, got {export_id}')
rows := db_query("SELECT e.name AS name FROM entities e JOIN files f ON f.id = e.file_id WHERE f.export_id = ? AND e.kind = ? ORDER BY e.id", export_id, "class")
assert(len(rows) == 1, 'expected 1 class, got {len(rows)}')
assert(rows[0]["name"] == "Widget", "class name")
assert(len(db_query("SELECT 1 WHERE 0")) == 0, "empty result")
`
	require.NoError(t, rt.RunSource(context.Background(), script, map[string]any{"want": exp.ID}))

	before := entityCount(t, s)
	for _, src := range []string{
		`db_query("DELETE FROM entities")`,
		`db_query("SELECT 1; DELETE FROM entities")`,
		`db_query("SELECT 1; PRAGMA query_only = OFF; DELETE FROM entities")`,
	} {
		err := rt.RunSource(context.Background(), src, nil)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "db_query")
	}
	assert.Equal(t, before, entityCount(t, s), "writes from scripts never reach the index")
}

func TestRunSource_ExportID(t *testing.T) {
	s := newTestStore(t)

	rt := NewRuntime(nil, "", WithStore(s))
	require.NoError(t, rt.RunSource(context.Background(), `assert(export_id == nil, "empty index")`, nil))

	first, err := s.WriteTree(context.Background(), sampleRoot(t))
	require.NoError(t, err)
	latest, err := s.WriteTree(context.Background(), sampleRoot(t))
	require.NoError(t, err)

	check := `assert(export_id == want, 'expected {want}, got {export_id}')`
	require.NoError(t, rt.RunSource(context.Background(), check, map[string]any{"want": latest.ID}))

	pinned := NewRuntime(nil, "", WithStore(s), WithExport(first.ID))
	require.NoError(t, pinned.RunSource(context.Background(), check, map[string]any{"want": first.ID}))
}

func TestRunSource_NoStoreGlobals(t *testing.T) {
	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `db_query("SELECT 1")`, nil)
	require.Error(t, err)
}

// --- Errors ---

func TestScriptError_NamesScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.risor"), []byte(`signature(1)`), 0o644))

	rt := NewRuntime(nil, dir)
	err := rt.RunScript(context.Background(), "broken.risor", nil)
	require.Error(t, err)

	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, filepath.Join(dir, "broken.risor"), scriptErr.Script)
	assert.Contains(t, err.Error(), "broken.risor")
	assert.Contains(t, err.Error(), "expected an entity map")

	err = rt.RunSource(context.Background(), `signature(1)`, nil)
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "<inline>", scriptErr.Script)
}

// --- Script loading ---

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"render/page.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("render/page.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{}))

	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `y := 99`
	mapFS := fstest.MapFS{
		"render/page.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	got, err := rt.LoadScript("/render/page.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FallsBackToDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := `z := 7`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(content), 0644))

	rt := NewRuntime(nil, dir)

	got, err := rt.LoadScript("test.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRunScript_ImportsBesideScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "names.risor"), []byte(`
func shout(s) {
	return s + "!"
}
`), 0o644))
	main := filepath.Join(dir, "main.risor")
	require.NoError(t, os.WriteFile(main, []byte(`
import names
assert(names.shout("pkg") == "pkg!", "sibling import")
`), 0o644))

	rt := NewRuntime(nil, "")
	require.NoError(t, rt.RunScript(context.Background(), main, nil))
}

func TestRunScript_FromFSFS(t *testing.T) {
	mapFS := fstest.MapFS{
		"test.risor": &fstest.MapFile{Data: []byte(`result := 1 + 1`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	err := rt.RunScript(context.Background(), "test.risor", nil)
	require.NoError(t, err)
}

// --- Importer wiring ---

func TestImport_FSImporter(t *testing.T) {
	// Risor's FSImporter resolves "lib_helpers" by trying name + ".risor",
	// so the file must be at the flat path "lib_helpers.risor" in the FS.
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func heading(name) {
	return "# " + name
}
`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))

	script := `
import lib_helpers

msg := lib_helpers.heading("pkg")
assert(msg == "# pkg", 'expected "# pkg", got ' + msg)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0644))

	rt := NewRuntime(nil, dir)

	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	// Imported modules reference host-provided globals, so the importer
	// must be told their names.
	mapFS := fstest.MapFS{
		"helper.risor": &fstest.MapFile{Data: []byte(`
func root_name() {
	log.Info("looking up root")
	return root["name"]
}
`)},
	}

	rt := NewRuntime(sampleRoot(t), "", WithRuntimeFS(mapFS))

	script := `
import helper
assert(helper.root_name() == "pkg", "root visible from imported module")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Nil(t, rt.store)
	assert.Empty(t, rt.outDir)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
}
