package model

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPackage(t *testing.T, files map[string]string) (string, *Tree) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "pkg")
	writeFiles(t, root, files)
	return root, NewTree(root)
}

func TestTree_SubModuleScenario(t *testing.T) {
	root, tree := newPackage(t, map[string]string{
		"sub/mod.py":      "def f(): pass\n",
		"sub/__init__.py": `"""Sub package."""` + "\n",
	})
	ctx := context.Background()

	ok, err := tree.Add(ctx, filepath.Join(root, "sub", "mod.py"))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = tree.Add(ctx, filepath.Join(root, "sub", "__init__.py"))
	require.NoError(t, err)
	require.True(t, ok)

	pkg := tree.Root()
	assert.Equal(t, "pkg", pkg.Name)
	assert.Equal(t, []string{"sub"}, pkg.Keys())

	sub := pkg.Module("sub")
	require.NotNil(t, sub)
	assert.Equal(t, "pkg/sub", sub.Path)
	assert.Equal(t, []string{"__init__.py", "mod.py"}, sub.Keys())
	assert.True(t, sub.Contains("mod.py"))
	assert.False(t, sub.Contains("mod"))

	init := sub.File("__init__.py")
	require.NotNil(t, init)
	assert.Equal(t, "sub", init.Name())
	assert.Equal(t, "/sub/", init.URL())
	assert.Equal(t, init.URL(), sub.URL())
	assert.Equal(t, "Sub package.", sub.Docstring())

	mod := sub.File("mod.py")
	require.NotNil(t, mod)
	assert.Equal(t, "sub/mod.py", mod.Path)
	assert.Equal(t, "mod", mod.Name())
	assert.Equal(t, "/sub/mod/", mod.URL())

	assert.Same(t, sub, mod.Parent())
	assert.Same(t, pkg, sub.Parent())
	assert.Nil(t, pkg.Parent())
	assert.Equal(t, "/", pkg.URL())
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, 2, tree.ModuleCount())
}

func TestTree_RootInitializer(t *testing.T) {
	root, tree := newPackage(t, map[string]string{
		"__init__.py": "def f(a, b=1, *, c): pass\n",
		"core.py":     "",
	})
	ctx := context.Background()
	for _, name := range []string{"__init__.py", "core.py"} {
		_, err := tree.Add(ctx, filepath.Join(root, name))
		require.NoError(t, err)
	}

	init := tree.Root().Init()
	require.NotNil(t, init)
	assert.Equal(t, "pkg", init.Name())
	assert.Equal(t, "/", init.URL())
	require.Len(t, init.Methods(), 1)
	assert.Equal(t, "def f(a, b=1, *, c)", init.Methods()[0].Signature())

	assert.Equal(t, "/core/", tree.Root().File("core.py").URL())
}

func TestTree_EnumerationIsSorted(t *testing.T) {
	files := map[string]string{
		"zeta.py":         "",
		"alpha.py":        "",
		"mid/__init__.py": "",
		"beta/x.py":       "",
		"Upper.py":        "",
	}
	root, tree := newPackage(t, files)
	order := []string{"zeta.py", "mid/__init__.py", "alpha.py", "beta/x.py", "Upper.py"}
	for _, rel := range order {
		_, err := tree.Add(context.Background(), filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err)
	}

	pkg := tree.Root()
	assert.Equal(t, []string{"Upper.py", "alpha.py", "beta", "mid", "zeta.py"}, pkg.Keys())

	var fileKeys []string
	for _, f := range pkg.Files() {
		fileKeys = append(fileKeys, f.Key())
	}
	assert.Equal(t, []string{"Upper.py", "alpha.py", "zeta.py"}, fileKeys)

	var modNames []string
	for _, m := range pkg.SubModules() {
		modNames = append(modNames, m.Name)
	}
	assert.Equal(t, []string{"beta", "mid"}, modNames)
}

func TestTree_FirstInsertWins(t *testing.T) {
	tree := NewTree("pkg")
	first, err := ParseSource(context.Background(), "sub/mod.py", []byte("A = 1\n"))
	require.NoError(t, err)
	second, err := ParseSource(context.Background(), "sub/mod.py", []byte("B = 2\n"))
	require.NoError(t, err)

	assert.True(t, tree.Insert(first))
	assert.False(t, tree.Insert(second))

	got := tree.Root().Module("sub").File("mod.py")
	assert.Same(t, first, got)
	assert.Nil(t, second.Parent())
	assert.Equal(t, 1, tree.Len())
}

func TestModule_InsertBelowSubModule(t *testing.T) {
	tree := NewTree("pkg")
	f, err := ParseSource(context.Background(), "a/b/c.py", nil)
	require.NoError(t, err)
	require.True(t, tree.Insert(f))

	a := tree.Root().Module("a")
	g, err := ParseSource(context.Background(), "a/d.py", nil)
	require.NoError(t, err)
	assert.True(t, a.Insert(g))
	assert.Same(t, a, g.Parent())

	outside, err := ParseSource(context.Background(), "other/e.py", nil)
	require.NoError(t, err)
	assert.False(t, a.Insert(outside))
	assert.Equal(t, "pkg/a/b", a.Module("b").Path)
}

func TestModule_AddErrors(t *testing.T) {
	root, tree := newPackage(t, map[string]string{"ok.py": ""})
	ctx := context.Background()

	_, err := tree.Add(ctx, filepath.Join(filepath.Dir(root), "elsewhere.py"))
	assert.True(t, errors.Is(err, ErrOutsideModule))

	_, err = tree.Add(ctx, filepath.Join(root, "missing.py"))
	var nf *NotAFileError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, 0, tree.Len())
}

func TestModule_WalkAndPretty(t *testing.T) {
	tree := NewTree("pkg")
	for _, p := range []string{"b.py", "a/__init__.py", "a/x.py", "__init__.py"} {
		f, err := ParseSource(context.Background(), p, nil)
		require.NoError(t, err)
		require.True(t, tree.Insert(f))
	}

	var visited []string
	err := tree.Root().Walk(func(n Node) error {
		visited = append(visited, n.Key())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg", "__init__.py", "a", "__init__.py", "x.py", "b.py"}, visited)

	want := "pkg/\n  __init__.py\n  a/\n    __init__.py\n    x.py\n  b.py\n"
	assert.Equal(t, want, tree.Root().Pretty())

	stop := errors.New("stop")
	err = tree.Root().Walk(func(n Node) error {
		if n.Key() == "a" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}
