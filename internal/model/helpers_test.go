package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// parseSrc parses src as a standalone file named mod.py.
func parseSrc(t *testing.T, src string) *File {
	t.Helper()
	f, err := ParseSource(context.Background(), "mod.py", []byte(src))
	require.NoError(t, err)
	return f
}

// onlyMethod parses src and returns its single top-level function.
func onlyMethod(t *testing.T, src string) *Method {
	t.Helper()
	f := parseSrc(t, src)
	require.Len(t, f.Methods(), 1)
	return f.Methods()[0]
}

// writeFiles creates each relative path under root with the given content.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}
