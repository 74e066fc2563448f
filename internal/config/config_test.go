package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{".py"}, cfg.Extensions)
	assert.Equal(t, []string{"__main__.py"}, cfg.Ignore)
	assert.True(t, cfg.IsParallel())
	assert.Equal(t, "warn", cfg.LogLevel)
	require.NoError(t, Validate(cfg))
}

func TestLoad_NoFileReturnsDefault(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".papi.yaml", `
extensions: [".py", ".pyi"]
exclude: ["tests/**"]
parallel: false
workers: 3
keep_going: true
log_level: debug
db: out/index.db
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{".py", ".pyi"}, cfg.Extensions)
	assert.Equal(t, []string{"__main__.py"}, cfg.Ignore, "unset fields keep defaults")
	assert.Equal(t, []string{"tests/**"}, cfg.Exclude)
	assert.False(t, cfg.IsParallel())
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.KeepGoing)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "out/index.db", cfg.DBPath)
}

func TestLoadFile_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, ".papi.toml", `
ignore = ["__main__.py", "setup.py"]
gitignore = true
scripts_dir = "layouts"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"__main__.py", "setup.py"}, cfg.Ignore)
	assert.True(t, cfg.Gitignore)
	assert.Equal(t, "layouts", cfg.ScriptsDir)
	assert.True(t, cfg.IsParallel())
}

func TestLoad_FindsParentConfig(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ".papi.yml", "workers: 2\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".papi.yml"), found)

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad extension", "extensions: [py]\n"},
		{"negative workers", "workers: -1\n"},
		{"bad level", "log_level: loud\n"},
		{"bad glob", "exclude: [\"[\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), ".papi.yaml", tt.content)
			_, err := LoadFile(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}

	path := writeConfig(t, t.TempDir(), ".papi.yaml", "workers: [\n")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidConfig))
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"tests/**", "*_pb2.py"})
	require.NoError(t, err)

	assert.True(t, m.Match("tests/unit/test_core.py"))
	assert.True(t, m.Match("api_pb2.py"))
	assert.False(t, m.Match("sub/api_pb2.py"))
	assert.False(t, m.Match("core.py"))

	var none *Matcher
	assert.False(t, none.Match("anything.py"))
}
