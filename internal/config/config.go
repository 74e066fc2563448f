// Package config loads papi settings from a .papi.yaml or .papi.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names searched for, in order of preference.
var FileNames = []string{".papi.yaml", ".papi.yml", ".papi.toml"}

// ErrConfigNotFound is returned by Find when no config file exists in the
// directory or any of its parents.
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig wraps validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting the engine and CLI read.
type Config struct {
	// Extensions are the source file extensions to parse.
	Extensions []string `yaml:"extensions" toml:"extensions"`
	// Ignore lists file names skipped wherever they appear.
	Ignore []string `yaml:"ignore" toml:"ignore"`
	// Exclude lists glob patterns matched against root-relative slash paths.
	Exclude []string `yaml:"exclude" toml:"exclude"`
	// Parallel enables the worker pool. Nil means unset.
	Parallel *bool `yaml:"parallel" toml:"parallel"`
	// Workers bounds the worker pool; 0 means one per CPU.
	Workers int `yaml:"workers" toml:"workers"`
	// KeepGoing records per-file failures instead of aborting the run.
	KeepGoing bool `yaml:"keep_going" toml:"keep_going"`
	// Gitignore lists files with git ls-files when the root is a repository.
	Gitignore bool   `yaml:"gitignore" toml:"gitignore"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	// DBPath is the SQLite index written by export.
	DBPath string `yaml:"db" toml:"db"`
	// ScriptsDir resolves relative render scripts and their imports.
	ScriptsDir string `yaml:"scripts_dir" toml:"scripts_dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	parallel := true
	return &Config{
		Extensions: []string{".py"},
		Ignore:     []string{"__main__.py"},
		Parallel:   &parallel,
		LogLevel:   "warn",
		DBPath:     "papi.db",
	}
}

// Load finds the nearest config file at or above dir and loads it. Without
// one, Default is returned.
func Load(dir string) (*Config, error) {
	path, err := Find(dir)
	if errors.Is(err, ErrConfigNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Find walks from dir towards the filesystem root and returns the first
// config file found.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolving path: %w", err)
	}
	for cur := abs; ; {
		for _, name := range FileNames {
			candidate := filepath.Join(cur, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", ErrConfigNotFound
		}
		cur = parent
	}
}

// LoadFile decodes the file at path by extension, overlays it on Default
// and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	loaded := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), loaded); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, loaded); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	merged := Merge(loaded, Default())
	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge returns base with every non-zero field of over applied.
func Merge(over, base *Config) *Config {
	out := *base
	if len(over.Extensions) > 0 {
		out.Extensions = over.Extensions
	}
	if over.Ignore != nil {
		out.Ignore = over.Ignore
	}
	if len(over.Exclude) > 0 {
		out.Exclude = over.Exclude
	}
	if over.Parallel != nil {
		out.Parallel = over.Parallel
	}
	if over.Workers != 0 {
		out.Workers = over.Workers
	}
	if over.KeepGoing {
		out.KeepGoing = true
	}
	if over.Gitignore {
		out.Gitignore = true
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	if over.DBPath != "" {
		out.DBPath = over.DBPath
	}
	if over.ScriptsDir != "" {
		out.ScriptsDir = over.ScriptsDir
	}
	return &out
}

// Validate reports the first invalid setting.
func Validate(cfg *Config) error {
	if len(cfg.Extensions) == 0 {
		return fmt.Errorf("%w: extensions must not be empty", ErrInvalidConfig)
	}
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidConfig, ext)
		}
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %v", ErrInvalidConfig, err)
	}
	if _, err := NewMatcher(cfg.Exclude); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// IsParallel reports the effective parallel setting.
func (c *Config) IsParallel() bool {
	return c.Parallel == nil || *c.Parallel
}

// Matcher matches root-relative slash paths against exclude globs.
type Matcher struct {
	patterns []glob.Glob
}

// NewMatcher compiles patterns with '/' as the separator, so `*` stays
// within one path segment and `**` crosses them.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, g)
	}
	return m, nil
}

// Match reports whether rel matches any pattern. A nil Matcher matches
// nothing.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.patterns {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
