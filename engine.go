package papi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tired-Fox/papi/internal/config"
	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/pyast"
)

// Engine turns a package directory into a documentation tree: it lists the
// source files, parses each one and assembles the Module hierarchy.
type Engine struct {
	logger     logrus.FieldLogger
	extensions []string
	ignore     map[string]bool
	exclude    []string
	matcher    *config.Matcher
	gitignore  bool
	keepGoing  bool

	// useParallel enables the worker pool; workers bounds it (0 = NumCPU).
	useParallel bool
	workers     int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParallel controls parallel parsing. When true (default), files are
// parsed on a worker pool and a single collector inserts them into the tree.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers bounds the worker pool. Zero or less means one per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithExtensions sets the source file extensions, e.g. ".py", ".pyi".
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = exts
	}
}

// WithIgnore replaces the list of file names skipped during the walk.
func WithIgnore(names ...string) Option {
	return func(e *Engine) {
		e.ignore = make(map[string]bool, len(names))
		for _, n := range names {
			e.ignore[n] = true
		}
	}
}

// WithExclude adds glob patterns matched against root-relative slash paths.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.exclude = append(e.exclude, patterns...)
	}
}

// WithKeepGoing records files that fail to parse in Result.Skipped instead
// of aborting the run.
func WithKeepGoing(keep bool) Option {
	return func(e *Engine) {
		e.keepGoing = keep
	}
}

// WithGitignore lists files with git ls-files when the root is inside a
// repository, so ignored files are left out.
func WithGitignore(use bool) Option {
	return func(e *Engine) {
		e.gitignore = use
	}
}

// WithConfig applies every engine setting of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		WithExtensions(cfg.Extensions...)(e)
		WithIgnore(cfg.Ignore...)(e)
		WithExclude(cfg.Exclude...)(e)
		WithParallel(cfg.IsParallel())(e)
		WithWorkers(cfg.Workers)(e)
		WithKeepGoing(cfg.KeepGoing)(e)
		WithGitignore(cfg.Gitignore)(e)
	}
}

// New creates an Engine. Without options it parses *.py files in parallel,
// skips __main__.py and aborts on the first failing file.
func New(opts ...Option) (*Engine, error) {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	def := config.Default()
	e := &Engine{
		logger:      discard,
		extensions:  def.Extensions,
		useParallel: true,
	}
	WithIgnore(def.Ignore...)(e)
	for _, opt := range opts {
		opt(e)
	}

	m, err := config.NewMatcher(e.exclude)
	if err != nil {
		return nil, fmt.Errorf("papi: %w", err)
	}
	e.matcher = m
	return e, nil
}

// Result is a constructed documentation tree.
type Result struct {
	Tree *model.Tree
	Root *model.Module
	// Skipped lists files left out of the tree because they failed to
	// parse. Only populated with WithKeepGoing.
	Skipped []SkippedFile
	Elapsed time.Duration
}

// SkippedFile is a file missing from the tree and the reason.
type SkippedFile struct {
	Path string
	Err  error
}

// Construct builds the documentation tree for the package rooted at root.
func Construct(ctx context.Context, root string, opts ...Option) (*Result, error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return e.Construct(ctx, root)
}

// Construct lists every source file under root, parses it and inserts it
// into a tree whose root module is named after the directory.
func (e *Engine) Construct(ctx context.Context, root string) (*Result, error) {
	start := time.Now()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("papi: resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("papi: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("papi: %s is not a directory", root)
	}

	paths, err := e.ListFiles(abs)
	if err != nil {
		return nil, err
	}

	res := &Result{Tree: model.NewTree(abs)}
	res.Root = res.Tree.Root()
	if e.useParallel && len(paths) > 1 {
		err = e.parseParallel(ctx, abs, paths, res)
	} else {
		err = e.parseSerial(ctx, abs, paths, res)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(res.Skipped, func(i, j int) bool { return res.Skipped[i].Path < res.Skipped[j].Path })
	res.Elapsed = time.Since(start)

	e.logger.WithFields(logrus.Fields{
		"root":    res.Root.Name,
		"files":   res.Tree.Len(),
		"modules": res.Tree.ModuleCount(),
		"skipped": len(res.Skipped),
		"elapsed": res.Elapsed.Round(time.Millisecond),
	}).Info("constructed documentation tree")
	return res, nil
}

func (e *Engine) parseSerial(ctx context.Context, root string, paths []string, res *Result) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := relPath(root, path)
		f, err := model.ParseFile(ctx, rel, path)
		if err := e.collect(ctx, res, rel, f, err); err != nil {
			return err
		}
	}
	return nil
}

// collect inserts one parse outcome into the tree. It is the only writer
// of res and runs on a single goroutine.
func (e *Engine) collect(ctx context.Context, res *Result, rel string, f *model.File, err error) error {
	if err != nil {
		if !e.keepGoing || !IsSkippable(err) || ctx.Err() != nil {
			return fmt.Errorf("papi: parse %s: %w", rel, err)
		}
		e.logger.WithField("file", rel).WithError(err).Warn("skipping file")
		res.Skipped = append(res.Skipped, SkippedFile{Path: rel, Err: err})
		return nil
	}
	if !res.Tree.Insert(f) {
		e.logger.WithField("file", rel).Debug("duplicate key, keeping first file")
		return nil
	}
	e.logger.WithFields(logrus.Fields{
		"file":     rel,
		"entities": len(f.Objects()),
		"imports":  len(f.Imports()),
	}).Debug("parsed file")
	return nil
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	"__pycache__":  true,
	"node_modules": true,
}

// ListFiles returns the source files under root in walk order, applying
// the ignore list and exclude patterns.
func (e *Engine) ListFiles(root string) ([]string, error) {
	var (
		paths []string
		err   error
	)
	if e.gitignore {
		paths, err = e.gitListFiles(root)
		if err != nil {
			e.logger.WithError(err).Debug("git listing unavailable, walking directory")
		}
	}
	if !e.gitignore || err != nil {
		paths, err = e.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}

	out := paths[:0]
	for _, p := range paths {
		if e.ignore[filepath.Base(p)] || e.matcher.Match(relPath(root, p)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) source files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !pyast.IsSource(line, e.extensions) {
			continue
		}
		if slices.ContainsFunc(strings.Split(line, "/"), skipSegment) {
			continue
		}
		paths = append(paths, filepath.Join(root, filepath.FromSlash(line)))
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, skipping hidden
// directories and __pycache__.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipSegment(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && pyast.IsSource(path, e.extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("papi: walk directory: %w", err)
	}
	return paths, nil
}

func skipSegment(name string) bool {
	return strings.HasPrefix(name, ".") || skipDirs[name]
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// IsSkippable reports whether err is a per-file failure that keep-going
// mode records instead of aborting on.
func IsSkippable(err error) bool {
	var (
		syntax      *pyast.SyntaxError
		unsupported *model.UnsupportedAnnotationError
		invariant   *model.InvariantError
		notAFile    *model.NotAFileError
	)
	return errors.As(err, &syntax) || errors.As(err, &unsupported) ||
		errors.As(err, &invariant) || errors.As(err, &notAFile)
}
