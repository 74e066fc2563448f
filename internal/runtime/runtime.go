package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/sirupsen/logrus"

	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/store"
)

// inlineLabel names sources passed to RunSource in logs and errors.
const inlineLabel = "<inline>"

// Runtime embeds a Risor VM and exposes a documentation tree to render
// scripts.
type Runtime struct {
	root       *model.Module
	scriptsDir string
	fsys       fs.FS
	outDir     string
	store      *store.Store
	exportID   int64
	logger     logrus.FieldLogger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS loads scripts and their imports from fsys instead of the
// scripts directory.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithOutputDir enables the write host function. Every written path is
// resolved below dir.
func WithOutputDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.outDir = dir
	}
}

// WithStore exposes read-only queries against an index database through
// db_query, and the export they should read through export_id.
func WithStore(s *store.Store) RuntimeOption {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithExport pins export_id. Without it export_id is the latest export of
// the store.
func WithExport(id int64) RuntimeOption {
	return func(r *Runtime) {
		r.exportID = id
	}
}

// WithLogger routes the script log object to l.
func WithLogger(l logrus.FieldLogger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime over the tree rooted at root. root may be
// nil, in which case the root global is nil. Relative script paths and
// imports resolve against scriptsDir.
func NewRuntime(root *model.Module, scriptsDir string, opts ...RuntimeOption) *Runtime {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	r := &Runtime{
		root:       root,
		scriptsDir: scriptsDir,
		logger:     discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ScriptError is a failure raised while evaluating a script. Script is the
// resolved script path, or "<inline>" for RunSource.
type ScriptError struct {
	Script string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("runtime: script %s: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

// resolve maps a script path to where LoadScript reads it from. On the
// fs.FS the path is made relative to the FS root; on disk a relative path
// is joined to the scripts directory.
func (r *Runtime) resolve(p string) string {
	if r.fsys != nil {
		return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	}
	if filepath.IsAbs(p) || r.scriptsDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(r.scriptsDir, p)
}

// LoadScript returns the source of the script at p.
func (r *Runtime) LoadScript(p string) (string, error) {
	resolved := r.resolve(p)
	var (
		data []byte
		err  error
	)
	if r.fsys != nil {
		data, err = fs.ReadFile(r.fsys, resolved)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", resolved, err)
		}
	} else if data, err = os.ReadFile(resolved); err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", resolved, err)
	}
	return string(data), nil
}

// RunScript loads and evaluates the script at p. Its imports resolve
// against the scripts directory, or the script's own directory when none
// is configured.
func (r *Runtime) RunScript(ctx context.Context, p string, extra map[string]any) error {
	src, err := r.LoadScript(p)
	if err != nil {
		return err
	}
	label := r.resolve(p)
	importDir := r.scriptsDir
	if importDir == "" && r.fsys == nil {
		importDir = filepath.Dir(label)
	}
	return r.eval(ctx, src, label, importDir, extra)
}

// RunSource evaluates src as an inline script.
func (r *Runtime) RunSource(ctx context.Context, src string, extra map[string]any) error {
	return r.eval(ctx, src, inlineLabel, r.scriptsDir, extra)
}

func (r *Runtime) eval(ctx context.Context, src, label, importDir string, extra map[string]any) error {
	globals, err := r.buildGlobals(extra)
	if err != nil {
		return &ScriptError{Script: label, Err: err}
	}

	opts := make([]risor.Option, 0, len(globals)+1)
	names := make([]string, 0, len(globals))
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
		names = append(names, name)
	}
	if imp := r.importer(importDir, names); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	log := r.logger.WithField("script", label)
	log.Debug("running script")
	start := time.Now()
	if _, err := risor.Eval(ctx, src, opts...); err != nil {
		return &ScriptError{Script: label, Err: err}
	}
	log.WithField("elapsed", time.Since(start)).Debug("script finished")
	return nil
}

// importer resolves `import name` to name.risor on the runtime FS or below
// dir. Imported modules see the same global names as the script.
func (r *Runtime) importer(dir string, globalNames []string) importer.Importer {
	switch {
	case r.fsys != nil:
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	case dir != "":
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   dir,
			Extensions:  []string{".risor"},
		})
	default:
		return nil
	}
}

// buildGlobals binds the tree, the host functions and the caller's extra
// globals. write and db_query exist only when their option is set.
func (r *Runtime) buildGlobals(extra map[string]any) (map[string]any, error) {
	conv := newConverter()
	var root object.Object = object.Nil
	if r.root != nil {
		root = conv.module(r.root)
	}

	globals := map[string]any{
		"root":      root,
		"find":      makeFindFn(r.root, conv),
		"signature": makeSignatureFn(),
		"log":       mustProxy(&logObject{logger: r.logger}),
	}
	if r.outDir != "" {
		globals["write"] = makeWriteFn(r.outDir, r.logger)
	}
	if r.store != nil {
		id, err := r.currentExport()
		if err != nil {
			return nil, err
		}
		globals["db_query"] = makeDBQueryFn(r.store)
		globals["export_id"] = id
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals, nil
}

// currentExport returns the export_id global: the pinned export, the
// latest one, or nil on an empty index.
func (r *Runtime) currentExport() (object.Object, error) {
	if r.exportID != 0 {
		return object.NewInt(r.exportID), nil
	}
	exp, err := r.store.LatestExport()
	if errors.Is(err, store.ErrNotFound) {
		return object.Nil, nil
	}
	if err != nil {
		return nil, err
	}
	return object.NewInt(exp.ID), nil
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
