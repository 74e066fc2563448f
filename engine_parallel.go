package papi

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Tired-Fox/papi/internal/model"
)

// parsed is the outcome of parsing one file on a worker.
type parsed struct {
	rel  string
	file *model.File
	err  error
}

// parseParallel parses files on a bounded worker pool in two phases:
//
//	Phase A (parallel): read and parse every file into its own slot.
//	Phase B (serial):   insert the results into the tree in listing order.
//
// Tree-sitter parsers are created per file, so workers share nothing but
// the output slice. Without keep-going the first failure cancels the rest.
func (e *Engine) parseParallel(ctx context.Context, root string, paths []string, res *Result) error {
	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(paths)))

	results := make([]parsed, len(paths))

	// ---- Phase A: parallel parse ----
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel := relPath(root, path)
			f, err := model.ParseFile(gctx, rel, path)
			results[i] = parsed{rel: rel, file: f, err: err}
			if err != nil && (!e.keepGoing || !IsSkippable(err)) {
				return fmt.Errorf("papi: parse %s: %w", rel, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	e.logger.WithField("workers", workers).Debugf("parsed %d file(s)", len(paths))

	// ---- Phase B: serial insert ----
	for _, r := range results {
		if err := e.collect(ctx, res, r.rel, r.file, r.err); err != nil {
			return err
		}
	}
	return nil
}
