// Package papi builds a documentation model of a Python package: its
// modules, files, top-level entities and imports. Source is parsed with
// tree-sitter; nothing is imported or executed.
//
// # Pipeline
//
// papi operates in two phases:
//
//  1. Construct: list the source files under a package directory, parse
//     each file into a [SourceFile] and assemble the [Module] hierarchy. The
//     root module is named after the directory.
//
//  2. Export: write the tree to an SQLite index as a new export. Earlier
//     exports are kept, so two runs can be diffed.
//
// # Usage
//
// Construct a tree, export it and query the export:
//
//	res, err := papi.Construct(ctx, "path/to/package", papi.WithKeepGoing(true))
//	if err != nil { ... }
//	for _, s := range res.Skipped {
//		log.Printf("skipped %s: %v", s.Path, s.Err)
//	}
//
//	ix, err := papi.OpenIndex("papi.db")
//	if err != nil { ... }
//	defer ix.Close()
//
//	exp, err := ix.Export(ctx, res)
//	q := ix.Query(exp.ID)
//	page, err := q.SearchEntities("get_*", papi.EntityFilter{}, papi.Sort{}, papi.Pagination{})
//
// # Query API
//
// The [QueryBuilder] returned by [Index.Query] or [Index.Latest] reads one
// export:
//
//   - [QueryBuilder.Files], [QueryBuilder.Entities] and
//     [QueryBuilder.SearchEntities] list with filters, sorting and paging.
//   - [QueryBuilder.EntityDetail] returns an entity with its arguments and
//     class members.
//   - [QueryBuilder.Dependencies] and [QueryBuilder.Dependents] follow
//     imports.
//   - [QueryBuilder.ModuleDependencyGraph] and
//     [QueryBuilder.CircularDependencies] summarize imports between modules.
//   - [QueryBuilder.Summary] counts modules, files, imports and entity kinds.
//   - [QueryBuilder.DiffFrom] compares the export with an earlier one.
//
// # Parallelism
//
// By default files are parsed on a worker pool ([WithWorkers] bounds it)
// and a single collector inserts them into the tree in listing order, so
// serial and parallel runs build identical trees.
//
// # Scripts
//
// The internal/runtime package runs Risor scripts over a tree, with the
// root module bound to the "root" global. Example render scripts live under
// scripts/render.
package papi
