package papi

import (
	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/store"
)

// Public type aliases for the internal model and store types used in the
// Engine and QueryBuilder APIs. These are Go type aliases (=), so no
// conversion is needed.

type Tree = model.Tree
type Module = model.Module
type SourceFile = model.File
type Entity = model.Entity

type Export = store.Export
type IndexedFile = store.File
type IndexedEntity = store.Entity
type Argument = store.Argument
type Import = store.Import
type EntityChange = store.EntityChange
