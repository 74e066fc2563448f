package main

import (
	"time"

	"github.com/Tired-Fox/papi"
	"github.com/Tired-Fox/papi/internal/model"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIModule is a JSON-friendly module with its files and submodules.
type CLIModule struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	URL       string      `json:"url"`
	Docstring string      `json:"docstring,omitempty"`
	Files     []CLIFile   `json:"files"`
	Modules   []CLIModule `json:"modules"`
}

// CLIFile is a JSON-friendly file representation.
type CLIFile struct {
	ID        int64  `json:"id,omitempty"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Docstring string `json:"docstring,omitempty"`
}

// CLIFileDetail is a file with its imports and entities.
type CLIFileDetail struct {
	CLIFile
	Imports  []string    `json:"imports"`
	Entities []CLIEntity `json:"entities"`
}

// CLIEntity is a JSON-friendly entity representation.
type CLIEntity struct {
	ID         int64       `json:"id,omitempty"`
	Kind       string      `json:"kind"`
	Name       string      `json:"name"`
	QualName   string      `json:"qualname,omitempty"`
	Visibility string      `json:"visibility"`
	Code       string      `json:"code"`
	Docstring  string      `json:"docstring,omitempty"`
	File       string      `json:"file,omitempty"`
	Members    []CLIEntity `json:"members,omitempty"`
}

// CLIArgument is one method parameter.
type CLIArgument struct {
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	Annotation string  `json:"annotation,omitempty"`
	Default    *string `json:"default,omitempty"`
}

// CLIEntityDetail bundles an entity with its arguments and members.
type CLIEntityDetail struct {
	Entity    CLIEntity     `json:"entity"`
	Arguments []CLIArgument `json:"arguments"`
	Members   []CLIEntity   `json:"members"`
}

// CLIImport is a JSON-friendly import representation.
type CLIImport struct {
	FileID int64    `json:"file_id"`
	File   string   `json:"file,omitempty"`
	Module string   `json:"module,omitempty"`
	Names  []string `json:"names"`
	Level  int      `json:"level"`
	Code   string   `json:"code"`
}

// CLIExport describes a written export.
type CLIExport struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"created_at"`
	Files     int       `json:"files"`
	Modules   int       `json:"modules"`
	Skipped   []string  `json:"skipped,omitempty"`
}

// CLIChange is one entry of an export diff.
type CLIChange struct {
	File       string `json:"file"`
	QualName   string `json:"qualname"`
	Occurrence int    `json:"occurrence,omitempty"`
	Kind       string `json:"kind"`
	Change     string `json:"change"`
	Old        string `json:"old,omitempty"`
	New        string `json:"new,omitempty"`
}

// CLISummary is the export digest.
type CLISummary struct {
	ExportID     int64          `json:"export_id"`
	Modules      int            `json:"modules"`
	Files        int            `json:"files"`
	Imports      int            `json:"imports"`
	KindCounts   map[string]int `json:"kind_counts"`
	Undocumented int            `json:"undocumented"`
}

// CLIGraph is the module dependency graph.
type CLIGraph struct {
	Modules []papi.ModuleNode     `json:"modules"`
	Edges   []papi.DependencyEdge `json:"edges"`
}

// CLICycles lists circular module dependencies.
type CLICycles [][]string

// --- Conversions ---

func moduleToCLI(m *model.Module) CLIModule {
	out := CLIModule{
		Name:      m.Name,
		Path:      m.Path,
		URL:       m.URL(),
		Docstring: m.Docstring(),
		Files:     []CLIFile{},
		Modules:   []CLIModule{},
	}
	for _, f := range m.Files() {
		out.Files = append(out.Files, sourceFileToCLI(f))
	}
	for _, sub := range m.SubModules() {
		out.Modules = append(out.Modules, moduleToCLI(sub))
	}
	return out
}

func sourceFileToCLI(f *model.File) CLIFile {
	return CLIFile{Path: f.Path, Name: f.Name(), URL: f.URL(), Docstring: f.Docstring}
}

func fileDetailToCLI(f *model.File) CLIFileDetail {
	out := CLIFileDetail{
		CLIFile:  sourceFileToCLI(f),
		Imports:  []string{},
		Entities: []CLIEntity{},
	}
	for _, imp := range f.Imports() {
		out.Imports = append(out.Imports, imp.Code())
	}
	for _, e := range f.Objects() {
		out.Entities = append(out.Entities, modelEntityToCLI(e))
	}
	return out
}

func modelEntityToCLI(e model.Entity) CLIEntity {
	out := CLIEntity{
		Kind:       string(e.Kind()),
		Name:       e.Ident(),
		Visibility: string(model.VisibilityOf(e.Ident())),
		Code:       e.Code(),
		Docstring:  e.Doc(),
	}
	if c, ok := e.(*model.Class); ok {
		for _, a := range c.Attributes {
			out.Members = append(out.Members, modelEntityToCLI(a))
		}
		for _, m := range c.Methods {
			out.Members = append(out.Members, modelEntityToCLI(m))
		}
		for _, n := range c.Classes {
			out.Members = append(out.Members, modelEntityToCLI(n))
		}
	}
	return out
}

func indexedFileToCLI(f papi.IndexedFile) CLIFile {
	return CLIFile{ID: f.ID, Path: f.Path, Name: f.Name, URL: f.URL, Docstring: f.Docstring}
}

func indexedEntityToCLI(e *papi.IndexedEntity, file string) CLIEntity {
	return CLIEntity{
		ID:         e.ID,
		Kind:       e.Kind,
		Name:       e.Name,
		QualName:   e.QualName,
		Visibility: e.Visibility,
		Code:       e.Code,
		Docstring:  e.Docstring,
		File:       file,
	}
}

func importToCLI(imp *papi.Import, file string) CLIImport {
	names := imp.Names
	if names == nil {
		names = []string{}
	}
	return CLIImport{
		FileID: imp.FileID,
		File:   file,
		Module: imp.Module,
		Names:  names,
		Level:  imp.Level,
		Code:   imp.Code,
	}
}

func changeToCLI(c *papi.EntityChange) CLIChange {
	out := CLIChange{File: c.Path, QualName: c.QualName, Occurrence: c.Occurrence, Kind: c.Kind, Change: c.Change}
	if c.Old != nil {
		out.Old = c.Old.Code
	}
	if c.New != nil {
		out.New = c.New.Code
	}
	return out
}
