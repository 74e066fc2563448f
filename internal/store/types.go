package store

import "time"

// Export is one run of WriteTree. Every other row belongs to an export.
type Export struct {
	ID        int64
	RunID     string
	Root      string
	CreatedAt time.Time
}

type Module struct {
	ID        int64
	ExportID  int64
	ParentID  *int64
	Name      string
	Path      string
	URL       string
	Docstring string
}

type File struct {
	ID        int64
	ExportID  int64
	ModuleID  int64
	Path      string
	FullPath  string
	Name      string
	URL       string
	Docstring string
}

// Entity is a stored model.Entity. Class members point at their class
// through ParentID; QualName joins the names, e.g. Foo.bar.
type Entity struct {
	ID            int64
	FileID        int64
	ParentID      *int64
	Kind          string
	Name          string
	QualName      string
	Visibility    string
	Code          string
	Docstring     string
	Annotation    string
	Value         string
	Returns       string
	Async         bool
	SignatureHash string
	Ordinal       int
}

// Argument kinds.
const (
	ArgPosOnly = "posonly"
	ArgRegular = "regular"
	ArgVarArg  = "vararg"
	ArgKwOnly  = "kwonly"
	ArgKwArg   = "kwarg"
)

type Argument struct {
	ID         int64
	EntityID   int64
	Ordinal    int
	Kind       string
	Name       string
	Annotation string
	HasDefault bool
	Default    string
}

type Import struct {
	ID      int64
	FileID  int64
	Module  string
	Names   []string
	Level   int
	Code    string
	Ordinal int
}

// Change kinds reported by DiffExports.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeChanged = "changed"
)

// EntityChange is one difference between two exports, keyed on the file
// path, qualified name and occurrence.
type EntityChange struct {
	Path     string
	QualName string
	// Occurrence is 0 for the first entity of the file with QualName, 1
	// for the second and so on.
	Occurrence int
	Kind       string
	Change     string
	Old        *Entity
	New        *Entity
}
