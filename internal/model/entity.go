package model

import "strings"

// Kind tags an Entity.
type Kind string

const (
	KindAssign    Kind = "assign"
	KindAnnAssign Kind = "annassign"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindImport    Kind = "import"
)

// Entity is one documentable construct of a file or class body. The set of
// implementations is closed: *Assign, *AnnAssign, *Method, *Class, *Import.
type Entity interface {
	Kind() Kind
	// Ident is the declared name.
	Ident() string
	// Doc is the normalized docstring, or "".
	Doc() string
	// Code is the canonical one-line rendering (signature for
	// definitions, assignment text for variables).
	Code() string

	setDoc(raw string)
}

// Common carries the name and docstring shared by all entities.
type Common struct {
	Name      string
	Docstring string
}

func (c *Common) Ident() string { return c.Name }
func (c *Common) Doc() string   { return c.Docstring }

func (c *Common) setDoc(raw string) {
	c.Docstring = NormalizeDocstring(raw)
}

// Visibility classifies a name by the leading-underscore convention.
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// VisibilityOf classifies name. Any name starting with two underscores is
// private, dunder names included.
func VisibilityOf(name string) Visibility {
	switch {
	case strings.HasPrefix(name, "__"):
		return Private
	case strings.HasPrefix(name, "_"):
		return Protected
	default:
		return Public
	}
}
