package model

import "strings"

// Value is a normalized expression: the default of a parameter, the
// right-hand side of an assignment, a decorator or a call argument.
//
// The set of implementations is closed: *Literal, *Name, *Attribute, *Call,
// *Starred, *Collection and *Raw. An absent value (Missing) is a nil Value.
type Value interface {
	String() string
	value()
}

// IsMissing reports whether v is the absent value. A present None literal
// is not missing.
func IsMissing(v Value) bool {
	return v == nil
}

// LiteralKind tags the constant held by a Literal.
type LiteralKind int

const (
	LiteralNone LiteralKind = iota
	LiteralBool
	LiteralInt
	LiteralFloat
	LiteralString
	LiteralBytes
	LiteralEllipsis
)

// Literal is a constant. Text holds the decoded string for LiteralString,
// decimal digits for LiteralInt and source text for the other kinds.
type Literal struct {
	Kind LiteralKind
	Text string
}

func (l *Literal) String() string {
	switch l.Kind {
	case LiteralNone:
		return "None"
	case LiteralEllipsis:
		return "..."
	case LiteralString:
		return pyRepr(l.Text)
	default:
		return l.Text
	}
}

// Name is a bare identifier. It is both a Value and an Annotation.
type Name struct {
	ID string
}

func (n *Name) String() string { return n.ID }

// Attribute is a dotted access such as pkg.Type. It is both a Value and an
// Annotation (the qualified form).
type Attribute struct {
	Base Value
	Attr string
}

func (a *Attribute) String() string {
	return a.Base.String() + "." + a.Attr
}

// Keyword is a keyword argument of a Call. An empty Name is the **value
// unpacking form.
type Keyword struct {
	Name  string
	Value Value
}

func (k *Keyword) String() string {
	if k.Name == "" {
		return "**" + k.Value.String()
	}
	return k.Name + "=" + k.Value.String()
}

// Call is a call expression. Positional arguments render before keywords.
type Call struct {
	Func     Value
	Args     []Value
	Keywords []*Keyword
}

func (c *Call) String() string {
	parts := make([]string, 0, len(c.Args)+len(c.Keywords))
	for _, a := range c.Args {
		parts = append(parts, a.String())
	}
	for _, k := range c.Keywords {
		parts = append(parts, k.String())
	}
	return c.Func.String() + "(" + strings.Join(parts, ", ") + ")"
}

// Starred is a *value unpacking inside a call or collection.
type Starred struct {
	Value Value
}

func (s *Starred) String() string { return "*" + s.Value.String() }

// CollectionKind distinguishes list, tuple and set displays.
type CollectionKind int

const (
	List CollectionKind = iota
	Tuple
	Set
)

// Collection is a list, tuple or set display.
type Collection struct {
	Kind     CollectionKind
	Elements []Value
}

// String renders lists with brackets and tuples with parentheses; a
// one-element tuple keeps its comma. A set renders like a tuple followed by
// a trailing comma.
func (c *Collection) String() string {
	parts := make([]string, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = e.String()
	}
	inner := strings.Join(parts, ", ")
	switch c.Kind {
	case List:
		return "[" + inner + "]"
	case Set:
		return "(" + inner + "),"
	default:
		if len(parts) == 1 {
			inner += ","
		}
		return "(" + inner + ")"
	}
}

// Raw is an expression kind the normalizer does not model, kept as the
// source text it was parsed from.
type Raw struct {
	Kind string
	Text string
}

func (r *Raw) String() string { return r.Text }

func (*Literal) value()    {}
func (*Name) value()       {}
func (*Attribute) value()  {}
func (*Call) value()       {}
func (*Starred) value()    {}
func (*Collection) value() {}
func (*Raw) value()        {}

// render returns v.String(), or "" for a missing value.
func render(v interface{ String() string }) string {
	if v == nil {
		return ""
	}
	return v.String()
}
