package model

import "strings"

// Annotation is a normalized type hint. The set of implementations is
// closed: *Name (a simple name, including None), *Attribute (a qualified
// name), *Subscript and *Union. A missing annotation is a nil Annotation.
type Annotation interface {
	String() string
	annotation()
}

// Subscript is a subscripted generic such as dict[str, int].
type Subscript struct {
	Name string
	Args []Annotation
}

func (s *Subscript) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Name + "[" + strings.Join(parts, ", ") + "]"
}

// Union is the `left | right` union sugar.
type Union struct {
	Left  Annotation
	Right Annotation
}

func (u *Union) String() string {
	return u.Left.String() + " | " + u.Right.String()
}

func (*Name) annotation()      {}
func (*Attribute) annotation() {}
func (*Subscript) annotation() {}
func (*Union) annotation()     {}
