package model

import "strings"

// Class is a class definition with its attributes, methods and nested
// classes in source order.
type Class struct {
	Common
	Bases      []string
	Decorators []Value
	Attributes []*AnnAssign
	Methods    []*Method
	Classes    []*Class
}

func (*Class) Kind() Kind { return KindClass }

func (c *Class) Code() string { return c.Signature() }

// Signature renders `class Name(Base, ...)`, or `class Name` without bases.
func (c *Class) Signature() string {
	if len(c.Bases) == 0 {
		return "class " + c.Name
	}
	return "class " + c.Name + "(" + strings.Join(c.Bases, ", ") + ")"
}
