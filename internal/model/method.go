package model

import (
	"fmt"
	"strings"
)

// Argument is one parameter of a Method.
type Argument struct {
	Name       string
	Annotation Annotation
	Default    Value
}

// String renders the parameter with PEP 8 spacing: `a=1` without an
// annotation, `a: int = 1` with one.
func (a *Argument) String() string {
	s := a.Name
	if a.Annotation != nil {
		s += ": " + a.Annotation.String()
	}
	if !IsMissing(a.Default) {
		if a.Annotation != nil {
			s += " = " + a.Default.String()
		} else {
			s += "=" + a.Default.String()
		}
	}
	return s
}

// Method is a function definition, at module level or inside a class.
type Method struct {
	Common
	Async      bool
	Decorators []Value
	PosOnly    []*Argument
	Args       []*Argument
	KwOnly     []*Argument
	VarArg     *Argument
	KwArg      *Argument
	Returns    Annotation
}

func (*Method) Kind() Kind { return KindMethod }

func (m *Method) Code() string { return m.Signature() }

// Signature renders the decorators, one per line, followed by the def line.
func (m *Method) Signature() string {
	var b strings.Builder
	for _, d := range m.Decorators {
		b.WriteString("@" + d.String() + "\n")
	}
	if m.Async {
		b.WriteString("async ")
	}
	b.WriteString("def " + m.Name + "(" + strings.Join(m.params(), ", ") + ")")
	if m.Returns != nil {
		b.WriteString(" -> " + m.Returns.String())
	}
	return b.String()
}

func (m *Method) params() []string {
	var out []string
	for _, a := range m.PosOnly {
		out = append(out, a.String())
	}
	if len(m.PosOnly) > 0 {
		out = append(out, "/")
	}
	for _, a := range m.Args {
		out = append(out, a.String())
	}
	switch {
	case m.VarArg != nil:
		out = append(out, "*"+m.VarArg.String())
	case len(m.KwOnly) > 0:
		out = append(out, "*")
	}
	for _, a := range m.KwOnly {
		out = append(out, a.String())
	}
	if m.KwArg != nil {
		out = append(out, "**"+m.KwArg.String())
	}
	return out
}

// Parameters returns every argument in declaration order.
func (m *Method) Parameters() []*Argument {
	out := make([]*Argument, 0, len(m.PosOnly)+len(m.Args)+len(m.KwOnly)+2)
	out = append(out, m.PosOnly...)
	out = append(out, m.Args...)
	if m.VarArg != nil {
		out = append(out, m.VarArg)
	}
	out = append(out, m.KwOnly...)
	if m.KwArg != nil {
		out = append(out, m.KwArg)
	}
	return out
}

// bindDefaults assigns positional defaults right to left across the
// regular arguments, handing left-overs to the trailing positional-only
// arguments, and keyword-only defaults position for position.
func bindDefaults(posonly, args []*Argument, defaults []Value, kwonly []*Argument, kwDefaults []Value) error {
	if len(defaults) > len(posonly)+len(args) {
		return fmt.Errorf("%d positional defaults for %d positional parameters", len(defaults), len(posonly)+len(args))
	}
	if len(kwDefaults) != len(kwonly) {
		return fmt.Errorf("%d keyword-only defaults for %d keyword-only parameters", len(kwDefaults), len(kwonly))
	}

	n := min(len(defaults), len(args))
	for i := range n {
		args[len(args)-n+i].Default = defaults[len(defaults)-n+i]
	}
	rest := defaults[:len(defaults)-n]
	for i, d := range rest {
		posonly[len(posonly)-len(rest)+i].Default = d
	}
	for i, d := range kwDefaults {
		kwonly[i].Default = d
	}
	return nil
}
