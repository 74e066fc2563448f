package model

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Tired-Fox/papi/internal/pyast"
)

// definition unwraps a decorated definition into its decorators and the
// function or class it decorates.
func (p *parser) definition(n *sitter.Node) (*sitter.Node, []Value) {
	if n.Type() != "decorated_definition" {
		return n, nil
	}
	var decorators []Value
	for _, c := range pyast.NamedChildren(n) {
		if c.Type() == "decorator" {
			decorators = append(decorators, p.value(firstNamed(c)))
		}
	}
	return pyast.Field(n, "definition"), decorators
}

// assignment returns the assignment node wrapped by an expression
// statement, or nil.
func assignment(stmt *sitter.Node) *sitter.Node {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return nil
	}
	if a := stmt.NamedChild(0); a.Type() == "assignment" {
		return a
	}
	return nil
}

// assign builds an Assign or AnnAssign. Targets other than a plain name
// yield nil.
func (p *parser) assign(n *sitter.Node) (Entity, error) {
	left := pyast.Field(n, "left")
	if left == nil || left.Type() != "identifier" {
		return nil, nil
	}
	name := p.text(left)

	right := pyast.Field(n, "right")
	for right != nil && right.Type() == "assignment" {
		right = pyast.Field(right, "right")
	}

	if typ := pyast.Field(n, "type"); typ != nil {
		ann, err := p.annotation(typ)
		if err != nil {
			return nil, err
		}
		return &AnnAssign{Common: Common{Name: name}, Annotation: ann, Value: p.value(right)}, nil
	}
	return &Assign{Common: Common{Name: name}, Value: p.value(right)}, nil
}

// method builds a Method from a function_definition node.
func (p *parser) method(n *sitter.Node, decorators []Value) (*Method, error) {
	m := &Method{
		Common:     Common{Name: p.text(pyast.Field(n, "name"))},
		Async:      pyast.HasToken(n, "async"),
		Decorators: decorators,
	}
	if err := p.parameters(m, pyast.Field(n, "parameters")); err != nil {
		return nil, err
	}
	ret, err := p.optionalAnnotation(pyast.Field(n, "return_type"))
	if err != nil {
		return nil, err
	}
	m.Returns = ret
	m.setDoc(p.leadingDoc(pyast.Field(n, "body")))
	return m, nil
}

// parameters fills the argument lists of m from a parameters node and
// binds the collected defaults.
func (p *parser) parameters(m *Method, n *sitter.Node) error {
	if n == nil {
		return nil
	}
	var (
		positional  []*Argument
		defaults    []Value
		kwDefaults  []Value
		keywordOnly bool
	)
	invalid := func(at *sitter.Node, format string, args ...any) error {
		return &InvariantError{
			Path:    p.tree.Path,
			Line:    pyast.Line(at),
			Message: fmt.Sprintf("def %s: ", m.Name) + fmt.Sprintf(format, args...),
		}
	}
	add := func(at *sitter.Node, arg *Argument, def Value) error {
		if keywordOnly {
			m.KwOnly = append(m.KwOnly, arg)
			kwDefaults = append(kwDefaults, def)
			return nil
		}
		if def == nil && len(defaults) > 0 {
			return invalid(at, "parameter %s without a default follows a parameter with one", arg.Name)
		}
		positional = append(positional, arg)
		if def != nil {
			defaults = append(defaults, def)
		}
		return nil
	}

	for _, c := range pyast.NamedChildren(n) {
		switch c.Type() {
		case "comment":
		case "identifier":
			if err := add(c, &Argument{Name: p.text(c)}, nil); err != nil {
				return err
			}
		case "default_parameter", "typed_default_parameter":
			ann, err := p.optionalAnnotation(pyast.Field(c, "type"))
			if err != nil {
				return err
			}
			arg := &Argument{Name: p.text(pyast.Field(c, "name")), Annotation: ann}
			if err := add(c, arg, p.value(pyast.Field(c, "value"))); err != nil {
				return err
			}
		case "typed_parameter":
			ann, err := p.optionalAnnotation(pyast.Field(c, "type"))
			if err != nil {
				return err
			}
			target := firstNamed(c)
			if target == nil {
				return invalid(c, "empty typed parameter")
			}
			switch target.Type() {
			case "list_splat_pattern":
				m.VarArg = &Argument{Name: p.text(firstNamed(target)), Annotation: ann}
				keywordOnly = true
			case "dictionary_splat_pattern":
				m.KwArg = &Argument{Name: p.text(firstNamed(target)), Annotation: ann}
			default:
				if err := add(c, &Argument{Name: p.text(target), Annotation: ann}, nil); err != nil {
					return err
				}
			}
		case "list_splat_pattern":
			m.VarArg = &Argument{Name: p.text(firstNamed(c))}
			keywordOnly = true
		case "dictionary_splat_pattern":
			m.KwArg = &Argument{Name: p.text(firstNamed(c))}
		case "keyword_separator":
			keywordOnly = true
		case "positional_separator":
			m.PosOnly = append(m.PosOnly, positional...)
			positional = nil
		default:
			return invalid(c, "unsupported parameter form %s", c.Type())
		}
	}
	m.Args = positional

	// Defaults collected before the "/" belong to positional-only
	// parameters; binding hands them back from the right.
	if err := bindDefaults(m.PosOnly, m.Args, defaults, m.KwOnly, kwDefaults); err != nil {
		return invalid(n, "%v", err)
	}
	return nil
}

// class builds a Class, routing each body statement to its sub-model.
func (p *parser) class(n *sitter.Node, decorators []Value) (*Class, error) {
	c := &Class{
		Common:     Common{Name: p.text(pyast.Field(n, "name"))},
		Decorators: decorators,
	}
	if supers := pyast.Field(n, "superclasses"); supers != nil {
		for _, b := range pyast.NamedChildren(supers) {
			switch b.Type() {
			case "comment", "keyword_argument", "dictionary_splat":
			default:
				c.Bases = append(c.Bases, p.value(b).String())
			}
		}
	}

	body := pyast.Field(n, "body")
	if body == nil {
		return c, nil
	}
	var last *AnnAssign
	for i, stmt := range statements(body) {
		if doc, ok := p.docString(stmt); ok {
			switch {
			case i == 0:
				c.setDoc(doc)
			case last != nil:
				last.setDoc(doc)
			}
			last = nil
			continue
		}
		last = nil

		if a := assignment(stmt); a != nil {
			if pyast.Field(a, "type") == nil {
				continue
			}
			e, err := p.assign(a)
			if err != nil {
				return nil, err
			}
			if attr, ok := e.(*AnnAssign); ok {
				c.Attributes = append(c.Attributes, attr)
				last = attr
			}
			continue
		}

		def, decs := p.definition(stmt)
		if def == nil {
			continue
		}
		switch def.Type() {
		case "function_definition":
			m, err := p.method(def, decs)
			if err != nil {
				return nil, err
			}
			c.Methods = append(c.Methods, m)
		case "class_definition":
			nested, err := p.class(def, decs)
			if err != nil {
				return nil, err
			}
			c.Classes = append(c.Classes, nested)
		}
	}
	return c, nil
}

// importStatement builds an Import from any of the three import forms.
func (p *parser) importStatement(n *sitter.Node) *Import {
	imp := &Import{Level: -1}
	module := pyast.Field(n, "module_name")

	switch n.Type() {
	case "future_import_statement":
		imp.Level = 0
		imp.Module = "__future__"
	case "import_from_statement":
		imp.Level = 0
		if module != nil && module.Type() == "relative_import" {
			for _, part := range pyast.NamedChildren(module) {
				switch part.Type() {
				case "import_prefix":
					imp.Level = len(p.text(part))
				case "dotted_name":
					imp.Module = p.text(part)
				}
			}
		} else if module != nil {
			imp.Module = p.text(module)
		}
	}

	for _, c := range pyast.NamedChildren(n) {
		if module != nil && c.StartByte() == module.StartByte() {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			imp.Names = append(imp.Names, p.text(c))
		case "aliased_import":
			imp.Names = append(imp.Names, p.text(pyast.Field(c, "name")))
		case "wildcard_import":
			imp.Names = append(imp.Names, "*")
		}
	}

	imp.Name = imp.Module
	if imp.Level < 0 && len(imp.Names) > 0 {
		imp.Name = imp.Names[0]
	}
	return imp
}
