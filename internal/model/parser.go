package model

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/Tired-Fox/papi/internal/pyast"
)

// parser turns the nodes of one parsed file into model values.
type parser struct {
	tree *pyast.Tree
}

func (p *parser) text(n *sitter.Node) string {
	return p.tree.Text(n)
}

// statements returns the named children of a module or block, comments
// excluded.
func statements(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range pyast.NamedChildren(n) {
		if c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// docString returns the raw text of a statement that is a bare string
// literal.
func (p *parser) docString(stmt *sitter.Node) (string, bool) {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return "", false
	}
	lit, ok := p.value(stmt.NamedChild(0)).(*Literal)
	if !ok || lit.Kind != LiteralString {
		return "", false
	}
	return lit.Text, true
}

// leadingDoc returns the docstring of a function or class body.
func (p *parser) leadingDoc(body *sitter.Node) string {
	if body == nil {
		return ""
	}
	stmts := statements(body)
	if len(stmts) == 0 {
		return ""
	}
	doc, _ := p.docString(stmts[0])
	return doc
}

// value normalizes an expression node. Unknown kinds become *Raw.
func (p *parser) value(n *sitter.Node) Value {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "none":
		return &Literal{Kind: LiteralNone}
	case "true":
		return &Literal{Kind: LiteralBool, Text: "True"}
	case "false":
		return &Literal{Kind: LiteralBool, Text: "False"}
	case "ellipsis":
		return &Literal{Kind: LiteralEllipsis}
	case "integer":
		text := p.text(n)
		if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
			return &Literal{Kind: LiteralFloat, Text: text}
		}
		return &Literal{Kind: LiteralInt, Text: normalizeInt(text)}
	case "float":
		return &Literal{Kind: LiteralFloat, Text: p.text(n)}
	case "string":
		return p.stringValue(n)
	case "concatenated_string":
		var b strings.Builder
		for _, part := range pyast.NamedChildren(n) {
			lit, ok := p.stringValue(part).(*Literal)
			if !ok || lit.Kind != LiteralString {
				return &Raw{Kind: n.Type(), Text: p.text(n)}
			}
			b.WriteString(lit.Text)
		}
		return &Literal{Kind: LiteralString, Text: b.String()}
	case "identifier":
		return &Name{ID: p.text(n)}
	case "attribute":
		return &Attribute{
			Base: p.value(pyast.Field(n, "object")),
			Attr: p.text(pyast.Field(n, "attribute")),
		}
	case "call":
		return p.call(n)
	case "list", "tuple", "set", "expression_list":
		return p.collection(n)
	case "list_splat":
		if inner := firstNamed(n); inner != nil {
			return &Starred{Value: p.value(inner)}
		}
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil && n.NamedChildCount() == 1 {
			return p.value(inner)
		}
	}
	return &Raw{Kind: n.Type(), Text: p.text(n)}
}

func (p *parser) stringValue(n *sitter.Node) Value {
	raw := p.text(n)
	if s, ok := decodeString(raw); ok {
		return &Literal{Kind: LiteralString, Text: s}
	}
	if isBytesLiteral(raw) {
		return &Literal{Kind: LiteralBytes, Text: raw}
	}
	return &Raw{Kind: n.Type(), Text: raw}
}

func (p *parser) call(n *sitter.Node) Value {
	c := &Call{Func: p.value(pyast.Field(n, "function"))}
	args := pyast.Field(n, "arguments")
	if args == nil {
		return c
	}
	if args.Type() != "argument_list" {
		c.Args = append(c.Args, p.value(args))
		return c
	}
	for _, a := range pyast.NamedChildren(args) {
		switch a.Type() {
		case "comment":
		case "keyword_argument":
			c.Keywords = append(c.Keywords, &Keyword{
				Name:  p.text(pyast.Field(a, "name")),
				Value: p.value(pyast.Field(a, "value")),
			})
		case "dictionary_splat":
			c.Keywords = append(c.Keywords, &Keyword{Value: p.value(firstNamed(a))})
		default:
			c.Args = append(c.Args, p.value(a))
		}
	}
	return c
}

func (p *parser) collection(n *sitter.Node) Value {
	kind := Tuple
	switch n.Type() {
	case "list":
		kind = List
	case "set":
		kind = Set
	}
	c := &Collection{Kind: kind}
	for _, e := range pyast.NamedChildren(n) {
		if e.Type() == "comment" {
			continue
		}
		c.Elements = append(c.Elements, p.value(e))
	}
	return c
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

// annotation normalizes a type hint. Kinds without an Annotation form are
// reported as *UnsupportedAnnotationError.
func (p *parser) annotation(n *sitter.Node) (Annotation, error) {
	switch n.Type() {
	case "type", "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return p.annotation(n.NamedChild(0))
		}
	case "identifier":
		return &Name{ID: p.text(n)}, nil
	case "none":
		return &Name{ID: "None"}, nil
	case "attribute":
		return &Attribute{
			Base: p.value(pyast.Field(n, "object")),
			Attr: p.text(pyast.Field(n, "attribute")),
		}, nil
	case "member_type":
		kids := pyast.NamedChildren(n)
		if len(kids) == 2 {
			base, err := p.annotation(kids[0])
			if err != nil {
				return nil, err
			}
			if bv, ok := base.(Value); ok {
				return &Attribute{Base: bv, Attr: p.text(kids[1])}, nil
			}
		}
	case "subscript":
		return p.subscript(n, pyast.Field(n, "value"), subscriptIndexes(n))
	case "generic_type":
		kids := pyast.NamedChildren(n)
		if len(kids) == 2 && kids[1].Type() == "type_parameter" {
			return p.subscript(n, kids[0], pyast.NamedChildren(kids[1]))
		}
	case "binary_operator":
		if pyast.HasToken(n, "|") {
			return p.union(pyast.Field(n, "left"), pyast.Field(n, "right"))
		}
	case "union_type":
		kids := pyast.NamedChildren(n)
		if len(kids) == 2 {
			return p.union(kids[0], kids[1])
		}
	}
	return nil, p.unsupported(n)
}

func (p *parser) subscript(n, base *sitter.Node, indexes []*sitter.Node) (Annotation, error) {
	if base == nil {
		return nil, p.unsupported(n)
	}
	var name string
	switch b := p.value(base).(type) {
	case *Name:
		name = b.ID
	case *Attribute:
		name = b.String()
	default:
		return nil, p.unsupported(base)
	}
	if len(indexes) == 1 && indexes[0].Type() == "tuple" {
		indexes = pyast.NamedChildren(indexes[0])
	}
	s := &Subscript{Name: name}
	for _, idx := range indexes {
		if idx.Type() == "comment" {
			continue
		}
		arg, err := p.annotation(idx)
		if err != nil {
			return nil, err
		}
		s.Args = append(s.Args, arg)
	}
	return s, nil
}

// subscriptIndexes returns every index expression of a subscript node: all
// named children after the subscripted value.
func subscriptIndexes(n *sitter.Node) []*sitter.Node {
	value := pyast.Field(n, "value")
	var out []*sitter.Node
	for _, c := range pyast.NamedChildren(n) {
		if value != nil && c.StartByte() == value.StartByte() && c.EndByte() == value.EndByte() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (p *parser) union(left, right *sitter.Node) (Annotation, error) {
	if left == nil || right == nil {
		return nil, &InvariantError{Path: p.tree.Path, Message: "union operand missing"}
	}
	l, err := p.annotation(left)
	if err != nil {
		return nil, err
	}
	r, err := p.annotation(right)
	if err != nil {
		return nil, err
	}
	return &Union{Left: l, Right: r}, nil
}

func (p *parser) unsupported(n *sitter.Node) error {
	return &UnsupportedAnnotationError{
		Path:   p.tree.Path,
		Line:   pyast.Line(n),
		Column: pyast.Column(n),
		Kind:   n.Type(),
		Text:   p.text(n),
	}
}

// optionalAnnotation normalizes n when present.
func (p *parser) optionalAnnotation(n *sitter.Node) (Annotation, error) {
	if n == nil {
		return nil, nil
	}
	return p.annotation(n)
}
