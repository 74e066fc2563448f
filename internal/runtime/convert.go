package runtime

import (
	"github.com/risor-io/risor/object"

	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/store"
)

// converter turns model nodes into Risor maps. Each entity is converted
// once so the same map appears in every file view that lists it.
type converter struct {
	entities map[model.Entity]*object.Map
	files    map[*model.File]*object.Map
}

func newConverter() *converter {
	return &converter{
		entities: make(map[model.Entity]*object.Map),
		files:    make(map[*model.File]*object.Map),
	}
}

func str(s string) object.Object { return object.NewString(s) }

func strList(ss []string) *object.List {
	items := make([]object.Object, len(ss))
	for i, s := range ss {
		items[i] = object.NewString(s)
	}
	return object.NewList(items)
}

// optional renders a value or annotation, or nil when absent.
func optional(v interface{ String() string }, present bool) object.Object {
	if !present {
		return object.Nil
	}
	return object.NewString(v.String())
}

// module converts m and everything below it.
func (c *converter) module(m *model.Module) *object.Map {
	files := make([]object.Object, 0)
	for _, f := range m.Files() {
		files = append(files, c.file(f))
	}
	modules := make([]object.Object, 0)
	for _, sub := range m.SubModules() {
		modules = append(modules, c.module(sub))
	}
	initFile := object.Object(object.Nil)
	if f := m.Init(); f != nil {
		initFile = c.file(f)
	}
	return object.NewMap(map[string]object.Object{
		"name":      str(m.Name),
		"path":      str(m.Path),
		"url":       str(m.URL()),
		"docstring": str(m.Docstring()),
		"init":      initFile,
		"files":     object.NewList(files),
		"modules":   object.NewList(modules),
	})
}

func (c *converter) file(f *model.File) *object.Map {
	if m, ok := c.files[f]; ok {
		return m
	}
	imports := make([]object.Object, 0, len(f.Imports()))
	for _, imp := range f.Imports() {
		imports = append(imports, c.entity(imp))
	}
	methods := make([]object.Object, 0, len(f.Methods()))
	for _, m := range f.Methods() {
		methods = append(methods, c.entity(m))
	}
	classes := make([]object.Object, 0, len(f.Classes()))
	for _, cls := range f.Classes() {
		classes = append(classes, c.entity(cls))
	}
	m := object.NewMap(map[string]object.Object{
		"name":        str(f.Name()),
		"key":         str(f.Key()),
		"path":        str(f.Path),
		"url":         str(f.URL()),
		"docstring":   str(f.Docstring),
		"is_init":     object.NewBool(f.IsInit()),
		"objects":     c.entityList(f.Objects()),
		"public":      c.entityList(f.Public()),
		"protected":   c.entityList(f.Protected()),
		"private":     c.entityList(f.Private()),
		"assignments": c.entityList(f.Assignments()),
		"methods":     object.NewList(methods),
		"classes":     object.NewList(classes),
		"imports":     object.NewList(imports),
	})
	c.files[f] = m
	return m
}

func (c *converter) entityList(es []model.Entity) *object.List {
	items := make([]object.Object, len(es))
	for i, e := range es {
		items[i] = c.entity(e)
	}
	return object.NewList(items)
}

func (c *converter) entity(e model.Entity) *object.Map {
	if m, ok := c.entities[e]; ok {
		return m
	}
	fields := map[string]object.Object{
		"kind":       str(string(e.Kind())),
		"name":       str(e.Ident()),
		"docstring":  str(e.Doc()),
		"code":       str(e.Code()),
		"visibility": str(string(model.VisibilityOf(e.Ident()))),
	}

	switch v := e.(type) {
	case *model.Assign:
		fields["value"] = optional(v.Value, !model.IsMissing(v.Value))
	case *model.AnnAssign:
		fields["annotation"] = str(v.Annotation.String())
		fields["value"] = optional(v.Value, !model.IsMissing(v.Value))
	case *model.Method:
		params := make([]object.Object, 0)
		for _, p := range parameters(v) {
			params = append(params, p)
		}
		fields["async"] = object.NewBool(v.Async)
		fields["decorators"] = valueList(v.Decorators)
		fields["parameters"] = object.NewList(params)
		fields["returns"] = optional(v.Returns, v.Returns != nil)
	case *model.Class:
		attrs := make([]object.Object, 0, len(v.Attributes))
		for _, a := range v.Attributes {
			attrs = append(attrs, c.entity(a))
		}
		methods := make([]object.Object, 0, len(v.Methods))
		for _, m := range v.Methods {
			methods = append(methods, c.entity(m))
		}
		classes := make([]object.Object, 0, len(v.Classes))
		for _, nested := range v.Classes {
			classes = append(classes, c.entity(nested))
		}
		fields["bases"] = strList(v.Bases)
		fields["decorators"] = valueList(v.Decorators)
		fields["attributes"] = object.NewList(attrs)
		fields["methods"] = object.NewList(methods)
		fields["classes"] = object.NewList(classes)
	case *model.Import:
		fields["module"] = str(v.Module)
		fields["names"] = strList(v.Names)
		fields["level"] = object.NewInt(int64(v.Level))
		fields["relative"] = object.NewBool(v.IsRelative())
	}

	m := object.NewMap(fields)
	c.entities[e] = m
	return m
}

func valueList(vs []model.Value) *object.List {
	items := make([]object.Object, len(vs))
	for i, v := range vs {
		items[i] = object.NewString(v.String())
	}
	return object.NewList(items)
}

// parameters converts the arguments of m in declaration order, tagging
// each with its kind.
func parameters(m *model.Method) []*object.Map {
	var out []*object.Map
	add := func(kind string, a *model.Argument) {
		out = append(out, object.NewMap(map[string]object.Object{
			"kind":       str(kind),
			"name":       str(a.Name),
			"annotation": optional(a.Annotation, a.Annotation != nil),
			"default":    optional(a.Default, !model.IsMissing(a.Default)),
			"code":       str(a.String()),
		}))
	}
	for _, a := range m.PosOnly {
		add(store.ArgPosOnly, a)
	}
	for _, a := range m.Args {
		add(store.ArgRegular, a)
	}
	if m.VarArg != nil {
		add(store.ArgVarArg, m.VarArg)
	}
	for _, a := range m.KwOnly {
		add(store.ArgKwOnly, a)
	}
	if m.KwArg != nil {
		add(store.ArgKwArg, m.KwArg)
	}
	return out
}
