package papi

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/Tired-Fox/papi/internal/store"
)

// DependencyGraph is the module-to-module dependency graph of one export,
// aggregated from file-level imports.
type DependencyGraph struct {
	Modules []ModuleNode
	Edges   []DependencyEdge
}

// ModuleNode is a package directory in the dependency graph.
type ModuleNode struct {
	Name      string // dotted name, e.g. pkg.sub
	FileCount int
}

// DependencyEdge represents a dependency between two modules with the
// number of import statements that contribute to it.
type DependencyEdge struct {
	FromModule  string
	ToModule    string
	ImportCount int
}

// ModuleDependencyGraph returns the module-to-module dependency graph.
// Every import is resolved to the dotted module it names; absolute imports
// must start with the root module's name and relative imports are anchored
// at the importing file's package. Imports that leave the export (os,
// typing, third-party packages) and imports between files of the same
// module are not edges.
func (q *QueryBuilder) ModuleDependencyGraph() (*DependencyGraph, error) {
	mods, err := q.store.ModulesByExport(q.exportID)
	if err != nil {
		return nil, fmt.Errorf("module dependency graph: %w", err)
	}
	files, err := q.store.Files(q.exportID)
	if err != nil {
		return nil, fmt.Errorf("module dependency graph: %w", err)
	}

	// known maps every dotted module and file name to its owning module.
	moduleName := map[int64]string{}
	known := map[string]string{}
	for _, m := range mods {
		name := dotted(m.Path)
		moduleName[m.ID] = name
		known[name] = name
	}
	fileCount := map[string]int{}
	fileModule := map[int64]string{}
	for _, f := range files {
		owner := moduleName[f.ModuleID]
		fileModule[f.ID] = owner
		fileCount[owner]++
		base := path.Base(f.Path)
		if isInitPath(base) {
			continue
		}
		known[owner+"."+strings.TrimSuffix(base, path.Ext(base))] = owner
	}

	type edgeKey struct {
		from, to string
	}
	edgeCounts := map[edgeKey]int{}
	for _, f := range files {
		imports, err := q.store.ImportsByFile(f.ID)
		if err != nil {
			return nil, fmt.Errorf("module dependency graph: %w", err)
		}
		from := fileModule[f.ID]
		for _, imp := range imports {
			seen := map[string]bool{}
			for _, target := range importTargets(imp, from) {
				to, ok := resolveModule(known, target)
				if !ok || to == from || seen[to] {
					continue
				}
				seen[to] = true
				edgeCounts[edgeKey{from: from, to: to}]++
			}
		}
	}

	modules := make([]ModuleNode, 0, len(mods))
	for _, m := range mods {
		name := moduleName[m.ID]
		modules = append(modules, ModuleNode{Name: name, FileCount: fileCount[name]})
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

	edges := []DependencyEdge{}
	for ek, count := range edgeCounts {
		edges = append(edges, DependencyEdge{FromModule: ek.from, ToModule: ek.to, ImportCount: count})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromModule != edges[j].FromModule {
			return edges[i].FromModule < edges[j].FromModule
		}
		return edges[i].ToModule < edges[j].ToModule
	})

	return &DependencyGraph{Modules: modules, Edges: edges}, nil
}

// CircularDependencies detects cycles in the module dependency graph using
// Tarjan's strongly connected components algorithm.
// Returns a list of cycles, each represented as a list of module names
// (first element repeated at end for clarity).
// Returns empty list (not nil) for acyclic graphs.
func (q *QueryBuilder) CircularDependencies() ([][]string, error) {
	graph, err := q.ModuleDependencyGraph()
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}

	adj := map[string][]string{}
	for _, edge := range graph.Edges {
		adj[edge.FromModule] = append(adj[edge.FromModule], edge.ToModule)
	}

	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	result := [][]string{}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				wInfo = info[w]
				if wInfo.lowlink < ni.lowlink {
					ni.lowlink = wInfo.lowlink
				}
			} else if wInfo.onStack && wInfo.index < ni.lowlink {
				ni.lowlink = wInfo.index
			}
		}

		if ni.lowlink != ni.index {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) < 2 {
			return
		}
		// Tarjan pops in reverse.
		for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
			scc[i], scc[j] = scc[j], scc[i]
		}
		result = append(result, append(scc, scc[0]))
	}

	for _, m := range graph.Modules {
		if _, visited := info[m.Name]; !visited {
			strongconnect(m.Name)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result, nil
}

// importTargets lists the dotted names an import may refer to. For
// from-imports each imported name is tried as a submodule first.
func importTargets(imp *store.Import, pkg string) []string {
	if imp.Level < 0 {
		return imp.Names
	}
	base := imp.Module
	if imp.Level > 0 {
		parts := strings.Split(pkg, ".")
		up := imp.Level - 1
		if up >= len(parts) {
			return nil
		}
		base = strings.Join(parts[:len(parts)-up], ".")
		if imp.Module != "" {
			base += "." + imp.Module
		}
	}
	var out []string
	for _, n := range imp.Names {
		if n != "*" {
			out = append(out, base+"."+n)
		}
	}
	return append(out, base)
}

// resolveModule finds the longest dotted prefix of target that names a
// module or file of the export.
func resolveModule(known map[string]string, target string) (string, bool) {
	for target != "" {
		if m, ok := known[target]; ok {
			return m, true
		}
		i := strings.LastIndex(target, ".")
		if i < 0 {
			break
		}
		target = target[:i]
	}
	return "", false
}

func dotted(modPath string) string {
	return strings.ReplaceAll(modPath, "/", ".")
}

func isInitPath(base string) bool {
	return base == "__init__.py" || base == "__init__.pyi"
}
