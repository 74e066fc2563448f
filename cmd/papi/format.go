package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Tired-Fox/papi/internal/model"
)

var (
	moduleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	docStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)
)

// formatTreeText prints the module outline, one level of indent per depth.
func formatTreeText(w io.Writer, root *model.Module) {
	writeModule(w, root, 0)
}

func writeModule(w io.Writer, m *model.Module, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s\n", indent, moduleStyle.Render(m.Name+"/"))
	for _, child := range m.Children() {
		switch c := child.(type) {
		case *model.Module:
			writeModule(w, c, depth+1)
		case *model.File:
			fmt.Fprintf(w, "%s  %s  %s\n", indent, fileStyle.Render(c.Key()), c.URL())
		}
	}
}

// formatShowText prints each file with its imports and entity signatures.
func formatShowText(w io.Writer, files []*model.File) {
	for i, f := range files {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", fileStyle.Render(f.Path), f.URL())
		if f.Docstring != "" {
			fmt.Fprintf(w, "  %s\n", docStyle.Render(firstLine(f.Docstring)))
		}
		for _, imp := range f.Imports() {
			fmt.Fprintf(w, "  %s\n", imp.Code())
		}
		for _, e := range f.Objects() {
			writeEntity(w, e, 1)
		}
	}
}

func writeEntity(w io.Writer, e model.Entity, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s\n", indent, e.Code())
	if doc := e.Doc(); doc != "" {
		fmt.Fprintf(w, "%s  %s\n", indent, docStyle.Render(firstLine(doc)))
	}
	if c, ok := e.(*model.Class); ok {
		for _, a := range c.Attributes {
			writeEntity(w, a, depth+1)
		}
		for _, m := range c.Methods {
			writeEntity(w, m, depth+1)
		}
		for _, n := range c.Classes {
			writeEntity(w, n, depth+1)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tURL")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", f.ID, f.Path, f.URL)
	}
	tw.Flush()
}

// formatEntitiesText formats CLIEntity results as aligned columns.
func formatEntitiesText(w io.Writer, ents []CLIEntity) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tQUALNAME\tKIND\tVISIBILITY\tFILE")
	for _, e := range ents {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.QualName, e.Kind, e.Visibility, e.File)
	}
	tw.Flush()
}

// formatDetailText prints one entity with its arguments and members.
func formatDetailText(w io.Writer, d CLIEntityDetail) {
	fmt.Fprintf(w, "%s (%s, %s)\n", d.Entity.QualName, d.Entity.Kind, d.Entity.Visibility)
	fmt.Fprintf(w, "File: %s\n", d.Entity.File)
	fmt.Fprintf(w, "  %s\n", d.Entity.Code)
	if d.Entity.Docstring != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(d.Entity.Docstring, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if len(d.Arguments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Arguments:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tKIND\tANNOTATION\tDEFAULT")
		for _, a := range d.Arguments {
			def := "-"
			if a.Default != nil {
				def = *a.Default
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Name, a.Kind, a.Annotation, def)
		}
		tw.Flush()
	}

	if len(d.Members) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Members:")
		for _, m := range d.Members {
			fmt.Fprintf(w, "  %s\n", m.Code)
		}
	}
}

// formatImportsText formats CLIImport results as aligned columns.
func formatImportsText(w io.Writer, imports []CLIImport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLEVEL\tCODE")
	for _, imp := range imports {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", imp.File, imp.Level, imp.Code)
	}
	tw.Flush()
}

// formatChangesText formats CLIChange results as aligned columns.
func formatChangesText(w io.Writer, changes []CLIChange) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANGE\tKIND\tFILE\tQUALNAME")
	for _, c := range changes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Change, c.Kind, c.File, c.QualName)
	}
	tw.Flush()
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, s CLISummary) {
	fmt.Fprintf(w, "Export %d\n", s.ExportID)
	fmt.Fprintln(w, "==========")
	fmt.Fprintf(w, "Modules: %d\n", s.Modules)
	fmt.Fprintf(w, "Files: %d\n", s.Files)
	fmt.Fprintf(w, "Imports: %d\n", s.Imports)
	fmt.Fprintf(w, "Undocumented: %d\n", s.Undocumented)

	if len(s.KindCounts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Entity Kinds:")
		kinds := make([]string, 0, len(s.KindCounts))
		for kind := range s.KindCounts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %s: %d\n", kind, s.KindCounts[kind])
		}
	}
}

// formatGraphText prints module nodes followed by edges.
func formatGraphText(w io.Writer, g CLIGraph) {
	fmt.Fprintln(w, "Modules:")
	for _, m := range g.Modules {
		fmt.Fprintf(w, "  %s (%d files)\n", moduleStyle.Render(m.Name), m.FileCount)
	}
	if len(g.Edges) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Dependencies:")
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s -> %s (%d)\n", e.FromModule, e.ToModule, e.ImportCount)
	}
}

// formatCyclesText prints one cycle per line.
func formatCyclesText(w io.Writer, cycles CLICycles) {
	if len(cycles) == 0 {
		fmt.Fprintln(w, "No circular dependencies")
		return
	}
	for _, c := range cycles {
		fmt.Fprintln(w, cycleStyle.Render(strings.Join(c, " -> ")))
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to stdout.
func outputResultText(result CLIResult) error {
	w := stdout

	switch v := result.Results.(type) {
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIEntity:
		formatEntitiesText(w, v)
	case CLIEntityDetail:
		formatDetailText(w, v)
	case []CLIImport:
		formatImportsText(w, v)
	case []CLIChange:
		formatChangesText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case CLIGraph:
		formatGraphText(w, v)
	case CLICycles:
		formatCyclesText(w, v)
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, v[k])
		}
	case nil:
		// No output for nil results (e.g., detail with no match).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}

	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIFile:
		return len(r)
	case []CLIEntity:
		return len(r)
	case []CLIImport:
		return len(r)
	case []CLIChange:
		return len(r)
	case CLICycles:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
