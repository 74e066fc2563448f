package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Tired-Fox/papi"
	"github.com/Tired-Fox/papi/internal/config"
)

var (
	flagQueryDB string
	flagExport  int64
	flagLimit   int
	flagOffset  int
	flagSort    string
	flagOrder   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query an exported index",
	Long:  "Run queries against the latest export of an index database, or the export chosen with --export.",
}

func init() {
	queryCmd.PersistentFlags().StringVar(&flagQueryDB, "db", "", "index database path (default: config db, papi.db)")
	queryCmd.PersistentFlags().Int64Var(&flagExport, "export", 0, "export id (default: latest)")
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	queryCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	queryCmd.PersistentFlags().StringVar(&flagSort, "sort", "", "sort field: name|kind|file|qualname")
	queryCmd.PersistentFlags().StringVar(&flagOrder, "order", "asc", "sort order: asc|desc")

	queryCmd.AddCommand(filesCmd)
	queryCmd.AddCommand(entitiesCmd)
	queryCmd.AddCommand(searchCmd)
	queryCmd.AddCommand(detailCmd)
	queryCmd.AddCommand(importsCmd)
	queryCmd.AddCommand(dependentsCmd)
	queryCmd.AddCommand(summaryCmd)
	queryCmd.AddCommand(graphCmd)
	queryCmd.AddCommand(cyclesCmd)
	queryCmd.AddCommand(diffCmd)
}

// --- Helpers ---

// openQuery opens the index named by --db (or the config) and selects the
// export. The caller closes the Index.
func openQuery(cmd *cobra.Command) (*papi.Index, *papi.QueryBuilder, error) {
	dbPath := flagQueryDB
	if dbPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("getting cwd: %w", err)
		}
		cfg, err := loadSettings(cmd, cwd)
		if err != nil {
			return nil, nil, err
		}
		dbPath = cfg.DBPath
		if dbPath == "" {
			dbPath = config.Default().DBPath
		}
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'papi export' first)", dbPath)
	}

	ix, err := papi.OpenIndex(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if flagExport != 0 {
		return ix, ix.Query(flagExport), nil
	}
	q, err := ix.Latest()
	if err != nil {
		ix.Close()
		return nil, nil, err
	}
	return ix, q, nil
}

// parseIDArg parses a positional argument as a positive id.
func parseIDArg(value, name string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	return n, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() papi.Pagination {
	return papi.Pagination{Limit: flagLimit, Offset: flagOffset}
}

// buildSort creates a Sort from CLI flags.
func buildSort() papi.Sort {
	var field papi.SortField
	switch flagSort {
	case "kind":
		field = papi.SortByKind
	case "file":
		field = papi.SortByFile
	case "qualname":
		field = papi.SortByQualName
	default:
		field = papi.SortByName
	}
	order := papi.Asc
	if flagOrder == "desc" {
		order = papi.Desc
	}
	return papi.Sort{Field: field, Order: order}
}

// --- files ---

var flagPathPrefix string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List exported files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func init() {
	filesCmd.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "filter by path prefix")
}

func runFiles(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("files", err)
	}
	defer ix.Close()

	res, err := q.Files(flagPathPrefix, buildSort(), buildPagination())
	if err != nil {
		return outputError("files", err)
	}
	files := make([]CLIFile, len(res.Items))
	for i, f := range res.Items {
		files[i] = indexedFileToCLI(f)
	}
	return outputResult(CLIResult{Command: "files", Results: files, TotalCount: &res.TotalCount})
}

// --- entities / search ---

var (
	flagKind       string
	flagVisibility string
	flagFile       string
	flagTopLevel   bool
)

var entitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List entities with optional filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEntitySearch(cmd, "entities", "")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Search entities by glob pattern",
	Long:  "Search for entities whose name matches a glob pattern. Use * as wildcard (e.g. 'get_*').",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEntitySearch(cmd, "search", args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{entitiesCmd, searchCmd} {
		c.Flags().StringVar(&flagKind, "kind", "", "filter by kind (assign, annassign, method, class)")
		c.Flags().StringVar(&flagVisibility, "visibility", "", "filter by visibility (public, protected, private)")
		c.Flags().StringVar(&flagFile, "file", "", "filter by root-relative file path")
		c.Flags().StringVar(&flagPathPrefix, "path-prefix", "", "filter by file path prefix")
		c.Flags().BoolVar(&flagTopLevel, "top-level", false, "only module-level entities")
	}
}

func runEntitySearch(cmd *cobra.Command, command, pattern string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError(command, err)
	}
	defer ix.Close()

	filter := papi.EntityFilter{TopLevel: flagTopLevel}
	if flagKind != "" {
		filter.Kinds = []string{flagKind}
	}
	if flagVisibility != "" {
		filter.Visibility = &flagVisibility
	}
	if flagPathPrefix != "" {
		filter.PathPrefix = &flagPathPrefix
	}
	if flagFile != "" {
		f, err := q.FileByPath(flagFile)
		if err != nil {
			return outputError(command, fmt.Errorf("looking up file %q: %w", flagFile, err))
		}
		if f == nil {
			return outputError(command, fmt.Errorf("file not found: %s", flagFile))
		}
		filter.FileID = &f.ID
	}

	var res *papi.PagedResult[papi.EntityResult]
	if command == "search" {
		res, err = q.SearchEntities(pattern, filter, buildSort(), buildPagination())
	} else {
		res, err = q.Entities(filter, buildSort(), buildPagination())
	}
	if err != nil {
		return outputError(command, err)
	}

	ents := make([]CLIEntity, len(res.Items))
	for i := range res.Items {
		ents[i] = indexedEntityToCLI(&res.Items[i].Entity, res.Items[i].FilePath)
	}
	return outputResult(CLIResult{Command: command, Results: ents, TotalCount: &res.TotalCount})
}

// --- detail ---

var detailCmd = &cobra.Command{
	Use:   "detail [<file> <qualname>]",
	Short: "Show an entity with its arguments and members",
	Long:  "Accepts either <file> <qualname> positional args (e.g. core.py Widget.grow) or --id <id>.",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runDetail,
}

func init() {
	detailCmd.Flags().Int64("id", 0, "entity id to show")
}

func runDetail(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("detail", err)
	}
	defer ix.Close()

	var d *papi.EntityDetail
	id, _ := cmd.Flags().GetInt64("id")
	switch {
	case id != 0:
		d, err = q.EntityDetail(id)
	case len(args) == 2:
		d, err = q.EntityDetailByName(args[0], args[1])
	default:
		err = fmt.Errorf("requires either <file> <qualname> arguments or --id flag")
	}
	if err != nil {
		return outputError("detail", err)
	}
	if d == nil {
		return outputResult(CLIResult{Command: "detail", Results: nil})
	}

	out := CLIEntityDetail{
		Entity:    indexedEntityToCLI(&d.Entity.Entity, d.Entity.FilePath),
		Arguments: make([]CLIArgument, len(d.Arguments)),
		Members:   make([]CLIEntity, len(d.Members)),
	}
	for i, a := range d.Arguments {
		arg := CLIArgument{Kind: a.Kind, Name: a.Name, Annotation: a.Annotation}
		if a.HasDefault {
			def := a.Default
			arg.Default = &def
		}
		out.Arguments[i] = arg
	}
	for i, m := range d.Members {
		out.Members[i] = indexedEntityToCLI(m, d.Entity.FilePath)
	}
	one := 1
	return outputResult(CLIResult{Command: "detail", Results: out, TotalCount: &one})
}

// --- imports / dependents ---

var importsCmd = &cobra.Command{
	Use:   "imports <file>",
	Short: "List the imports of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImports,
}

func runImports(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("imports", err)
	}
	defer ix.Close()

	f, err := q.FileByPath(args[0])
	if err != nil {
		return outputError("imports", err)
	}
	if f == nil {
		return outputError("imports", fmt.Errorf("file not found: %s", args[0]))
	}
	imports, err := q.Dependencies(f.ID)
	if err != nil {
		return outputError("imports", err)
	}
	out := make([]CLIImport, len(imports))
	for i, imp := range imports {
		out[i] = importToCLI(imp, f.Path)
	}
	n := len(out)
	return outputResult(CLIResult{Command: "imports", Results: out, TotalCount: &n})
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <module>",
	Short: "List from-imports that name a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func runDependents(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("dependents", err)
	}
	defer ix.Close()

	imports, err := q.Dependents(args[0])
	if err != nil {
		return outputError("dependents", err)
	}
	files, err := ix.Store().Files(q.ExportID())
	if err != nil {
		return outputError("dependents", err)
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}
	out := make([]CLIImport, len(imports))
	for i, imp := range imports {
		out[i] = importToCLI(imp, paths[imp.FileID])
	}
	n := len(out)
	return outputResult(CLIResult{Command: "dependents", Results: out, TotalCount: &n})
}

// --- summary / graph / cycles ---

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Counts for the export",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("summary", err)
	}
	defer ix.Close()

	s, err := q.Summary()
	if err != nil {
		return outputError("summary", err)
	}
	return outputResult(CLIResult{Command: "summary", Results: CLISummary{
		ExportID:     q.ExportID(),
		Modules:      s.ModuleCount,
		Files:        s.FileCount,
		Imports:      s.ImportCount,
		KindCounts:   s.KindCounts,
		Undocumented: s.Undocumented,
	}})
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Module dependency graph of the export",
	Args:  cobra.NoArgs,
	RunE:  runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("graph", err)
	}
	defer ix.Close()

	g, err := q.ModuleDependencyGraph()
	if err != nil {
		return outputError("graph", err)
	}
	return outputResult(CLIResult{Command: "graph", Results: CLIGraph{Modules: g.Modules, Edges: g.Edges}})
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Circular module dependencies",
	Args:  cobra.NoArgs,
	RunE:  runCycles,
}

func runCycles(cmd *cobra.Command, args []string) error {
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("cycles", err)
	}
	defer ix.Close()

	cycles, err := q.CircularDependencies()
	if err != nil {
		return outputError("cycles", err)
	}
	n := len(cycles)
	return outputResult(CLIResult{Command: "cycles", Results: CLICycles(cycles), TotalCount: &n})
}

// --- diff ---

var diffCmd = &cobra.Command{
	Use:   "diff <from-export>",
	Short: "Entities added, removed or changed since an earlier export",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	from, err := parseIDArg(args[0], "export")
	if err != nil {
		return outputError("diff", err)
	}
	ix, q, err := openQuery(cmd)
	if err != nil {
		return outputError("diff", err)
	}
	defer ix.Close()

	changes, err := q.DiffFrom(from)
	if err != nil {
		return outputError("diff", err)
	}
	out := make([]CLIChange, len(changes))
	for i, c := range changes {
		out[i] = changeToCLI(c)
	}
	n := len(out)
	return outputResult(CLIResult{Command: "diff", Results: out, TotalCount: &n})
}
