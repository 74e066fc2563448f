package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tired-Fox/papi"
	"github.com/Tired-Fox/papi/internal/config"
	"github.com/Tired-Fox/papi/internal/model"
	"github.com/Tired-Fox/papi/internal/runtime"
)

// --- tree ---

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the module and file outline of a package",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := construct(cmd, args)
	if err != nil {
		return outputError("tree", err)
	}
	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "tree", Results: moduleToCLI(s.result.Root)}); err != nil {
			return err
		}
	} else {
		formatTreeText(stdout, s.result.Root)
	}
	return reportSkipped(s.result)
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print every file with its entities and signatures",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := construct(cmd, args)
	if err != nil {
		return outputError("show", err)
	}

	var files []*model.File
	if err := s.result.Root.Walk(func(n model.Node) error {
		if f, ok := n.(*model.File); ok {
			files = append(files, f)
		}
		return nil
	}); err != nil {
		return outputError("show", err)
	}

	if flagFormat == "json" {
		details := make([]CLIFileDetail, 0, len(files))
		for _, f := range files {
			details = append(details, fileDetailToCLI(f))
		}
		if err := outputResult(CLIResult{Command: "show", Results: details}); err != nil {
			return err
		}
	} else {
		formatShowText(stdout, files)
	}
	return reportSkipped(s.result)
}

// --- export ---

var flagDB string

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the documentation tree to an SQLite index",
	Long:  "Parses the package and stores it as a new export in the index database. Earlier exports are kept for diffing.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagDB, "db", "", "index database path (default: config db, papi.db)")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := construct(cmd, args)
	if err != nil {
		return outputError("export", err)
	}

	dbPath := resolveDBPath(s.cfg.DBPath)
	ix, err := papi.OpenIndex(dbPath)
	if err != nil {
		return outputError("export", err)
	}
	defer ix.Close()

	exp, err := ix.Export(cmd.Context(), s.result)
	if err != nil {
		return outputError("export", err)
	}
	s.logger.WithField("db", dbPath).WithField("export", exp.ID).Info("exported tree")

	out := CLIExport{
		ID:        exp.ID,
		RunID:     exp.RunID,
		Root:      exp.Root,
		CreatedAt: exp.CreatedAt,
		Files:     s.result.Tree.Len(),
		Modules:   s.result.Tree.ModuleCount(),
	}
	for _, sk := range s.result.Skipped {
		out.Skipped = append(out.Skipped, sk.Path)
	}
	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "export", Results: out}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(stdout, "Export %d (%s): %d files, %d modules\n", out.ID, out.RunID, out.Files, out.Modules)
		fmt.Fprintf(stdout, "Database: %s\n", dbPath)
	}
	return reportSkipped(s.result)
}

// resolveDBPath returns the --db flag, else the configured path, else the
// default. Relative paths are taken from the working directory.
func resolveDBPath(configured string) string {
	if flagDB != "" {
		return flagDB
	}
	if configured == "" {
		return config.Default().DBPath
	}
	return configured
}

// --- render ---

var (
	flagScript     string
	flagOut        string
	flagRenderDB   string
	flagScriptsDir string
)

var renderCmd = &cobra.Command{
	Use:   "render [path]",
	Short: "Run a Risor script over the documentation tree",
	Long:  `Runs a Risor script with the package bound to the "root" global.
The script writes output files with write(path, content) below --out.
With --db the index is queryable through db_query(sql, args...).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&flagScript, "script", "", "Risor script to run (required)")
	renderCmd.Flags().StringVar(&flagOut, "out", "site", "output directory for write()")
	renderCmd.Flags().StringVar(&flagRenderDB, "db", "", "index database exposed to db_query")
	renderCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "directory for script imports (default: config scripts_dir, else the script's directory)")
	_ = renderCmd.MarkFlagRequired("script")
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := construct(cmd, args)
	if err != nil {
		return outputError("render", err)
	}

	scriptsDir := flagScriptsDir
	if scriptsDir == "" {
		scriptsDir = s.cfg.ScriptsDir
	}
	// A script found from the working directory wins over scripts_dir.
	script := flagScript
	if _, err := os.Stat(script); err == nil || scriptsDir == "" {
		if script, err = filepath.Abs(script); err != nil {
			return outputError("render", err)
		}
	}

	opts := []runtime.RuntimeOption{
		runtime.WithOutputDir(flagOut),
		runtime.WithLogger(s.logger),
	}
	if flagRenderDB != "" {
		ix, err := papi.OpenIndex(flagRenderDB)
		if err != nil {
			return outputError("render", err)
		}
		defer ix.Close()
		opts = append(opts, runtime.WithStore(ix.Store()))
	}

	rt := runtime.NewRuntime(s.result.Root, scriptsDir, opts...)
	if err := rt.RunScript(cmd.Context(), script, nil); err != nil {
		return outputError("render", err)
	}
	if flagFormat == "json" {
		if err := outputResult(CLIResult{Command: "render", Results: map[string]string{"script": script, "out": flagOut}}); err != nil {
			return err
		}
	}
	return reportSkipped(s.result)
}
