package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tired-Fox/papi"
	"github.com/Tired-Fox/papi/internal/config"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	flagConfig    string
	flagFormat    string
	flagLogLevel  string
	flagKeepGoing bool
	flagWorkers   int
)

// stdout and stderr are swapped by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "papi",
	Short:         "Documentation model for Python packages",
	Long:          "papi parses a Python package into modules, files and their public API, and renders, exports or queries it.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest .papi.yaml or .papi.toml)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&flagKeepGoing, "keep-going", false, "skip files that fail to parse instead of aborting")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "parse workers (0 = one per CPU)")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(versionCmd)
}

// --- Settings ---

// loadSettings reads the config file for dir and applies the flags that
// were set on the command line.
func loadSettings(cmd *cobra.Command, dir string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("keep-going") {
		cfg.KeepGoing = flagKeepGoing
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(logLevel string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	return logger
}

// resolveTargetDir returns the absolute path of the package directory.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// session is everything a command needs after the package was parsed.
type session struct {
	dir    string
	cfg    *config.Config
	logger *logrus.Logger
	result *papi.Result
}

// construct loads settings and builds the documentation tree for the
// directory named by args.
func construct(cmd *cobra.Command, args []string) (*session, error) {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return nil, err
	}
	cfg, err := loadSettings(cmd, dir)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := papi.Construct(ctx, dir, papi.WithConfig(cfg), papi.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{dir: dir, cfg: cfg, logger: logger, result: res}, nil
}

// errSkipped marks a run that finished but left files out of the tree.
var errSkipped = errors.New("some files were skipped")

// reportSkipped prints the files left out in keep-going mode and returns
// errSkipped when there were any.
func reportSkipped(res *papi.Result) error {
	if len(res.Skipped) == 0 {
		return nil
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(stderr, "skipped %s: %v\n", s.Path, s.Err)
	}
	errorHandled = true
	fmt.Fprintf(stderr, "Error: %d file(s) skipped\n", len(res.Skipped))
	return errSkipped
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the papi version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat == "json" {
			return outputResult(CLIResult{Command: "version", Results: map[string]string{"version": Version}})
		}
		fmt.Fprintf(stdout, "papi %s\n", Version)
		return nil
	},
}
