package commands

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"testbackend/internal/cli"
	"testbackend/internal/config"
	"testbackend/internal/coverage"
	"testbackend/internal/discovery"
	"testbackend/internal/execution"
	"testbackend/internal/fixtures"
	"testbackend/internal/logging"
	"testbackend/internal/netguard"
	"testbackend/internal/parser"
	"testbackend/internal/provision"
	"testbackend/internal/storage"
	"testbackend/internal/ui"
)

// skipDirs are never searched for tests
var skipDirs = []string{"__pycache__", "node_modules"}

// Commands holds all CLI commands
type Commands struct {
	Run       *RunCommand
	List      *ListCommand
	Failures  *FailuresCommand
	Allowlist *AllowlistCommand
}

// projectFS opens files below the configured project root. The root is read
// on every call because --project is parsed after the commands are built.
type projectFS struct {
	config *config.Config
}

func (p projectFS) Open(name string) (fs.File, error) {
	return os.DirFS(p.config.ProjectPath).Open(name)
}

// configuredResolver resolves against the test source dir of the loaded config
type configuredResolver struct {
	config *config.Config
	fsys   fs.FS
}

func (r configuredResolver) Resolve(tokens []string) ([]string, error) {
	return discovery.NewResolver(r.fsys, r.config.TestSourceDir, skipDirs).Resolve(tokens)
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	// Initialize dependencies
	log := logging.New(os.Stderr, true)
	fsys := projectFS{config: cfg}
	resolver := configuredResolver{config: cfg, fsys: fsys}
	scanner := discovery.NewScanner(fsys, skipDirs)
	testCaseParser := discovery.NewParser(fsys)
	reportParser := parser.NewReportParser()
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, testCaseParser)
	checker := provision.NewChecker(cfg)
	status := fixtures.NewStatus(cfg, fsys, fixtures.NewConfiguredChecker(cfg))
	generator := fixtures.NewCommandGenerator(cfg, status, log)
	builder := execution.NewBuilder(cfg, log)
	runner := execution.NewRunner(cfg, reportParser, log)
	engine := coverage.NewCLIEngine(cfg, log)
	picker := ui.NewFailurePicker()

	run := NewRunCommand(cfg, fsys, resolver, checker, generator, builder, runner, engine,
		jsonStorage, netguard.Block(), formatter, log)

	return &Commands{
		Run:       run,
		List:      NewListCommand(cfg, scanner, formatter, jsonStorage),
		Failures:  NewFailuresCommand(cfg, jsonStorage, formatter, picker, run.Execute),
		Allowlist: NewAllowlistCommand(cfg, fsys, formatter),
	}
}

// Register registers all commands with cobra. The root command runs the tests.
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	prepare := func(cmd *cobra.Command, args []string) error {
		if flags.Processors < 1 {
			return fmt.Errorf("invalid --processes %d: must be a positive integer", flags.Processors)
		}
		flags.ProcessorsSet = cmd.Flags().Changed("processes")
		loaded, err := config.Load(flags.ToConfigFlags())
		if err != nil {
			return err
		}
		*cfg = *loaded
		if err := cfg.LoadEnv(); err != nil {
			return err
		}
		logging.SetVerbose(cfg.Flags.Verbose)
		return nil
	}

	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = c.Run.Execute
	rootCmd.PreRunE = prepare
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&flags.ProjectPath, "project", "C", config.DefaultProjectPath, "Project root directory")
	persistent.StringVar(&flags.ConfigFile, "config", "", "Project config file (default: .test-backend.{yaml,yml,toml,json} in the project root)")
	persistent.BoolVarP(&flags.Verbose, "verbose", "v", false, "Verbose runner output and debug logging")

	runFlags := rootCmd.Flags()
	runFlags.IntVarP(&flags.Processors, "processes", "p", config.DefaultProcessors, "Number of processes to run tests with")
	runFlags.BoolVar(&flags.NonfatalErrors, "nonfatal-errors", false, "Continue past test failures instead of stopping at the first one")
	runFlags.BoolVar(&flags.Coverage, "coverage", false, "Compute test coverage and enforce the fully covered allowlist")
	runFlags.BoolVar(&flags.VerboseCoverage, "verbose-coverage", false, "Print the text coverage report")
	runFlags.BoolVar(&flags.Profile, "profile", false, "Profile the run and print the most expensive functions")
	runFlags.BoolVar(&flags.Force, "force", false, "Run tests despite a stale provision")
	runFlags.BoolVar(&flags.GenerateFixtures, "generate-fixtures", false, "Force regeneration of the test fixtures")
	runFlags.BoolVar(&flags.ReportSlowTests, "report-slow-tests", false, "Print the slowest tests")
	runFlags.BoolVar(&flags.Reverse, "reverse", false, "Run tests in reverse order")
	runFlags.BoolVar(&flags.Rerun, "rerun", false, "Rerun the tests that failed in the last run")

	// List command
	listCmd := &cobra.Command{
		Use:     "list [dir]",
		Short:   "List discovered test modules",
		Long:    "Scan the test source tree and list test modules without running them",
		Args:    cobra.MaximumNArgs(1),
		RunE:    c.List.Execute,
		PreRunE: prepare,
	}
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List test cases of each module")
	rootCmd.AddCommand(listCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:     "failures",
		Short:   "Show the tests that failed in the last run",
		Long:    "Display the failed tests cached by the last run, or pick one to rerun",
		Args:    cobra.NoArgs,
		RunE:    c.Failures.Execute,
		PreRunE: prepare,
	}
	failuresCmd.Flags().BoolVar(&flags.Pick, "pick", false, "Pick a failed test interactively and rerun it")
	rootCmd.AddCommand(failuresCmd)

	// Allowlist command
	allowlistCmd := &cobra.Command{
		Use:     "allowlist",
		Short:   "Print the files that must keep complete test coverage",
		Args:    cobra.NoArgs,
		RunE:    c.Allowlist.Execute,
		PreRunE: prepare,
	}
	rootCmd.AddCommand(allowlistCmd)
}
