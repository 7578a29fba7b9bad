package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"testbackend/internal/config"
	"testbackend/internal/coverage"
	"testbackend/internal/domain"
	"testbackend/internal/execution"
	"testbackend/internal/fixtures"
	"testbackend/internal/netguard"
	"testbackend/internal/parser"
	"testbackend/internal/storage"
	"testbackend/internal/ui"
)

var (
	// ErrTestsFailed means the run completed and reported failures
	ErrTestsFailed = errors.New("tests failed")
	// ErrNotProvisioned means the provisioning precondition was not met
	ErrNotProvisioned = errors.New("environment is not provisioned")
)

// Resolver rewrites shorthand tokens into suite identifiers
type Resolver interface {
	Resolve(tokens []string) ([]string, error)
}

// ProvisionChecker reports whether the environment is provisioned
type ProvisionChecker interface {
	Status() (bool, string)
}

// Builder runs the build step
type Builder interface {
	Build(ctx context.Context, env []string) error
}

// RunCommand handles running the backend tests
type RunCommand struct {
	config    *config.Config
	fsys      fs.FS
	resolver  Resolver
	checker   ProvisionChecker
	generator fixtures.Generator
	builder   Builder
	executor  execution.Executor
	engine    coverage.Engine
	storage   storage.Storage
	policy    *netguard.Policy
	formatter *ui.Formatter
	log       zerolog.Logger
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	cfg *config.Config,
	fsys fs.FS,
	resolver Resolver,
	checker ProvisionChecker,
	generator fixtures.Generator,
	builder Builder,
	executor execution.Executor,
	engine coverage.Engine,
	st storage.Storage,
	policy *netguard.Policy,
	formatter *ui.Formatter,
	log zerolog.Logger,
) *RunCommand {
	return &RunCommand{
		config:    cfg,
		fsys:      fsys,
		resolver:  resolver,
		checker:   checker,
		generator: generator,
		builder:   builder,
		executor:  executor,
		engine:    engine,
		storage:   st,
		policy:    policy,
		formatter: formatter,
		log:       log,
	}
}

// Plan turns the positional tokens and flags into runner options
func (rc *RunCommand) Plan(args []string) (domain.RunOptions, error) {
	flags := rc.config.Flags
	tokens := append([]string(nil), args...)

	if flags.Rerun && len(tokens) == 0 {
		cached, err := rc.storage.Load()
		if err != nil {
			return domain.RunOptions{}, fmt.Errorf("failed to load failed tests: %w", err)
		}
		rc.log.Debug().Strs("suites", cached).Msg("rerunning cached failures")
		tokens = cached
	}

	opts := domain.RunOptions{
		Parallel: rc.config.Processors,
		FailFast: !flags.NonfatalErrors && !flags.Rerun,
		Reverse:  flags.Reverse,
		Profile:  flags.Profile,
		Verbose:  flags.Verbose,
	}

	if len(tokens) == 0 {
		opts.Suites = append([]string(nil), rc.config.DefaultSuites...)
		opts.FullSuite = true
	} else {
		suites, err := rc.resolver.Resolve(tokens)
		if err != nil {
			return domain.RunOptions{}, err
		}
		opts.Suites = suites
		opts.Parallel = 1
	}
	if flags.Rerun {
		opts.Parallel = 1
	}
	return opts, nil
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	flags := rc.config.Flags

	opts, err := rc.Plan(args)
	if err != nil {
		return err
	}

	if ok, msg := rc.checker.Status(); !ok {
		if !flags.Force {
			rc.formatter.PrintProvisionFailure(msg)
			return ErrNotProvisioned
		}
		rc.log.Warn().Str("reason", msg).Msg("running despite unmet provisioning")
	}

	overrides := rc.policy.Environ()

	var session *coverage.Session
	if flags.Coverage {
		session, err = coverage.Acquire(ctx, rc.engine, rc.log)
		if err != nil {
			return fmt.Errorf("failed to start coverage: %w", err)
		}
		defer func() {
			if closeErr := session.Close(ctx); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to save coverage: %w", closeErr)
			}
		}()
		overrides = append(overrides, session.Environ()...)
	}
	env := execution.Environment(rc.config, overrides)

	if _, err := rc.generator.Ensure(ctx, env, flags.GenerateFixtures); err != nil {
		return fmt.Errorf("fixture generation failed: %w", err)
	}

	if err := rc.builder.Build(ctx, env); err != nil {
		return err
	}

	opts.Env = overrides
	rc.formatter.PrintRunPlan(opts)
	report, err := rc.executor.Run(ctx, opts)
	if err != nil {
		return err
	}
	failed := report.Failures

	if err := rc.updateCache(report, opts.FullSuite); err != nil {
		return err
	}

	if opts.FullSuite {
		if untested := coverage.UntestedTemplates(report.UnusedTemplates, rc.config.TemplateIgnore); len(untested) > 0 {
			rc.formatter.PrintUnusedTemplates(untested)
			failed = true
		}
	}

	if session != nil {
		problems, err := rc.finishCoverage(ctx, cmd, session, opts.FullSuite && !failed)
		if err != nil {
			return err
		}
		if len(problems) > 0 {
			rc.formatter.PrintCoverageProblems(problems)
			failed = true
		}
	}

	if flags.Profile {
		rc.formatter.PrintProfile(parser.TopProfile(report.Profile, rc.config.ProfileLimit))
	}
	if flags.ReportSlowTests {
		rc.formatter.PrintSlowTests(parser.SlowTests(
			report.TestDurations, rc.config.SlowTestThreshold.Seconds(), rc.config.SlowTestCount))
	}

	rc.formatter.PrintResult(failed, report)
	if failed {
		return ErrTestsFailed
	}
	return nil
}

// updateCache stores the failures of a failing run. A failing run that named
// no failed tests keeps the previous cache. A passing run clears the cache
// only when it covered everything the cache could refer to.
func (rc *RunCommand) updateCache(report *domain.RunReport, fullSuite bool) error {
	if report.Failures {
		if len(report.FailedTests) == 0 {
			rc.log.Debug().Msg("run failed without naming failed tests, keeping cache")
			return nil
		}
		if err := rc.storage.Save(report.FailedTests); err != nil {
			return fmt.Errorf("failed to save failed tests: %w", err)
		}
		return nil
	}
	if fullSuite || rc.config.Flags.Rerun {
		if err := rc.storage.Clear(); err != nil {
			return fmt.Errorf("failed to clear failed tests: %w", err)
		}
	}
	return nil
}

// finishCoverage closes the session, writes the reports and, when enforce is
// set, checks the allowlist
func (rc *RunCommand) finishCoverage(ctx context.Context, cmd *cobra.Command, session *coverage.Session, enforce bool) ([]coverage.Problem, error) {
	if err := session.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to save coverage: %w", err)
	}
	engine := session.Engine()

	if rc.config.Flags.VerboseCoverage {
		if err := engine.Report(ctx, cmd.OutOrStdout()); err != nil {
			return nil, fmt.Errorf("coverage report failed: %w", err)
		}
	}
	if err := engine.HTMLReport(ctx, rc.config.Path(rc.config.CoverageHTMLDir)); err != nil {
		return nil, fmt.Errorf("coverage html report failed: %w", err)
	}
	rc.formatter.PrintCoverageSaved()

	if !enforce {
		rc.log.Debug().Msg("skipping coverage enforcement for partial or failing run")
		return nil, nil
	}
	allowlist, err := coverage.Allowlist(rc.fsys, rc.config.CoverageTargets, rc.config.CoverageExclusions)
	if err != nil {
		return nil, err
	}
	return coverage.Enforce(engine, allowlist, rc.config.CoverageExclusions)
}
