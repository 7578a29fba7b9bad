package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"testbackend/internal/config"
	"testbackend/internal/domain"
	"testbackend/internal/parser"
)

// Runner invokes the external test runner for a list of suites
type Runner struct {
	config *config.Config
	parser *parser.ReportParser
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, p *parser.ReportParser, log zerolog.Logger) *Runner {
	return &Runner{config: cfg, parser: p, log: log, stdout: os.Stdout, stderr: os.Stderr}
}

// SetOutput redirects the runner's own output
func (r *Runner) SetOutput(stdout, stderr io.Writer) {
	r.stdout = stdout
	r.stderr = stderr
}

// Args returns the full command line for opts
func (r *Runner) Args(opts domain.RunOptions) []string {
	args := append([]string(nil), r.config.RunnerCommand...)
	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}
	args = append(args, "--parallel", strconv.Itoa(parallel))
	if opts.FailFast {
		args = append(args, "--failfast")
	}
	if opts.Reverse {
		args = append(args, "--reverse")
	}
	if opts.FullSuite {
		args = append(args, "--full-suite")
	}
	if opts.Profile {
		args = append(args, "--profile")
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	args = append(args, "--")
	return append(args, opts.Suites...)
}

// Run executes the runner and reads back its report. A non-zero exit is a
// test failure, not an error; errors mean the runner could not be run or
// left no usable report.
func (r *Runner) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunReport, error) {
	if len(r.config.RunnerCommand) == 0 {
		return nil, errors.New("no runner command configured")
	}

	dir, err := os.MkdirTemp("", "test-backend-*")
	if err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	defer os.RemoveAll(dir)
	reportPath := filepath.Join(dir, "report.json")

	argv := r.Args(opts)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.config.ProjectPath
	cmd.Env = Environment(r.config, opts.Env, []string{ReportEnvVar + "=" + reportPath})
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	r.log.Debug().Strs("argv", argv).Int("parallel", opts.Parallel).Msg("starting test runner")
	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("run test runner: %w", runErr)
	}

	report, err := r.parser.ParseFile(reportPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && runErr != nil:
		r.log.Warn().Int("exit_code", exitErr.ExitCode()).Msg("test runner exited without a report")
		report = &domain.RunReport{Failures: true}
	case errors.Is(err, fs.ErrNotExist):
		return nil, errors.New("test runner exited successfully but wrote no report")
	case err != nil:
		return nil, err
	}

	if runErr != nil {
		report.Failures = true
	}
	report.Duration = duration
	return report, nil
}
