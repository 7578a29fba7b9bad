package coverage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"testbackend/internal/config"
)

// CLIEngine implements Engine with the coverage command line tool. Measured
// processes start coverage themselves via COVERAGE_PROCESS_START.
type CLIEngine struct {
	config  *config.Config
	log     zerolog.Logger
	active  bool
	missing map[string][]int
}

// NewCLIEngine creates a new CLIEngine
func NewCLIEngine(cfg *config.Config, log zerolog.Logger) *CLIEngine {
	return &CLIEngine{config: cfg, log: log}
}

type jsonReport struct {
	Files map[string]struct {
		MissingLines []int `json:"missing_lines"`
	} `json:"files"`
}

// Start erases data from earlier runs and begins exporting the measurement settings
func (e *CLIEngine) Start(ctx context.Context) error {
	if err := e.run(ctx, nil, "erase"); err != nil {
		return err
	}
	e.active = true
	e.missing = nil
	return nil
}

// Stop ends measurement of newly started processes
func (e *CLIEngine) Stop(ctx context.Context) error {
	e.active = false
	return nil
}

// Environ implements Engine
func (e *CLIEngine) Environ() []string {
	if !e.active {
		return nil
	}
	rc, err := filepath.Abs(e.config.Path(e.config.CoverageRCFile))
	if err != nil {
		rc = e.config.Path(e.config.CoverageRCFile)
	}
	return []string{"COVERAGE_PROCESS_START=" + rc}
}

// Combine merges the per-process data files
func (e *CLIEngine) Combine(ctx context.Context) error {
	return e.run(ctx, nil, "combine")
}

// Save exports the combined data as JSON and loads it for Analysis
func (e *CLIEngine) Save(ctx context.Context) error {
	path := e.config.Path(e.config.CoverageJSONFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create coverage dir: %w", err)
	}
	if err := e.run(ctx, nil, "json", "-q", "-o", path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read coverage json: %w", err)
	}
	return e.load(data)
}

func (e *CLIEngine) load(data []byte) error {
	var report jsonReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse coverage json: %w", err)
	}
	e.missing = make(map[string][]int, len(report.Files))
	for path, file := range report.Files {
		e.missing[normalize(path)] = file.MissingLines
	}
	return nil
}

// Report writes the text report to w
func (e *CLIEngine) Report(ctx context.Context, w io.Writer) error {
	return e.run(ctx, w, "report")
}

// HTMLReport writes the HTML report into dir
func (e *CLIEngine) HTMLReport(ctx context.Context, dir string) error {
	return e.run(ctx, nil, "html", "-d", dir)
}

// Analysis returns the missing lines of path from the saved data
func (e *CLIEngine) Analysis(path string) ([]int, error) {
	if e.missing == nil {
		return nil, errors.New("coverage data has not been saved")
	}
	missing, ok := e.missing[normalize(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotMeasured)
	}
	return missing, nil
}

func (e *CLIEngine) run(ctx context.Context, stdout io.Writer, args ...string) error {
	if len(e.config.CoverageCommand) == 0 {
		return errors.New("no coverage command configured")
	}
	argv := append(append([]string(nil), e.config.CoverageCommand...), args...)
	e.log.Debug().Strs("argv", argv).Msg("coverage")

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.config.ProjectPath
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("coverage %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func normalize(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
}
