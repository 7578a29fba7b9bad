package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbackend/internal/config"
	"testbackend/internal/coverage"
	"testbackend/internal/discovery"
	"testbackend/internal/domain"
	"testbackend/internal/logging"
	"testbackend/internal/netguard"
	"testbackend/internal/storage"
	"testbackend/internal/ui"
)

type fakeChecker struct {
	ok  bool
	msg string
}

func (f *fakeChecker) Status() (bool, string) { return f.ok, f.msg }

type fakeGenerator struct {
	forced []bool
	err    error
}

func (f *fakeGenerator) Ensure(_ context.Context, _ []string, force bool) (bool, error) {
	f.forced = append(f.forced, force)
	return force, f.err
}

type fakeBuilder struct {
	calls int
	err   error
}

func (f *fakeBuilder) Build(context.Context, []string) error {
	f.calls++
	return f.err
}

type fakeExecutor struct {
	runs   []domain.RunOptions
	report domain.RunReport
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, opts domain.RunOptions) (*domain.RunReport, error) {
	f.runs = append(f.runs, opts)
	if f.err != nil {
		return nil, f.err
	}
	report := f.report
	return &report, nil
}

type fakeEngine struct {
	calls   []string
	missing map[string][]int
}

func (f *fakeEngine) Start(context.Context) error   { f.calls = append(f.calls, "start"); return nil }
func (f *fakeEngine) Stop(context.Context) error    { f.calls = append(f.calls, "stop"); return nil }
func (f *fakeEngine) Save(context.Context) error    { f.calls = append(f.calls, "save"); return nil }
func (f *fakeEngine) Combine(context.Context) error { f.calls = append(f.calls, "combine"); return nil }
func (f *fakeEngine) HTMLReport(context.Context, string) error {
	f.calls = append(f.calls, "html")
	return nil
}
func (f *fakeEngine) Environ() []string { return []string{"COVERAGE_PROCESS_START=.coveragerc"} }
func (f *fakeEngine) Report(_ context.Context, w io.Writer) error {
	f.calls = append(f.calls, "report")
	_, err := io.WriteString(w, "TOTAL 100%\n")
	return err
}

func (f *fakeEngine) Analysis(path string) ([]int, error) {
	missing, ok := f.missing[path]
	if !ok {
		return nil, coverage.ErrNotMeasured
	}
	return missing, nil
}

type harness struct {
	cfg       *config.Config
	checker   *fakeChecker
	generator *fakeGenerator
	builder   *fakeBuilder
	executor  *fakeExecutor
	engine    *fakeEngine
	storage   *storage.JSONStorage
	out       *bytes.Buffer
	cmd       *cobra.Command
	run       *RunCommand
}

func projectTree() fstest.MapFS {
	return fstest.MapFS{
		"zerver/tests/test_foo.py": {Data: []byte("class FooTest(ZulipTestCase):\n    def test_bar(self):\n        pass\n")},
		"zerver/lib/a.py":          {Data: []byte("A = 1\n")},
		"zerver/lib/b.py":          {Data: []byte("B = 1\n")},
	}
}

func newHarness(t *testing.T, flags config.Flags) *harness {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	fsys := projectTree()
	cfg := config.New()
	cfg.ProjectPath = t.TempDir()
	cfg.ApplyFlags(flags)
	cfg.CoverageTargets = []string{"zerver/lib/*.py"}
	cfg.CoverageExclusions = []string{"zerver/lib/b.py"}

	h := &harness{
		cfg:       cfg,
		checker:   &fakeChecker{ok: true},
		generator: &fakeGenerator{},
		builder:   &fakeBuilder{},
		executor:  &fakeExecutor{},
		engine:    &fakeEngine{missing: map[string][]int{"zerver/lib/a.py": nil, "zerver/lib/b.py": {4}}},
		storage:   storage.NewJSONStorage(cfg),
		out:       &bytes.Buffer{},
		cmd:       &cobra.Command{},
	}
	h.cmd.SetOut(h.out)

	formatter := ui.NewFormatter(cfg, discovery.NewParser(fsys))
	formatter.SetOutput(h.out)
	resolver := discovery.NewResolver(fsys, cfg.TestSourceDir, nil)

	h.run = NewRunCommand(cfg, fsys, resolver, h.checker, h.generator, h.builder, h.executor, h.engine,
		h.storage, netguard.Block(), formatter, logging.Nop())
	return h
}

func TestRunCommand_Plan(t *testing.T) {
	t.Run("empty tokens run the default suites as a full suite", func(t *testing.T) {
		h := newHarness(t, config.Flags{})

		opts, err := h.run.Plan(nil)
		require.NoError(t, err)

		assert.Equal(t, config.DefaultSuites, opts.Suites)
		assert.True(t, opts.FullSuite)
		assert.Equal(t, config.DefaultProcessors, opts.Parallel)
		assert.True(t, opts.FailFast)
	})

	t.Run("named tokens are resolved and run in one process", func(t *testing.T) {
		h := newHarness(t, config.Flags{Processors: 8, ProcessorsSet: true})

		opts, err := h.run.Plan([]string{"zerver/tests/test_foo.py", "FooTest", "FooTest.test_bar"})
		require.NoError(t, err)

		assert.Equal(t, []string{
			"zerver.tests.test_foo",
			"zerver.tests.test_foo.FooTest",
			"zerver.tests.test_foo.FooTest.test_bar",
		}, opts.Suites)
		assert.False(t, opts.FullSuite)
		assert.Equal(t, 1, opts.Parallel)
	})

	t.Run("nonfatal errors disable fail-fast", func(t *testing.T) {
		h := newHarness(t, config.Flags{NonfatalErrors: true, Reverse: true})

		opts, err := h.run.Plan(nil)
		require.NoError(t, err)
		assert.False(t, opts.FailFast)
		assert.True(t, opts.Reverse)
	})

	t.Run("rerun uses the cached failures", func(t *testing.T) {
		h := newHarness(t, config.Flags{Rerun: true})
		require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest"}))

		opts, err := h.run.Plan(nil)
		require.NoError(t, err)

		assert.Equal(t, []string{"zerver.tests.test_foo.FooTest"}, opts.Suites)
		assert.Equal(t, 1, opts.Parallel)
		assert.False(t, opts.FailFast)
		assert.False(t, opts.FullSuite)
	})

	t.Run("rerun with tokens ignores the cache", func(t *testing.T) {
		h := newHarness(t, config.Flags{Rerun: true})
		require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest"}))

		opts, err := h.run.Plan([]string{"test_foo"})
		require.NoError(t, err)
		assert.Equal(t, []string{"zerver.tests.test_foo"}, opts.Suites)
	})

	t.Run("rerun without a cache runs everything in one process", func(t *testing.T) {
		h := newHarness(t, config.Flags{Rerun: true})

		opts, err := h.run.Plan(nil)
		require.NoError(t, err)
		assert.True(t, opts.FullSuite)
		assert.Equal(t, config.DefaultSuites, opts.Suites)
		assert.Equal(t, 1, opts.Parallel)
	})
}

func TestRunCommand_Execute_Passing(t *testing.T) {
	h := newHarness(t, config.Flags{})
	require.NoError(t, h.storage.Save([]string{"zerver.tests.test_old"}))

	err := h.run.Execute(h.cmd, nil)
	require.NoError(t, err)

	assert.Contains(t, h.out.String(), "DONE!")
	assert.Equal(t, 1, h.builder.calls)
	assert.Equal(t, []bool{false}, h.generator.forced)
	require.Len(t, h.executor.runs, 1)
	assert.Contains(t, h.executor.runs[0].Env, netguard.BlockEnvVar+"=1")
	assert.Contains(t, h.executor.runs[0].Env, "http_proxy=")

	ids, err := h.storage.Load()
	require.NoError(t, err)
	assert.Empty(t, ids, "a passing full suite clears the cache")
}

func TestRunCommand_Execute_Failing(t *testing.T) {
	h := newHarness(t, config.Flags{})
	h.executor.report = domain.RunReport{Failures: true, FailedTests: []string{"zerver.tests.test_foo.FooTest.test_bar"}}

	err := h.run.Execute(h.cmd, nil)
	assert.ErrorIs(t, err, ErrTestsFailed)
	assert.Contains(t, h.out.String(), "FAILED!")

	ids, err := h.storage.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"zerver.tests.test_foo.FooTest.test_bar"}, ids)
}

func TestRunCommand_Execute_PartialPassKeepsCache(t *testing.T) {
	h := newHarness(t, config.Flags{})
	require.NoError(t, h.storage.Save([]string{"zerver.tests.test_old"}))

	require.NoError(t, h.run.Execute(h.cmd, []string{"test_foo"}))

	ids, err := h.storage.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"zerver.tests.test_old"}, ids)
}

func TestRunCommand_Execute_RerunPassClearsCache(t *testing.T) {
	h := newHarness(t, config.Flags{Rerun: true})
	require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest"}))

	require.NoError(t, h.run.Execute(h.cmd, nil))

	ids, err := h.storage.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunCommand_Execute_Provisioning(t *testing.T) {
	t.Run("unmet provisioning aborts", func(t *testing.T) {
		h := newHarness(t, config.Flags{})
		h.checker.ok, h.checker.msg = false, "Provisioning is out of date"

		err := h.run.Execute(h.cmd, nil)
		assert.ErrorIs(t, err, ErrNotProvisioned)
		assert.Empty(t, h.executor.runs)
		assert.Contains(t, h.out.String(), "Provisioning is out of date")
		assert.Contains(t, h.out.String(), "--force")
	})

	t.Run("force runs anyway", func(t *testing.T) {
		h := newHarness(t, config.Flags{Force: true})
		h.checker.ok = false

		require.NoError(t, h.run.Execute(h.cmd, nil))
		assert.Len(t, h.executor.runs, 1)
	})
}

func TestRunCommand_Execute_BuildFailureAborts(t *testing.T) {
	h := newHarness(t, config.Flags{})
	h.builder.err = errors.New("webpack exited 2")

	err := h.run.Execute(h.cmd, nil)
	assert.ErrorContains(t, err, "webpack exited 2")
	assert.Empty(t, h.executor.runs)
}

func TestRunCommand_Execute_GenerateFixtures(t *testing.T) {
	h := newHarness(t, config.Flags{GenerateFixtures: true})

	require.NoError(t, h.run.Execute(h.cmd, nil))
	assert.Equal(t, []bool{true}, h.generator.forced)
}

func TestRunCommand_Execute_UnusedTemplates(t *testing.T) {
	h := newHarness(t, config.Flags{})
	h.executor.report = domain.RunReport{UnusedTemplates: []string{"zerver/emails/welcome.html", "zerver/app/home.html"}}

	err := h.run.Execute(h.cmd, nil)
	assert.ErrorIs(t, err, ErrTestsFailed)
	assert.Contains(t, h.out.String(), "zerver/app/home.html")
	assert.NotContains(t, h.out.String(), "welcome.html")

	// partial runs never check templates
	h = newHarness(t, config.Flags{})
	h.executor.report = domain.RunReport{UnusedTemplates: []string{"zerver/app/home.html"}}
	assert.NoError(t, h.run.Execute(h.cmd, []string{"test_foo"}))
}

func TestRunCommand_Execute_Coverage(t *testing.T) {
	t.Run("fully covered passing run exits 0", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})

		require.NoError(t, h.run.Execute(h.cmd, nil))
		assert.Equal(t, []string{"start", "stop", "combine", "save", "html"}, h.engine.calls)
		assert.Contains(t, h.executor.runs[0].Env, "COVERAGE_PROCESS_START=.coveragerc")
		assert.Contains(t, h.out.String(), "DONE!")
	})

	t.Run("lost coverage fails a full passing run", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})
		h.engine.missing["zerver/lib/a.py"] = []int{12, 13}

		err := h.run.Execute(h.cmd, nil)
		assert.ErrorIs(t, err, ErrTestsFailed)
		assert.Contains(t, h.out.String(), "ERROR: zerver/lib/a.py no longer has complete backend test coverage")
		assert.Contains(t, h.out.String(), "12, 13")
		assert.Contains(t, h.out.String(), "FAILED!")
	})

	t.Run("excluded file with complete coverage fails", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})
		h.engine.missing["zerver/lib/b.py"] = nil

		err := h.run.Execute(h.cmd, nil)
		assert.ErrorIs(t, err, ErrTestsFailed)
		assert.Contains(t, h.out.String(), "zerver/lib/b.py has complete coverage")
	})

	t.Run("partial runs skip enforcement", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})
		h.engine.missing["zerver/lib/a.py"] = []int{12}

		require.NoError(t, h.run.Execute(h.cmd, []string{"FooTest"}))
		assert.NotContains(t, h.out.String(), "no longer has complete")
	})

	t.Run("failing runs skip enforcement", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})
		h.engine.missing["zerver/lib/a.py"] = []int{12}
		h.executor.report = domain.RunReport{Failures: true}

		assert.ErrorIs(t, h.run.Execute(h.cmd, nil), ErrTestsFailed)
		assert.NotContains(t, h.out.String(), "no longer has complete")
	})

	t.Run("verbose coverage prints the report", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true, VerboseCoverage: true})

		require.NoError(t, h.run.Execute(h.cmd, nil))
		assert.Contains(t, h.out.String(), "TOTAL 100%")
	})

	t.Run("session is closed when the runner errors", func(t *testing.T) {
		h := newHarness(t, config.Flags{Coverage: true})
		h.executor.err = errors.New("runner missing")

		err := h.run.Execute(h.cmd, nil)
		assert.ErrorContains(t, err, "runner missing")
		assert.Equal(t, []string{"start", "stop", "combine", "save"}, h.engine.calls)
	})

	t.Run("no session without the flag", func(t *testing.T) {
		h := newHarness(t, config.Flags{})

		require.NoError(t, h.run.Execute(h.cmd, nil))
		assert.Empty(t, h.engine.calls)
	})
}

func TestRunCommand_Execute_Diagnostics(t *testing.T) {
	h := newHarness(t, config.Flags{Profile: true, ReportSlowTests: true})
	h.executor.report = domain.RunReport{
		TestDurations: []domain.TestDuration{
			{Name: "zerver.tests.test_foo.FooTest.test_fast", Seconds: 0.1},
			{Name: "zerver.tests.test_foo.FooTest.test_slow", Seconds: 3},
		},
		Profile: []domain.ProfileEntry{{Function: "render_markdown", Calls: 3, CumulativeSeconds: 2}},
	}

	require.NoError(t, h.run.Execute(h.cmd, nil))

	out := h.out.String()
	assert.Contains(t, out, "test_slow")
	assert.NotContains(t, out, "test_fast")
	assert.Contains(t, out, "render_markdown")
	assert.True(t, h.executor.runs[0].Profile)
}

func TestRunCommand_Execute_FailureWithoutIDsKeepsCache(t *testing.T) {
	h := newHarness(t, config.Flags{})
	require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest"}))
	h.executor.report = domain.RunReport{Failures: true}

	assert.ErrorIs(t, h.run.Execute(h.cmd, nil), ErrTestsFailed)

	ids, err := h.storage.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"zerver.tests.test_foo.FooTest"}, ids)
}
