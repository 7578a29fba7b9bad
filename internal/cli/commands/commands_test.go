package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbackend/internal/cli"
	"testbackend/internal/config"
	"testbackend/internal/discovery"
	"testbackend/internal/ui"
)

type fakePicker struct {
	offered []string
	choice  string
}

func (f *fakePicker) Pick(ids []string) (string, error) {
	f.offered = ids
	return f.choice, nil
}

func newRoot(t *testing.T, args ...string) (*cobra.Command, *config.Config, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	cfg := config.New()
	root := &cobra.Command{Use: "test-backend"}
	var flags cli.Flags
	NewCommands(cfg).Register(root, &flags, cfg)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root, cfg, &out
}

func TestRegister_RejectsNonPositiveProcesses(t *testing.T) {
	for _, arg := range []string{"--processes=0", "-p=-2"} {
		root, _, _ := newRoot(t, arg)
		err := root.Execute()
		assert.ErrorContains(t, err, "must be a positive integer")
	}
}

func TestRegister_LoadsProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".test-backend.yaml"),
		[]byte("failed_tests_file: var/failures.json\n"), 0644))

	root, cfg, out := newRoot(t, "-C", dir, "failures")
	require.NoError(t, root.Execute())

	assert.Equal(t, dir, cfg.ProjectPath)
	assert.Equal(t, "var/failures.json", cfg.FailedTestsFile)
	assert.Contains(t, out.String(), "No failed tests recorded")
}

func TestRegister_BadConfigFile(t *testing.T) {
	root, _, _ := newRoot(t, "-C", t.TempDir(), "--config", "missing.toml", "allowlist")
	assert.Error(t, root.Execute())
}

func TestFailuresCommand(t *testing.T) {
	t.Run("prints the cached failures as a tree", func(t *testing.T) {
		h := newHarness(t, config.Flags{})
		require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest.test_bar"}))
		formatter := ui.NewFormatter(h.cfg, discovery.NewParser(projectTree()))
		formatter.SetOutput(h.out)

		fc := NewFailuresCommand(h.cfg, h.storage, formatter, &fakePicker{}, h.run.Execute)
		require.NoError(t, fc.Execute(h.cmd, nil))

		assert.Contains(t, h.out.String(), "Failed tests (1)")
		assert.Contains(t, h.out.String(), "└── test_bar")
		assert.Empty(t, h.executor.runs)
	})

	t.Run("pick reruns the selection", func(t *testing.T) {
		h := newHarness(t, config.Flags{Pick: true})
		cached := []string{"zerver.tests.test_foo.FooTest.test_bar", "zerver.tests.test_foo.FooTest.test_baz"}
		require.NoError(t, h.storage.Save(cached))
		picker := &fakePicker{choice: cached[1]}

		fc := NewFailuresCommand(h.cfg, h.storage, nil, picker, h.run.Execute)
		require.NoError(t, fc.Execute(h.cmd, nil))

		assert.Equal(t, cached, picker.offered)
		require.Len(t, h.executor.runs, 1)
		assert.Equal(t, []string{cached[1]}, h.executor.runs[0].Suites)
		assert.Equal(t, 1, h.executor.runs[0].Parallel)
	})

	t.Run("quitting the picker runs nothing", func(t *testing.T) {
		h := newHarness(t, config.Flags{Pick: true})
		require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo.FooTest"}))

		fc := NewFailuresCommand(h.cfg, h.storage, nil, &fakePicker{}, h.run.Execute)
		require.NoError(t, fc.Execute(h.cmd, nil))
		assert.Empty(t, h.executor.runs)
	})
}

func TestAllowlistCommand(t *testing.T) {
	h := newHarness(t, config.Flags{})
	formatter := ui.NewFormatter(h.cfg, nil)
	formatter.SetOutput(h.out)

	ac := NewAllowlistCommand(h.cfg, projectTree(), formatter)
	require.NoError(t, ac.Execute(h.cmd, nil))

	assert.Contains(t, h.out.String(), "1 file(s)")
	assert.Contains(t, h.out.String(), "zerver/lib/a.py")
	assert.NotContains(t, h.out.String(), "zerver/lib/b.py")
}

func TestListCommand(t *testing.T) {
	h := newHarness(t, config.Flags{TestCases: true})
	require.NoError(t, h.storage.Save([]string{"zerver.tests.test_foo"}))
	formatter := ui.NewFormatter(h.cfg, discovery.NewParser(projectTree()))
	formatter.SetOutput(h.out)

	lc := NewListCommand(h.cfg, discovery.NewScanner(projectTree(), nil), formatter, h.storage)
	require.NoError(t, lc.Execute(h.cmd, nil))

	assert.Contains(t, h.out.String(), "zerver.tests.test_foo [F]")
	assert.Contains(t, h.out.String(), "FooTest.test_bar")
}
