package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testbackend/internal/domain"
)

func TestReportParser_Parse(t *testing.T) {
	p := NewReportParser()

	t.Run("full report", func(t *testing.T) {
		report, err := p.Parse(strings.NewReader(`{
			"failures": true,
			"failed_tests": ["zerver.tests.test_foo.FooTest.test_bar"],
			"unused_templates": ["zerver/app/old.html"],
			"test_durations": [{"name": "zerver.tests.test_foo.FooTest.test_bar", "seconds": 1.25}],
			"profile": [{"function": "render", "calls": 3, "total_seconds": 0.5, "cumulative_seconds": 2}]
		}`))
		require.NoError(t, err)
		assert.True(t, report.Failures)
		assert.Equal(t, []string{"zerver.tests.test_foo.FooTest.test_bar"}, report.FailedTests)
		assert.Equal(t, []string{"zerver/app/old.html"}, report.UnusedTemplates)
		assert.Equal(t, 1.25, report.TestDurations[0].Seconds)
		assert.Equal(t, 3, report.Profile[0].Calls)
	})

	t.Run("failed tests imply failure", func(t *testing.T) {
		report, err := p.Parse(strings.NewReader(`{"failures": false, "failed_tests": ["a.tests"]}`))
		require.NoError(t, err)
		assert.True(t, report.Failures)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := p.Parse(strings.NewReader(`{`))
		assert.Error(t, err)
	})
}

func TestReportParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"failures": false}`), 0644))

	report, err := NewReportParser().ParseFile(path)
	require.NoError(t, err)
	assert.False(t, report.Failures)

	_, err = NewReportParser().ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSlowTests(t *testing.T) {
	durations := []domain.TestDuration{
		{Name: "fast", Seconds: 0.1},
		{Name: "slow", Seconds: 2},
		{Name: "slower", Seconds: 3},
		{Name: "borderline", Seconds: 0.5},
	}

	assert.Equal(t, []domain.TestDuration{
		{Name: "slower", Seconds: 3},
		{Name: "slow", Seconds: 2},
		{Name: "borderline", Seconds: 0.5},
	}, SlowTests(durations, 0.5, 0))

	assert.Len(t, SlowTests(durations, 0.5, 2), 2)
	assert.Empty(t, SlowTests(durations, 10, 5))
}

func TestTopProfile(t *testing.T) {
	entries := []domain.ProfileEntry{
		{Function: "a", CumulativeSeconds: 1},
		{Function: "b", CumulativeSeconds: 5},
		{Function: "c", CumulativeSeconds: 3},
	}

	top := TopProfile(entries, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Function)
	assert.Equal(t, "c", top[1].Function)
	// input left untouched
	assert.Equal(t, "a", entries[0].Function)
}
