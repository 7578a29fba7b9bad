package config

import "time"

const (
	// DefaultProjectPath is the default project root
	DefaultProjectPath = "."
	// DefaultTestSourceDir is the tree scanned when resolving shorthand test names
	DefaultTestSourceDir = "zerver/tests"
	// DefaultFailedTestsFile stores the suite identifiers that failed in the last run
	DefaultFailedTestsFile = "var/last_test_failure.json"
	// DefaultProcessors is the default number of runner processes
	DefaultProcessors = 4
	// DefaultSettingsModule selects the application settings used by tests
	DefaultSettingsModule = "zproject.test_settings"

	DefaultProvisionVersionFile = "var/provision_version"
	DefaultProvisionVersion     = "1.0"
	DefaultTemplateDatabase     = "zulip_test_template"

	DefaultCoverageRCFile   = ".coveragerc"
	DefaultCoverageHTMLDir  = "var/coverage"
	DefaultCoverageJSONFile = "var/coverage.json"

	DefaultSlowTestThreshold = 500 * time.Millisecond
	DefaultSlowTestCount     = 15
	DefaultProfileLimit      = 40
)

// DefaultSuites run when no test tokens are given
var DefaultSuites = []string{
	"zerver.tests",
	"analytics.tests",
	"corporate.tests",
}

var (
	DefaultRunnerCommand  = []string{"python3", "tools/lib/test_runner.py"}
	DefaultBuildCommand   = []string{"tools/webpack", "--test"}
	DefaultFixtureCommand = []string{"tools/setup/generate-fixtures"}
	// DefaultFixtureForceArgs make the fixture command rebuild unconditionally
	DefaultFixtureForceArgs = []string{"--force"}
	DefaultCoverageCommand  = []string{"python3", "-m", "coverage"}
)

// DefaultCoverageTargets are globbed relative to the project root. They name
// application code only; tests and migrations are never allowlisted.
var DefaultCoverageTargets = []string{
	"analytics/lib/*.py",
	"analytics/views/*.py",
	"corporate/lib/*.py",
	"corporate/views/*.py",
	"zerver/actions/*.py",
	"zerver/lib/**/*.py",
	"zerver/views/*.py",
	"zproject/backends.py",
}

// DefaultCoverageExclusions are files not yet expected to be fully covered
var DefaultCoverageExclusions = []string{
	"zerver/lib/test_classes.py",
	"zerver/lib/test_helpers.py",
	"zerver/lib/test_runner.py",
	"zproject/backends.py",
}

// DefaultTemplateIgnore lists templates that are never rendered by backend tests
var DefaultTemplateIgnore = []string{
	"zerver/emails/**",
	"zerver/development/**",
}

// DefaultFixtureGlobs feed the template database digest
var DefaultFixtureGlobs = []string{
	"zerver/migrations/*.py",
	"analytics/migrations/*.py",
	"zerver/lib/bulk_create.py",
	"zilencer/management/commands/populate_db.py",
}
