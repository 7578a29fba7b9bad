package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath    string
	TestSourceDir  string
	DefaultSuites  []string
	SettingsModule string

	// Persisted state
	FailedTestsFile string

	// Execution settings
	Processors     int
	RunnerCommand  []string
	BuildCommand   []string
	FixtureCommand []string
	// FixtureForceArgs are appended to FixtureCommand for a forced regeneration
	FixtureForceArgs []string

	// Preconditions
	ProvisionVersion     string
	ProvisionVersionFile string
	TemplateDatabase     string
	FixtureGlobs         []string

	// Coverage settings
	CoverageCommand    []string
	CoverageRCFile     string
	CoverageHTMLDir    string
	CoverageJSONFile   string
	CoverageTargets    []string
	CoverageExclusions []string
	TemplateIgnore     []string

	// Diagnostics
	SlowTestThreshold time.Duration
	SlowTestCount     int
	ProfileLimit      int

	// Command flags
	Flags Flags
}

// Flags holds command-line flags
type Flags struct {
	Processors       int
	ProcessorsSet    bool // Processors was given on the command line
	NonfatalErrors   bool
	Coverage         bool
	VerboseCoverage  bool
	Profile          bool
	Force            bool
	Verbose          bool
	GenerateFixtures bool
	ReportSlowTests  bool
	Reverse          bool
	Rerun            bool
	ConfigFile       string
	ProjectPath      string
	TestCases        bool
	Pick             bool
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:          DefaultProjectPath,
		TestSourceDir:        DefaultTestSourceDir,
		DefaultSuites:        clone(DefaultSuites),
		SettingsModule:       DefaultSettingsModule,
		FailedTestsFile:      DefaultFailedTestsFile,
		Processors:           DefaultProcessors,
		RunnerCommand:        clone(DefaultRunnerCommand),
		BuildCommand:         clone(DefaultBuildCommand),
		FixtureCommand:       clone(DefaultFixtureCommand),
		FixtureForceArgs:     clone(DefaultFixtureForceArgs),
		ProvisionVersion:     DefaultProvisionVersion,
		ProvisionVersionFile: DefaultProvisionVersionFile,
		TemplateDatabase:     DefaultTemplateDatabase,
		FixtureGlobs:         clone(DefaultFixtureGlobs),
		CoverageCommand:      clone(DefaultCoverageCommand),
		CoverageRCFile:       DefaultCoverageRCFile,
		CoverageHTMLDir:      DefaultCoverageHTMLDir,
		CoverageJSONFile:     DefaultCoverageJSONFile,
		CoverageTargets:      clone(DefaultCoverageTargets),
		CoverageExclusions:   clone(DefaultCoverageExclusions),
		TemplateIgnore:       clone(DefaultTemplateIgnore),
		SlowTestThreshold:    DefaultSlowTestThreshold,
		SlowTestCount:        DefaultSlowTestCount,
		ProfileLimit:         DefaultProfileLimit,
		Flags:                Flags{Processors: DefaultProcessors},
	}
}

// Load creates a config, applies the project config file if one exists and
// then the flags.
func Load(flags Flags) (*Config, error) {
	cfg := New()
	if flags.ProjectPath != "" {
		cfg.ProjectPath = flags.ProjectPath
	}

	path := flags.ConfigFile
	if path == "" {
		path = cfg.findConfigFile()
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.ProjectPath, path)
	}
	if path != "" {
		file, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg.Apply(file)
	}

	cfg.ApplyFlags(flags)
	return cfg, nil
}

// ApplyFlags stores the flags and applies flag overrides. Processors only
// overrides the config file when it was set explicitly.
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags
	if flags.ProcessorsSet && flags.Processors > 0 {
		c.Processors = flags.Processors
	}
}

func (c *Config) findConfigFile() string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(c.ProjectPath, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Path resolves a project-relative path. Absolute paths are returned as is.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.ProjectPath, rel)
}

// GetFailedTestsPath returns the location of the failed-test cache
func (c *Config) GetFailedTestsPath() string {
	return c.Path(c.FailedTestsFile)
}

// GetTemplateStatusPath returns the file holding the digest the template
// database was last built from
func (c *Config) GetTemplateStatusPath() string {
	return c.Path(filepath.Join("var", c.TemplateDatabase+"-status"))
}

// GetDatabaseDSN returns the MySQL server DSN used to look up the template
// database, or "" when no database host is configured
func (c *Config) GetDatabaseDSN() string {
	host := os.Getenv("TEMPLATE_DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("TEMPLATE_DB_PORT")
	if port == "" {
		port = "3306"
	}
	user := os.Getenv("TEMPLATE_DB_USER")
	if user == "" {
		user = "root"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/", user, os.Getenv("TEMPLATE_DB_PASSWORD"), host, port)
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
