package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ConfigFileNames are looked up in the project root, in order
var ConfigFileNames = []string{
	".test-backend.yaml",
	".test-backend.yml",
	".test-backend.toml",
	".test-backend.json",
}

// File is the on-disk project configuration.
// Zero values mean "unspecified" and keep the defaults.
type File struct {
	TestSourceDir   string   `json:"test_source_dir" yaml:"test_source_dir" toml:"test_source_dir"`
	DefaultSuites   []string `json:"default_suites" yaml:"default_suites" toml:"default_suites"`
	SettingsModule  string   `json:"settings_module" yaml:"settings_module" toml:"settings_module"`
	FailedTestsFile string   `json:"failed_tests_file" yaml:"failed_tests_file" toml:"failed_tests_file"`
	Processors      int      `json:"processors" yaml:"processors" toml:"processors"`
	RunnerCommand   []string `json:"runner_command" yaml:"runner_command" toml:"runner_command"`
	BuildCommand    []string `json:"build_command" yaml:"build_command" toml:"build_command"`
	FixtureCommand  []string `json:"fixture_command" yaml:"fixture_command" toml:"fixture_command"`
	// FixtureForceArgs is a pointer so an explicit empty list can drop the default --force
	FixtureForceArgs   *[]string `json:"fixture_force_args" yaml:"fixture_force_args" toml:"fixture_force_args"`
	ProvisionVersion   string    `json:"provision_version" yaml:"provision_version" toml:"provision_version"`
	TemplateDatabase   string    `json:"template_database" yaml:"template_database" toml:"template_database"`
	FixtureGlobs       []string  `json:"fixture_globs" yaml:"fixture_globs" toml:"fixture_globs"`
	CoverageCommand    []string  `json:"coverage_command" yaml:"coverage_command" toml:"coverage_command"`
	CoverageTargets    []string  `json:"coverage_targets" yaml:"coverage_targets" toml:"coverage_targets"`
	CoverageExclusions []string  `json:"coverage_exclusions" yaml:"coverage_exclusions" toml:"coverage_exclusions"`
	TemplateIgnore     []string  `json:"template_ignore" yaml:"template_ignore" toml:"template_ignore"`
	SlowTestSeconds    float64   `json:"slow_test_seconds" yaml:"slow_test_seconds" toml:"slow_test_seconds"`
	SlowTestCount      int       `json:"slow_test_count" yaml:"slow_test_count" toml:"slow_test_count"`
}

// ReadFile reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func ReadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	case ".toml":
		err = toml.Unmarshal(b, &f)
	default:
		return f, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return f, err
}

// Apply overlays the non-zero fields of f onto the config
func (c *Config) Apply(f File) {
	setString(&c.TestSourceDir, f.TestSourceDir)
	setString(&c.SettingsModule, f.SettingsModule)
	setString(&c.FailedTestsFile, f.FailedTestsFile)
	setString(&c.ProvisionVersion, f.ProvisionVersion)
	setString(&c.TemplateDatabase, f.TemplateDatabase)
	setSlice(&c.DefaultSuites, f.DefaultSuites)
	setSlice(&c.RunnerCommand, f.RunnerCommand)
	setSlice(&c.BuildCommand, f.BuildCommand)
	setSlice(&c.FixtureCommand, f.FixtureCommand)
	if f.FixtureForceArgs != nil {
		c.FixtureForceArgs = clone(*f.FixtureForceArgs)
	}
	setSlice(&c.FixtureGlobs, f.FixtureGlobs)
	setSlice(&c.CoverageCommand, f.CoverageCommand)
	setSlice(&c.CoverageTargets, f.CoverageTargets)
	setSlice(&c.CoverageExclusions, f.CoverageExclusions)
	setSlice(&c.TemplateIgnore, f.TemplateIgnore)
	if f.Processors > 0 {
		c.Processors = f.Processors
	}
	if f.SlowTestSeconds > 0 {
		c.SlowTestThreshold = time.Duration(f.SlowTestSeconds * float64(time.Second))
	}
	if f.SlowTestCount > 0 {
		c.SlowTestCount = f.SlowTestCount
	}
}

// LoadEnv loads the project's .env file into the process environment.
// A missing file is not an error.
func (c *Config) LoadEnv() error {
	envPath := c.Path(".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setSlice(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = clone(v)
	}
}
