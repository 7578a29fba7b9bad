package cli

import "testbackend/internal/config"

// Flags holds command-line flags
type Flags struct {
	Processors       int
	ProcessorsSet    bool
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

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Processors:       f.Processors,
		ProcessorsSet:    f.ProcessorsSet,
		NonfatalErrors:   f.NonfatalErrors,
		Coverage:         f.Coverage,
		VerboseCoverage:  f.VerboseCoverage,
		Profile:          f.Profile,
		Force:            f.Force,
		Verbose:          f.Verbose,
		GenerateFixtures: f.GenerateFixtures,
		ReportSlowTests:  f.ReportSlowTests,
		Reverse:          f.Reverse,
		Rerun:            f.Rerun,
		ConfigFile:       f.ConfigFile,
		ProjectPath:      f.ProjectPath,
		TestCases:        f.TestCases,
		Pick:             f.Pick,
	}
}
