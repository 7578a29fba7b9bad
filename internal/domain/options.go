package domain

// RunOptions parameterise one invocation of the external test runner
type RunOptions struct {
	Suites    []string
	Parallel  int
	FailFast  bool
	Reverse   bool
	FullSuite bool // enables the runner's post-run template checks
	Profile   bool
	Verbose   bool
	Env       []string // extra KEY=VALUE entries on top of the prepared environment
}
