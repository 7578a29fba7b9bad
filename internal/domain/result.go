package domain

import "time"

// RunReport is the outcome the external test runner reports for one run
type RunReport struct {
	Failures        bool           `json:"failures"`
	FailedTests     []string       `json:"failed_tests"`
	UnusedTemplates []string       `json:"unused_templates"`
	TestDurations   []TestDuration `json:"test_durations"`
	Profile         []ProfileEntry `json:"profile"`

	// Duration is measured by the harness, not reported
	Duration time.Duration `json:"-"`
}

// TestDuration is the wall time of a single test
type TestDuration struct {
	Name    string  `json:"name"`
	Seconds float64 `json:"seconds"`
}

// ProfileEntry is one function row of the runner's profile
type ProfileEntry struct {
	Function          string  `json:"function"`
	Calls             int     `json:"calls"`
	TotalSeconds      float64 `json:"total_seconds"`
	CumulativeSeconds float64 `json:"cumulative_seconds"`
}
