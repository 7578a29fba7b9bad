package coverage

import (
	"errors"
	"fmt"
)

// ProblemKind classifies an enforcement failure
type ProblemKind int

const (
	// LostCoverage: an allowlisted file has uncovered lines
	LostCoverage ProblemKind = iota
	// NotMeasured: an allowlisted file is missing from the coverage data
	NotMeasured
	// NowCovered: an excluded file is fully covered and should leave the exclusion list
	NowCovered
)

// Problem is one file failing enforcement
type Problem struct {
	Path    string
	Kind    ProblemKind
	Missing []int
}

func (p Problem) String() string {
	switch p.Kind {
	case NotMeasured:
		return fmt.Sprintf("ERROR: %s has no coverage data", p.Path)
	case NowCovered:
		return fmt.Sprintf("ERROR: %s has complete coverage and should be removed from the exclusion list", p.Path)
	default:
		return fmt.Sprintf("ERROR: %s no longer has complete backend test coverage", p.Path)
	}
}

// Enforce checks every allowlisted file for zero missing lines and every
// measured exclusion for remaining missing lines
func Enforce(a Analyzer, allowlist, exclusions []string) ([]Problem, error) {
	var problems []Problem
	for _, path := range allowlist {
		missing, err := a.Analysis(path)
		switch {
		case errors.Is(err, ErrNotMeasured):
			problems = append(problems, Problem{Path: path, Kind: NotMeasured})
		case err != nil:
			return nil, err
		case len(missing) > 0:
			problems = append(problems, Problem{Path: path, Kind: LostCoverage, Missing: missing})
		}
	}

	for _, path := range exclusions {
		missing, err := a.Analysis(path)
		if errors.Is(err, ErrNotMeasured) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(missing) == 0 {
			problems = append(problems, Problem{Path: path, Kind: NowCovered})
		}
	}
	return problems, nil
}
