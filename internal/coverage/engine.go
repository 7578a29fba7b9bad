// Package coverage drives the external coverage tool and enforces the
// fully-covered allowlist.
package coverage

import (
	"context"
	"errors"
	"io"
)

// ErrNotMeasured is returned by Analysis for files absent from the coverage data
var ErrNotMeasured = errors.New("file was not measured")

// Analyzer reports the uncovered lines of a file
type Analyzer interface {
	Analysis(path string) ([]int, error)
}

// Engine is the coverage tool as seen by the harness
type Engine interface {
	Analyzer
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Save(ctx context.Context) error
	Combine(ctx context.Context) error
	Report(ctx context.Context, w io.Writer) error
	HTMLReport(ctx context.Context, dir string) error
	// Environ returns the variables processes need to be measured
	Environ() []string
}
