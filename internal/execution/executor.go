package execution

import (
	"context"

	"testbackend/internal/domain"
)

// Executor runs a set of suites and reports the outcome
type Executor interface {
	Run(ctx context.Context, opts domain.RunOptions) (*domain.RunReport, error)
}
