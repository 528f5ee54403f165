package ports

import (
	"context"
	"time"

	"thorplan/internal/domain/pddl"
)

type DomainRef struct {
	Name string
	Path string
}

type SearchConfig struct {
	Search   int
	Weight   int
	Optimize bool
}

type SolveRequest struct {
	Problem  pddl.ProblemDocument
	Domain   DomainRef
	Search   SearchConfig
	Deadline time.Duration
	// Counter numbers the problem and output files of one run.
	Counter int
}

type RawPlan struct {
	Text        string
	ProblemPath string
	OutputPath  string
	Elapsed     time.Duration
}

type Solver interface {
	Solve(ctx context.Context, req SolveRequest) (RawPlan, error)
}
