package ports

import (
	"context"
	"time"
)

// CycleTrace holds the per-cycle artifacts that are otherwise discarded.
type CycleTrace struct {
	CycleID     string        `json:"cycle_id"`
	Scene       string        `json:"scene"`
	Counter     int           `json:"counter"`
	Kind        string        `json:"kind"`
	TargetID    string        `json:"target_id,omitempty"`
	Outcome     string        `json:"outcome"`
	Problem     string        `json:"problem,omitempty"`
	Digest      string        `json:"digest,omitempty"`
	RawPlan     string        `json:"raw_plan,omitempty"`
	Steps       []string      `json:"steps,omitempty"`
	FailedStep  int           `json:"failed_step"`
	Attempts    int           `json:"attempts"`
	Elapsed     time.Duration `json:"elapsed_ns"`
	Error       string        `json:"error,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
}

type CycleTracer interface {
	Trace(ctx context.Context, t CycleTrace) error
}
