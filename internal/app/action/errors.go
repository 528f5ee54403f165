package action

import (
	"errors"
	"fmt"

	"thorplan/internal/app/ports"
	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
)

var (
	ErrInvalidRequest = errors.New("invalid cycle request")
	ErrDispatch       = errors.New("dispatch failed")
)

// DispatchError reports the plan step whose simulator command failed.
type DispatchError struct {
	Step    int
	Action  string
	Message string
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s at step %d (%s): %s", ErrDispatch, e.Step, e.Action, e.Message)
}

func (e *DispatchError) Unwrap() error {
	return ErrDispatch
}

type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeInvalid        Outcome = "invalid_request"
	OutcomeEncoding       Outcome = "encoding_error"
	OutcomeTimedOut       Outcome = "planner_timed_out"
	OutcomeSolverNotFound Outcome = "solver_not_found"
	OutcomePlanParsing    Outcome = "plan_parsing_error"
	OutcomeDispatch       Outcome = "dispatch_error"
	OutcomeConflict       Outcome = "counter_conflict"
	OutcomeInternal       Outcome = "internal_error"
)

// Classify maps a cycle error onto its outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ports.ErrSolverNotFound):
		return OutcomeSolverNotFound
	case errors.Is(err, ports.ErrPlannerTimedOut):
		return OutcomeTimedOut
	case errors.Is(err, pddl.ErrEncoding):
		return OutcomeEncoding
	case errors.Is(err, pddl.ErrPlanParsing):
		return OutcomePlanParsing
	case errors.Is(err, ErrDispatch):
		return OutcomeDispatch
	case errors.Is(err, ports.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, domainaction.ErrInvalidRequest):
		return OutcomeInvalid
	default:
		return OutcomeInternal
	}
}
