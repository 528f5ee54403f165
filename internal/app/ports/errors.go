package ports

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalidPath = errors.New("invalid file path")

	ErrPlannerTimedOut = errors.New("planner timed out")
	ErrSolverNotFound  = errors.New("solver not found")
)

// PlannerTimedOutError is returned when the solver does not finish within
// its deadline. Any partial output was discarded.
type PlannerTimedOutError struct {
	Deadline time.Duration
	PID      int
}

func (e *PlannerTimedOutError) Error() string {
	return fmt.Sprintf("%s after %s (pid %d)", ErrPlannerTimedOut, e.Deadline, e.PID)
}

func (e *PlannerTimedOutError) Unwrap() error {
	return ErrPlannerTimedOut
}

// SolverNotFoundError signals a misconfigured solver executable.
type SolverNotFoundError struct {
	Path string
	Err  error
}

func (e *SolverNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrSolverNotFound, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrSolverNotFound, e.Path)
}

func (e *SolverNotFoundError) Unwrap() error {
	return ErrSolverNotFound
}
