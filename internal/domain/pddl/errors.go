package pddl

import (
	"errors"
	"fmt"

	"thorplan/internal/domain/action"
)

var (
	ErrEncoding    = errors.New("problem encoding failed")
	ErrPlanParsing = errors.New("plan parsing failed")
)

// EncodingError rejects a request before any solver is invoked.
type EncodingError struct {
	Kind     action.Kind
	TargetID string
	Reason   string
	Err      error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: %s", ErrEncoding, e.Kind, e.TargetID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEncoding}
	}
	return []error{ErrEncoding, e.Err}
}

// PlanParsingError reports solver output that yields no usable plan.
type PlanParsingError struct {
	Line       int
	Text       string
	Reason     string
	Unsolvable bool
}

func (e *PlanParsingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d %q: %s", ErrPlanParsing, e.Line, e.Text, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrPlanParsing, e.Reason)
}

func (e *PlanParsingError) Unwrap() error {
	return ErrPlanParsing
}
