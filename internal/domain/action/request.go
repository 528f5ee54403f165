package action

import (
	"errors"
	"fmt"
	"strings"

	"thorplan/internal/domain/world"
)

var (
	ErrInvalidRequest = errors.New("invalid action request")
	ErrNotApplicable  = errors.New("action not applicable to target")
	ErrTargetNotFound = errors.New("target not found in world state")
	ErrNotHolding     = errors.New("action requires holding an object")
)

// Request is one high-level action request. It is passed by value through
// the pipeline and never modified after validation.
type Request struct {
	Kind     Kind           `json:"kind"`
	TargetID string         `json:"target_id,omitempty"`
	Liquid   Liquid         `json:"liquid,omitempty"`
	Position *world.Vector3 `json:"position,omitempty"`
}

func (r Request) Normalize() Request {
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.TargetID = strings.TrimSpace(r.TargetID)
	r.Liquid = Liquid(strings.ToLower(strings.TrimSpace(string(r.Liquid))))
	return r
}

// Validate checks the request shape without looking at any world state.
func (r Request) Validate() error {
	rule, ok := catalog[r.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidRequest, r.Kind)
	}
	if r.Kind == KindMove {
		if r.Position == nil {
			return fmt.Errorf("%w: move requires a position", ErrInvalidRequest)
		}
		if r.TargetID != "" {
			return fmt.Errorf("%w: move takes no target", ErrInvalidRequest)
		}
	}
	if rule.NeedsTarget && r.TargetID == "" {
		return fmt.Errorf("%w: %s requires a target", ErrInvalidRequest, r.Kind)
	}
	if rule.NeedsLiquid {
		if _, err := ParseLiquid(string(r.Liquid)); err != nil {
			return fmt.Errorf("%w: %s requires a liquid", ErrInvalidRequest, r.Kind)
		}
	} else if r.Liquid != "" {
		return fmt.Errorf("%w: %s takes no liquid", ErrInvalidRequest, r.Kind)
	}
	return nil
}

type NotApplicableError struct {
	Kind       Kind
	TargetID   string
	Expression string
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("%s: %s on %s requires %s", ErrNotApplicable, e.Kind, e.TargetID, e.Expression)
}

func (e *NotApplicableError) Unwrap() error {
	return ErrNotApplicable
}

// Applicable checks the request against the world state it will run in.
func Applicable(s world.Snapshot, req Request) error {
	rule, ok := catalog[req.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidRequest, req.Kind)
	}
	if req.Kind == KindMove {
		return moveApplicable(s, req)
	}
	held, holding := s.HeldObject()
	if rule.NeedsHeld && !holding {
		return ErrNotHolding
	}
	target, ok := s.Object(req.TargetID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTargetNotFound, req.TargetID)
	}
	if req.Kind == KindPut && holding && held.ID == target.ID {
		return &NotApplicableError{Kind: req.Kind, TargetID: req.TargetID, Expression: "a receptacle other than the held object"}
	}
	matched, err := rule.Matches(target.Flags())
	if err != nil {
		return err
	}
	if !matched {
		return &NotApplicableError{Kind: req.Kind, TargetID: req.TargetID, Expression: rule.Expression}
	}
	return nil
}

func moveApplicable(s world.Snapshot, req Request) error {
	if req.Position == nil {
		return fmt.Errorf("%w: move requires a position", ErrInvalidRequest)
	}
	if len(s.ReachablePositions) == 0 {
		return nil
	}
	for _, p := range s.ReachablePositions {
		if p.SameFloorPoint(*req.Position) {
			return nil
		}
	}
	return &NotApplicableError{Kind: KindMove, TargetID: req.Position.String(), Expression: "a reachable position"}
}
