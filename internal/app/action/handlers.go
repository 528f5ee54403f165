package action

import (
	"context"

	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
)

const (
	heldSymbol       = "held"
	receptacleSymbol = "receptacle"
)

// plannedHandler runs encode, solve and decode.
type plannedHandler struct{}

func (plannedHandler) Precheck(_ context.Context, uc UseCase, ac *ActionContext) error {
	doc, err := uc.Encoder.Encode(ac.View.Before, ac.In.Req.Action)
	if err != nil {
		return err
	}
	ac.Plan.Document = doc
	ac.Plan.Encoded = true
	ac.Plan.Bindings = doc.Bindings
	return nil
}

func (plannedHandler) BuildPlan(ctx context.Context, uc UseCase, ac *ActionContext) error {
	raw, attempts, err := uc.solve(ctx, ac)
	ac.Plan.Raw = raw
	ac.Plan.Attempts = attempts
	if err != nil {
		return err
	}
	plan, err := uc.Decoder.Decode(raw.Text)
	if err != nil {
		return err
	}
	ac.Plan.Steps = plan
	return nil
}

func shortcutPrecheck(ac *ActionContext) error {
	req := ac.In.Req.Action
	if err := domainaction.Applicable(ac.View.Before, req); err != nil {
		return &pddl.EncodingError{Kind: req.Kind, TargetID: req.TargetID, Reason: "target fails applicability", Err: err}
	}
	return nil
}

// dropHandler releases the held object without planning.
type dropHandler struct{}

func (dropHandler) Precheck(_ context.Context, _ UseCase, ac *ActionContext) error {
	return shortcutPrecheck(ac)
}

func (dropHandler) BuildPlan(_ context.Context, _ UseCase, ac *ActionContext) error {
	held, _ := ac.View.Before.HeldObject()
	ac.Plan.Bindings = map[string]pddl.Binding{heldSymbol: {ObjectID: held.ID}}
	ac.Plan.Steps = pddl.Plan{Steps: []pddl.Step{{Index: 0, Timestamp: "0", Action: "drop", Args: []string{heldSymbol}}}}
	return nil
}

// putHandler places the held object in the target receptacle without planning.
type putHandler struct{}

func (putHandler) Precheck(_ context.Context, _ UseCase, ac *ActionContext) error {
	return shortcutPrecheck(ac)
}

func (putHandler) BuildPlan(_ context.Context, _ UseCase, ac *ActionContext) error {
	held, _ := ac.View.Before.HeldObject()
	ac.Plan.Bindings = map[string]pddl.Binding{
		heldSymbol:       {ObjectID: held.ID},
		receptacleSymbol: {ObjectID: ac.In.Req.Action.TargetID},
	}
	ac.Plan.Steps = pddl.Plan{Steps: []pddl.Step{{Index: 0, Timestamp: "0", Action: "put", Args: []string{heldSymbol, receptacleSymbol}}}}
	return nil
}
