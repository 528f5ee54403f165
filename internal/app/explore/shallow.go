package explore

import (
	"context"

	"thorplan/internal/domain/action"
)

// Shallow runs every allowed kind on every applicable target of each scene
// once, reloading the scene before each target. Fill targets are tried with
// every liquid.
type Shallow struct {
	Base
}

func (s Shallow) Run(ctx context.Context, scenes []int) (*Report, error) {
	r := s.begin("shallow", scenes)
	for _, n := range scenes {
		if err := s.scene(ctx, r, n); err != nil {
			return s.finish(r, err)
		}
	}
	return s.finish(r, nil)
}

func (s Shallow) scene(ctx context.Context, r *Report, n int) error {
	initial, err := s.reset(ctx, n)
	if err != nil {
		return err
	}
	log := s.logger().With("scene", n)
	log.Info("exploring scene", "objects", len(initial.Objects))

	for _, kind := range explorableKinds(initial) {
		before := r.Succeeded
		targets := action.Targets(initial, kind)
		for _, target := range targets {
			for _, req := range requestsFor(kind, target.ID) {
				if _, err := s.reset(ctx, n); err != nil {
					return err
				}
				if _, err := s.run(ctx, r, n, req); err != nil {
					return err
				}
			}
		}
		log.Info("kind explored", "kind", kind, "targets", len(targets), "succeeded", r.Succeeded-before)
	}
	return nil
}

func requestsFor(kind action.Kind, targetID string) []action.Request {
	rule, _ := action.Lookup(kind)
	if !rule.NeedsLiquid {
		return []action.Request{{Kind: kind, TargetID: targetID}}
	}
	out := make([]action.Request, 0, len(action.Liquids()))
	for _, l := range action.Liquids() {
		out = append(out, action.Request{Kind: kind, TargetID: targetID, Liquid: l})
	}
	return out
}
