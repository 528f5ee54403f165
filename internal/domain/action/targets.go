package action

import (
	"sort"

	"thorplan/internal/domain/world"
)

// AllowedKinds lists the kinds that can be requested in s. Kinds needing a
// held object are left out while the hand is empty.
func AllowedKinds(s world.Snapshot) []Kind {
	holding := s.IsHolding()
	out := make([]Kind, 0, len(catalog))
	for _, k := range Kinds() {
		if catalog[k].NeedsHeld && !holding {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Targets returns the objects of s a request of kind k may target, sorted by
// identifier. Move has no object targets; see MoveTargets.
func Targets(s world.Snapshot, k Kind) []world.WorldObject {
	rule, ok := catalog[k]
	if !ok || !rule.NeedsTarget {
		return nil
	}
	out := make([]world.WorldObject, 0)
	for _, o := range s.Objects {
		req := Request{Kind: k, TargetID: o.ID}
		if Applicable(s, req) != nil {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func MoveTargets(s world.Snapshot) []world.Vector3 {
	return append([]world.Vector3(nil), s.ReachablePositions...)
}

// Expand turns a kind and its targets into concrete requests. Fill targets
// are paired with every liquid.
func Expand(s world.Snapshot, k Kind) []Request {
	rule, ok := catalog[k]
	if !ok {
		return nil
	}
	if k == KindMove {
		positions := MoveTargets(s)
		out := make([]Request, 0, len(positions))
		for i := range positions {
			p := positions[i]
			out = append(out, Request{Kind: k, Position: &p})
		}
		return out
	}
	targets := Targets(s, k)
	out := make([]Request, 0, len(targets))
	for _, t := range targets {
		if rule.NeedsLiquid {
			for _, l := range Liquids() {
				out = append(out, Request{Kind: k, TargetID: t.ID, Liquid: l})
			}
			continue
		}
		out = append(out, Request{Kind: k, TargetID: t.ID})
	}
	return out
}
