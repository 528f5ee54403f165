package observe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

var ErrInvalidRequest = errors.New("invalid observe request")

type UseCase struct {
	Simulator ports.Simulator
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	var kind action.Kind
	if strings.TrimSpace(req.Kind) != "" {
		k, err := action.ParseKind(req.Kind)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		kind = k
	}
	snap, err := u.Simulator.Observe(ctx)
	if err != nil {
		return Response{}, err
	}

	out := Response{
		Scene:        snap.SceneName,
		Agent:        snap.Agent,
		ObjectCount:  len(snap.Objects),
		LastAction:   snap.LastAction,
		LastSuccess:  snap.LastActionSuccess,
		AllowedKinds: allowedKinds(snap),
		Kind:         kind,
	}
	out.SceneNumber, _ = world.SceneNumber(snap.SceneName)
	if held, ok := snap.HeldObject(); ok {
		out.HeldObjectID = held.ID
	}
	if req.IncludeObjects {
		cp := snap.Clone()
		out.Snapshot = &cp
	}
	if kind == "" {
		return out, nil
	}

	if kind == action.KindMove {
		out.Positions = action.MoveTargets(snap)
	} else {
		out.Targets = make([]Target, 0)
		for _, o := range action.Targets(snap, kind) {
			pos, _ := o.Position()
			out.Targets = append(out.Targets, Target{
				ID:       o.ID,
				Type:     o.Type,
				Name:     o.Name(),
				Position: pos,
				Distance: o.Distance(),
				Visible:  o.Bool("visible"),
			})
		}
	}
	out.Requests = action.Expand(snap, kind)
	return out, nil
}

func allowedKinds(snap world.Snapshot) []AllowedKind {
	kinds := action.AllowedKinds(snap)
	out := make([]AllowedKind, 0, len(kinds))
	for _, k := range kinds {
		rule, _ := action.Lookup(k)
		out = append(out, AllowedKind{Kind: k, Label: rule.Label})
	}
	return out
}
