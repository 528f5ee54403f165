package explore

import (
	"context"
	"math/rand/v2"

	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

// Random starts from each allowed kind of a scene and chains Depth cycles:
// a random target for the current kind, then a random follow-up kind chosen
// from the world state the cycle left behind. Fill uses one random liquid per
// cycle. Each of the Repetitions chains starts from a freshly loaded scene.
type Random struct {
	Base
	Repetitions int
	Depth       int
	Rand        *rand.Rand
}

func (x Random) Run(ctx context.Context, scenes []int) (*Report, error) {
	if x.Rand == nil {
		x.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if x.Repetitions < 1 {
		x.Repetitions = 1
	}
	if x.Depth < 1 {
		x.Depth = 1
	}
	r := x.begin("random", scenes)
	for _, n := range scenes {
		if err := x.scene(ctx, r, n); err != nil {
			return x.finish(r, err)
		}
	}
	return x.finish(r, nil)
}

func (x Random) scene(ctx context.Context, r *Report, n int) error {
	initial, err := x.reset(ctx, n)
	if err != nil {
		return err
	}
	log := x.logger().With("scene", n)
	log.Info("exploring scene", "objects", len(initial.Objects), "repetitions", x.Repetitions, "depth", x.Depth)

	for _, kind := range explorableKinds(initial) {
		before := r.Succeeded
		for rep := 0; rep < x.Repetitions; rep++ {
			state, err := x.reset(ctx, n)
			if err != nil {
				return err
			}
			if err := x.chain(ctx, r, n, kind, state); err != nil {
				return err
			}
		}
		log.Info("kind explored", "kind", kind, "succeeded", r.Succeeded-before)
	}
	return nil
}

func (x Random) chain(ctx context.Context, r *Report, n int, kind action.Kind, state world.Snapshot) error {
	for step := 0; step < x.Depth; step++ {
		if targets := action.Targets(state, kind); len(targets) > 0 {
			target := targets[x.Rand.IntN(len(targets))]
			if _, err := x.run(ctx, r, n, x.request(kind, target.ID)); err != nil {
				return err
			}
			next, err := x.Simulator.Observe(ctx)
			if err != nil {
				return err
			}
			state = next
		}
		kinds := explorableKinds(state)
		if len(kinds) == 0 {
			return nil
		}
		kind = kinds[x.Rand.IntN(len(kinds))]
	}
	return nil
}

// request draws one liquid for fill so a chain never refills a target it
// just filled.
func (x Random) request(kind action.Kind, targetID string) action.Request {
	reqs := requestsFor(kind, targetID)
	return reqs[x.Rand.IntN(len(reqs))]
}
