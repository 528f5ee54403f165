package explore

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	memsim "thorplan/internal/adapter/simulator/memory"
	appaction "thorplan/internal/app/action"
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

// stubRunner records requests. Pickups and fills are applied to the
// simulator so chained cycles see a changed world.
type stubRunner struct {
	sim      *memsim.Simulator
	requests []appaction.Request
	fail     func(appaction.Request) error
}

func (r *stubRunner) Execute(ctx context.Context, req appaction.Request) (appaction.Response, error) {
	r.requests = append(r.requests, req)
	if r.fail != nil {
		if err := r.fail(req); err != nil {
			return appaction.Response{Action: req.Action, Outcome: appaction.Classify(err)}, err
		}
	}
	if r.sim != nil {
		var cmd world.Command
		switch req.Action.Kind {
		case action.KindPickup:
			cmd = world.NewCommand("PickupObject", "objectId", req.Action.TargetID, "forceAction", true)
		case action.KindFill:
			cmd = world.NewCommand("FillObjectWithLiquid", "objectId", req.Action.TargetID, "fillLiquid", string(req.Action.Liquid), "forceAction", true)
		}
		if cmd.Action != "" {
			snap, err := r.sim.Step(ctx, cmd)
			if err != nil {
				return appaction.Response{}, err
			}
			if !snap.LastActionSuccess {
				err := &appaction.DispatchError{Action: cmd.Action, Message: snap.ErrorMessage}
				return appaction.Response{Action: req.Action, Outcome: appaction.Classify(err)}, err
			}
		}
	}
	return appaction.Response{Action: req.Action, Outcome: appaction.OutcomeOK}, nil
}

func base(sim *memsim.Simulator, runner CycleRunner) Base {
	return Base{Simulator: sim, Runner: runner, NewID: func() string { return "run-1" }}
}

func expectedShallowRequests() int {
	scene := memsim.DemoScene("FloorPlan1")
	total := 0
	for _, k := range explorableKinds(scene) {
		for _, t := range action.Targets(scene, k) {
			total += len(requestsFor(k, t.ID))
		}
	}
	return total
}

func TestShallow_RunsEveryTargetOnce(t *testing.T) {
	sim := memsim.New()
	runner := &stubRunner{}
	rep, err := Shallow{Base: base(sim, runner)}.Run(context.Background(), []int{1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := expectedShallowRequests()
	if len(runner.requests) != want || rep.Attempted != want || rep.Succeeded != want {
		t.Fatalf("expected %d cycles, got %d requests / report %d", want, len(runner.requests), rep.Attempted)
	}
	for _, req := range runner.requests {
		if req.Scene != "FloorPlan1" || req.SceneNumber != 1 {
			t.Fatalf("unexpected scene in %+v", req)
		}
		if req.Action.Kind == action.KindMove || req.Action.Kind == action.KindDrop || req.Action.Kind == action.KindPut {
			t.Fatalf("kind %s must not be explored from an empty hand", req.Action.Kind)
		}
	}
	fill := rep.ByKind[action.KindFill]
	if fill == nil || fill.Attempted != len(action.Liquids()) {
		t.Fatalf("expected fill tried once per liquid, got %+v", fill)
	}
	if rep.RunID != "run-1" || rep.Mode != "shallow" {
		t.Fatalf("unexpected report header %+v", rep)
	}
}

func TestShallow_CountsFailuresAndContinues(t *testing.T) {
	runner := &stubRunner{fail: func(appaction.Request) error {
		return &ports.PlannerTimedOutError{}
	}}
	rep, err := Shallow{Base: base(memsim.New(), runner)}.Run(context.Background(), []int{1, 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Succeeded != 0 || rep.Attempted != 2*expectedShallowRequests() {
		t.Fatalf("unexpected tallies %d/%d", rep.Succeeded, rep.Attempted)
	}
	if rep.ByKind[action.KindPickup].ByOutcome[string(appaction.OutcomeTimedOut)] == 0 {
		t.Fatalf("expected timed-out outcomes, got %+v", rep.ByKind[action.KindPickup])
	}
}

func TestShallow_SolverNotFoundAborts(t *testing.T) {
	runner := &stubRunner{fail: func(appaction.Request) error {
		return &ports.SolverNotFoundError{Path: "/nope/ff"}
	}}
	rep, err := Shallow{Base: base(memsim.New(), runner)}.Run(context.Background(), []int{1, 2})
	if !errors.Is(err, ports.ErrSolverNotFound) {
		t.Fatalf("expected solver not found, got %v", err)
	}
	if rep.Attempted != 1 || rep.Aborted == "" {
		t.Fatalf("expected abort after the first cycle, got %+v", rep)
	}
}

func TestShallow_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &stubRunner{fail: func(appaction.Request) error {
		cancel()
		return context.Canceled
	}}
	_, err := Shallow{Base: base(memsim.New(), runner)}.Run(ctx, []int{1})
	if !errors.Is(err, context.Canceled) || len(runner.requests) != 1 {
		t.Fatalf("expected cancel after one cycle, got %v with %d requests", err, len(runner.requests))
	}
}

func randomRun(t *testing.T, seed uint64) ([]appaction.Request, *Report) {
	t.Helper()
	sim := memsim.New()
	runner := &stubRunner{sim: sim}
	x := Random{
		Base:        base(sim, runner),
		Repetitions: 2,
		Depth:       3,
		Rand:        rand.New(rand.NewPCG(seed, seed)),
	}
	rep, err := x.Run(context.Background(), []int{1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return runner.requests, rep
}

func TestRandom_IsDeterministicForASeed(t *testing.T) {
	first, rep := randomRun(t, 7)
	second, _ := randomRun(t, 7)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different runs")
	}
	kinds := len(explorableKinds(memsim.DemoScene("FloorPlan1")))
	if len(first) == 0 || len(first) > kinds*2*3*len(action.Liquids()) {
		t.Fatalf("unexpected number of cycles %d", len(first))
	}
	if rep.Attempted != len(first) || rep.Mode != "random" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestRandom_ChainsFollowUpKindsOnUpdatedState(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		reqs, _ := randomRun(t, seed)
		for _, r := range reqs {
			if r.Action.Kind == action.KindDrop || r.Action.Kind == action.KindPut {
				return
			}
		}
	}
	t.Fatalf("no chain ever continued with a held-object kind after a pickup")
}

func TestRandom_FillUsesOneLiquidPerCycle(t *testing.T) {
	sawFill := false
	for seed := uint64(1); seed <= 20; seed++ {
		reqs, rep := randomRun(t, seed)
		fills := 0
		for i, r := range reqs {
			if r.Action.Kind != action.KindFill {
				continue
			}
			fills++
			if r.Action.Liquid == "" {
				t.Fatalf("seed %d: fill without liquid", seed)
			}
			if i > 0 && reqs[i-1].Action.Kind == action.KindFill && reqs[i-1].Action.TargetID == r.Action.TargetID {
				t.Fatalf("seed %d: %s filled twice in a row", seed, r.Action.TargetID)
			}
		}
		if fills == 0 {
			continue
		}
		sawFill = true
		tally := rep.ByKind[action.KindFill]
		if tally == nil || tally.Attempted != fills || tally.Succeeded != fills {
			t.Fatalf("seed %d: fill tally %+v for %d fills", seed, tally, fills)
		}
	}
	if !sawFill {
		t.Fatalf("no seed explored fill")
	}
}
