package action

import (
	"context"
	"sort"
	"time"

	"thorplan/internal/app/ports"
	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

const pickupOutput = `ff: parsing domain file
ff: found legal plan as follows

step    0: BASICACTION-PICKUP PICKUP MUG_1

time spent:    0.00 seconds instantiating 1 easy, 0 hard action templates
`

type stubTxManager struct{}

func (stubTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type solveResult struct {
	raw ports.RawPlan
	err error
}

// stubSolver replays results in order and repeats the last one.
type stubSolver struct {
	results  []solveResult
	requests []ports.SolveRequest
}

func (s *stubSolver) Solve(_ context.Context, req ports.SolveRequest) (ports.RawPlan, error) {
	s.requests = append(s.requests, req)
	if len(s.results) == 0 {
		return ports.RawPlan{}, nil
	}
	i := len(s.requests) - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	r := s.results[i]
	return r.raw, r.err
}

func solvedWith(text string) *stubSolver {
	return &stubSolver{results: []solveResult{{raw: ports.RawPlan{Text: text, ProblemPath: "/work/problems/problem1.pddl"}}}}
}

type stubRecords struct {
	saved []ports.ActionRecord
}

func (r *stubRecords) Save(_ context.Context, rec ports.ActionRecord) error {
	for _, existing := range r.saved {
		if existing.SceneNumber == rec.SceneNumber && existing.ActionCounter == rec.ActionCounter {
			return ports.ErrConflict
		}
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *stubRecords) Get(_ context.Context, scene, counter int) (ports.ActionRecord, error) {
	for _, rec := range r.saved {
		if rec.SceneNumber == scene && rec.ActionCounter == counter {
			return rec, nil
		}
	}
	return ports.ActionRecord{}, ports.ErrNotFound
}

func (r *stubRecords) List(_ context.Context, filter ports.RecordFilter) ([]ports.ActionRecord, error) {
	out := make([]ports.ActionRecord, 0)
	for _, rec := range r.saved {
		if filter.SceneNumber != 0 && rec.SceneNumber != filter.SceneNumber {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionCounter > out[j].ActionCounter })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type stubMetrics struct {
	success []domainaction.Kind
	failure []string
}

func (m *stubMetrics) RecordSuccess(kind domainaction.Kind) {
	m.success = append(m.success, kind)
}

func (m *stubMetrics) RecordFailure(kind domainaction.Kind, outcome string) {
	m.failure = append(m.failure, string(kind)+":"+outcome)
}

type stubTracer struct {
	traces []ports.CycleTrace
}

func (t *stubTracer) Trace(_ context.Context, trace ports.CycleTrace) error {
	t.traces = append(t.traces, trace)
	return nil
}

// recordingSimulator accepts every command and fails the ones listed in
// reject.
type recordingSimulator struct {
	state    world.Snapshot
	commands []world.Command
	reject   map[string]string
}

func (s *recordingSimulator) Observe(context.Context) (world.Snapshot, error) {
	return s.state.Clone(), nil
}

func (s *recordingSimulator) Reset(_ context.Context, scene string) (world.Snapshot, error) {
	s.state.SceneName = scene
	return s.state.Clone(), nil
}

func (s *recordingSimulator) Step(_ context.Context, cmd world.Command) (world.Snapshot, error) {
	s.commands = append(s.commands, cmd)
	next := s.state.Clone()
	next.LastAction = cmd.Action
	next.LastActionSuccess = true
	next.ErrorMessage = ""
	if msg, ok := s.reject[cmd.Action]; ok {
		next.LastActionSuccess = false
		next.ErrorMessage = msg
	}
	s.state = next
	return next.Clone(), nil
}

func newObject(id, typ string, pos world.Vector3, flags map[string]any) world.WorldObject {
	props := map[string]world.Property{"position": world.VectorProperty(pos)}
	for k, v := range flags {
		props[k] = world.FromValue(v)
	}
	return world.WorldObject{ID: id, Type: typ, Props: props}
}

func mugScene() world.Snapshot {
	return world.Snapshot{
		SceneName: "FloorPlan1",
		Objects: []world.WorldObject{
			newObject("Mug_1", "Mug", world.Vector3{X: 0.5, Y: 0.9, Z: 0.5}, map[string]any{
				"pickupable": true, "isPickedUp": false, "receptacle": true,
				"parentReceptacles": []any{"CounterTop_1"},
			}),
			newObject("CounterTop_1", "CounterTop", world.Vector3{X: 0.75, Y: 0.9, Z: 0.5}, map[string]any{
				"receptacle": true,
			}),
			newObject("Fridge_1", "Fridge", world.Vector3{X: 1.0, Y: 0.9, Z: 0.0}, map[string]any{
				"openable": true, "isOpen": true, "receptacle": true,
			}),
		},
		Agent:             world.AgentPose{Position: world.Vector3{Y: 0.9}, IsStanding: true},
		LastActionSuccess: true,
	}
}

func fixedClock() func() time.Time {
	t := time.Unix(1700000000, 0).UTC()
	return func() time.Time {
		t = t.Add(10 * time.Millisecond)
		return t
	}
}

func fixedIDs() func() string {
	return func() string { return "cycle-1" }
}
