package action

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/pddl"
	"thorplan/internal/domain/world"
)

func (u UseCase) ValidateRequest(req Request) (ActionContext, error) {
	req.Scene = strings.TrimSpace(req.Scene)
	req.Action = req.Action.Normalize()
	if req.Scene == "" && req.SceneNumber > 0 {
		req.Scene = world.SceneName(req.SceneNumber)
	}
	if req.SceneNumber == 0 {
		req.SceneNumber, _ = world.SceneNumber(req.Scene)
	}
	ac := ActionContext{In: ActionInput{Req: req}}

	if req.Counter < 0 {
		return ac, fmt.Errorf("%w: negative counter", ErrInvalidRequest)
	}
	if req.Reset && req.Scene == "" {
		return ac, fmt.Errorf("%w: reset requires a scene", ErrInvalidRequest)
	}
	if err := req.Action.Validate(); err != nil {
		return ac, err
	}
	return ac, nil
}

func (u UseCase) CaptureBefore(ctx context.Context, ac *ActionContext) error {
	var (
		snap world.Snapshot
		err  error
	)
	if ac.In.Req.Reset {
		snap, err = u.Simulator.Reset(ctx, ac.In.Req.Scene)
	} else {
		snap, err = u.Simulator.Observe(ctx)
	}
	if err != nil {
		return fmt.Errorf("capture world state: %w", err)
	}
	req := &ac.In.Req
	switch {
	case req.Scene == "":
		req.Scene = snap.SceneName
		req.SceneNumber, _ = world.SceneNumber(snap.SceneName)
	case snap.SceneName != "" && snap.SceneName != req.Scene:
		return fmt.Errorf("%w: simulator has %s loaded, not %s", ErrInvalidRequest, snap.SceneName, req.Scene)
	}
	ac.View.Before = snap
	return nil
}

func (u UseCase) ResolveSpec(ac *ActionContext) error {
	spec, ok := actionRegistry()[ac.In.Req.Action.Kind]
	if !ok {
		return ErrInvalidRequest
	}
	ac.View.Spec = spec
	return nil
}

// CheckCounter rejects an explicit counter that already has a record.
func (u UseCase) CheckCounter(ctx context.Context, ac *ActionContext) error {
	req := ac.In.Req
	if req.Counter == 0 || u.Records == nil || ac.Tmp.CounterChecked {
		return nil
	}
	_, err := u.Records.Get(ctx, req.SceneNumber, req.Counter)
	switch {
	case err == nil:
		return fmt.Errorf("%w: scene %d already has action %d", ports.ErrConflict, req.SceneNumber, req.Counter)
	case errors.Is(err, ports.ErrNotFound):
		ac.Tmp.CounterChecked = true
		return nil
	default:
		return fmt.Errorf("check counter: %w", err)
	}
}

// AssignCounter picks the next counter of the scene when none was given.
func (u UseCase) AssignCounter(ctx context.Context, ac *ActionContext) error {
	if ac.In.Req.Counter > 0 {
		return u.CheckCounter(ctx, ac)
	}
	ac.In.Req.Counter = 1
	if u.Records == nil {
		return nil
	}
	latest, err := u.Records.List(ctx, ports.RecordFilter{SceneNumber: ac.In.Req.SceneNumber, Limit: 1})
	if err != nil {
		return fmt.Errorf("next counter: %w", err)
	}
	if len(latest) > 0 {
		ac.In.Req.Counter = latest[0].ActionCounter + 1
	}
	return nil
}

func (u UseCase) RunPrechecks(ctx context.Context, ac *ActionContext) error {
	return ac.View.Spec.Handler.Precheck(ctx, u, ac)
}

func (u UseCase) BuildPlan(ctx context.Context, ac *ActionContext) error {
	return ac.View.Spec.Handler.BuildPlan(ctx, u, ac)
}

// solve retries only on timeout, doubling the deadline each time.
func (u UseCase) solve(ctx context.Context, ac *ActionContext) (ports.RawPlan, int, error) {
	if u.Solver == nil {
		return ports.RawPlan{}, 0, errors.New("no solver configured")
	}
	attempts := u.SolveAttempts
	if attempts < 1 {
		attempts = 1
	}
	deadline := u.Deadline
	if deadline <= 0 {
		deadline = DefaultSolveDeadline
	}
	req := ports.SolveRequest{
		Problem: ac.Plan.Document,
		Domain:  ports.DomainRef{Name: pddl.DomainFile(ac.In.Req.Action.Kind, u.Encoder.Unified)},
		Search:  u.Search,
		Counter: ac.In.Req.Counter,
	}
	for attempt := 1; ; attempt++ {
		req.Deadline = deadline
		raw, err := u.Solver.Solve(ctx, req)
		if err == nil || attempt >= attempts || !errors.Is(err, ports.ErrPlannerTimedOut) {
			return raw, attempt, err
		}
		u.logger().Warn("solver timed out, retrying",
			"cycle", ac.In.CycleID,
			"attempt", attempt,
			"deadline", deadline,
			"problem", ac.Plan.Document.Name,
		)
		deadline *= 2
	}
}

func (u UseCase) DispatchPlan(ctx context.Context, ac *ActionContext) {
	d := Dispatcher{Simulator: u.Simulator, Logger: u.logger()}
	ac.Tmp.Execution = d.Dispatch(ctx, ac.Plan.Steps, ac.Plan.Bindings, ac.View.Before, ac.In.Req.Action.Liquid)
	ac.Tmp.Executed = true
}

// CaptureAfter diffs the last reported snapshot against the before snapshot.
func (u UseCase) CaptureAfter(_ context.Context, ac *ActionContext) error {
	before, after := ac.View.Before, ac.Tmp.Execution.Last
	ac.Tmp.After = after

	changes, err := world.Diff(before, after)
	if err != nil {
		return fmt.Errorf("diff world state: %w", err)
	}
	report := &world.EffectReport{
		Before:        before,
		After:         after,
		TargetID:      ac.In.Req.Action.TargetID,
		TargetChanges: []world.ChangePath{},
		Changes:       changes,
	}
	if report.TargetID != "" {
		paths, err := world.DiffObject(before, after, report.TargetID)
		if err != nil {
			return fmt.Errorf("diff target: %w", err)
		}
		if paths != nil {
			report.TargetChanges = paths
		}
	}
	ac.Tmp.Report = report
	return nil
}

func (u UseCase) Persist(ctx context.Context, ac *ActionContext) error {
	if u.Records == nil {
		return nil
	}
	before, err := json.Marshal(ac.View.Before)
	if err != nil {
		return fmt.Errorf("encode before world status: %w", err)
	}
	after, err := json.Marshal(ac.Tmp.After)
	if err != nil {
		return fmt.Errorf("encode after world status: %w", err)
	}
	req := ac.In.Req
	rec := ports.ActionRecord{
		CycleID:           ac.In.CycleID,
		SceneNumber:       req.SceneNumber,
		ActionName:        ac.View.Spec.Rule.Label,
		ActionCounter:     req.Counter,
		Problem:           string(req.Action.Kind),
		ProblemPath:       ac.Plan.Raw.ProblemPath,
		ActionObjectiveID: req.Action.TargetID,
		Liquid:            string(req.Action.Liquid),
		Outcome:           string(Classify(ac.Tmp.Err)),
		BeforeWorldStatus: before,
		AfterWorldStatus:  after,
		RecordedAt:        u.now(),
	}
	if ac.Tmp.Report != nil {
		rec.TargetChanges = ac.Tmp.Report.TargetChanges
	}
	if err := u.Records.Save(ctx, rec); err != nil {
		return fmt.Errorf("save action record: %w", err)
	}
	return nil
}

func (u UseCase) BuildResponse(ac *ActionContext, err error) Response {
	req := ac.In.Req
	out := Response{
		CycleID:     ac.In.CycleID,
		Scene:       req.Scene,
		SceneNumber: req.SceneNumber,
		Counter:     req.Counter,
		Action:      req.Action,
		Outcome:     Classify(err),
		ProblemPath: ac.Plan.Raw.ProblemPath,
		Attempts:    ac.Plan.Attempts,
		Report:      ac.Tmp.Report,
	}
	if err != nil {
		out.Error = err.Error()
	}
	if !ac.In.StartedAt.IsZero() {
		out.Elapsed = u.now().Sub(ac.In.StartedAt)
	}
	if ac.Plan.Encoded {
		out.Problem = string(ac.Plan.Document.Render())
	}
	if ac.Tmp.Executed || ac.Plan.Steps.Steps != nil {
		plan := ac.Plan.Steps
		out.Plan = &plan
	}
	if ac.Tmp.Executed {
		exec := ac.Tmp.Execution
		out.Execution = &exec
	}
	return out
}

func (u UseCase) trace(ctx context.Context, ac ActionContext, out Response) {
	if u.Tracer == nil {
		return
	}
	t := ports.CycleTrace{
		CycleID:     out.CycleID,
		Scene:       out.Scene,
		Counter:     out.Counter,
		Kind:        string(out.Action.Kind),
		TargetID:    out.Action.TargetID,
		Outcome:     string(out.Outcome),
		Problem:     out.Problem,
		RawPlan:     ac.Plan.Raw.Text,
		FailedStep:  -1,
		Attempts:    out.Attempts,
		Elapsed:     out.Elapsed,
		Error:       out.Error,
		CompletedAt: u.now(),
	}
	if ac.Plan.Encoded {
		t.Digest = ac.Plan.Document.Digest()
	}
	for _, s := range ac.Plan.Steps.Steps {
		t.Steps = append(t.Steps, s.Action+" "+strings.Join(s.Args, " "))
	}
	if ac.Tmp.Executed {
		t.FailedStep = ac.Tmp.Execution.FailedStep
	}
	if err := u.Tracer.Trace(ctx, t); err != nil {
		u.logger().Warn("trace cycle failed", "cycle", out.CycleID, "error", err)
	}
}
