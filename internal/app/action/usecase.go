package action

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/pddl"
)

const DefaultSolveDeadline = time.Second

// UseCase runs one action request through encode, solve, decode, dispatch
// and diff against a single simulator.
type UseCase struct {
	TxManager ports.TxManager
	// Serial holds the simulator for a whole cycle. Leave nil when the
	// TxManager already serializes cycles.
	Serial    sync.Locker
	Simulator ports.Simulator
	Solver    ports.Solver
	Encoder   pddl.Encoder
	Decoder   pddl.Decoder
	Records   ports.ActionRecordRepository
	Metrics   ports.ActionMetrics
	Tracer    ports.CycleTracer
	Logger    *slog.Logger

	Search        ports.SearchConfig
	Deadline      time.Duration
	SolveAttempts int

	Now   func() time.Time
	NewID func() string
}

// Execute always returns a Response; its Outcome names the failure kind when
// err is non-nil.
func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	ac, err := u.ValidateRequest(req)
	if err != nil {
		out := u.BuildResponse(&ac, err)
		u.recordMetrics(ac, out)
		return out, err
	}
	ac.In.StartedAt = u.now()
	ac.In.CycleID = u.newID()

	if u.Serial != nil {
		u.Serial.Lock()
		defer u.Serial.Unlock()
	}
	txErr := u.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		ac.Tmp.Err = u.runCycle(txCtx, &ac)
		if !ac.Tmp.Executed {
			return nil
		}
		return u.Persist(txCtx, &ac)
	})
	err = ac.Tmp.Err
	if txErr != nil {
		err = errors.Join(err, txErr)
	}

	out := u.BuildResponse(&ac, err)
	u.recordMetrics(ac, out)
	u.trace(ctx, ac, out)
	u.logger().Info("cycle finished",
		"cycle", out.CycleID,
		"scene", out.Scene,
		"counter", out.Counter,
		"kind", out.Action.Kind,
		"target", out.Action.TargetID,
		"outcome", out.Outcome,
		"elapsed", out.Elapsed,
	)
	return out, err
}

func (u UseCase) runCycle(ctx context.Context, ac *ActionContext) error {
	// A known scene lets a duplicate counter fail before the simulator is
	// reset or observed.
	if ac.In.Req.SceneNumber > 0 {
		if err := u.CheckCounter(ctx, ac); err != nil {
			return err
		}
	}
	if err := u.CaptureBefore(ctx, ac); err != nil {
		return err
	}
	if err := u.ResolveSpec(ac); err != nil {
		return err
	}
	if err := u.AssignCounter(ctx, ac); err != nil {
		return err
	}
	if err := u.RunPrechecks(ctx, ac); err != nil {
		return err
	}
	if err := u.BuildPlan(ctx, ac); err != nil {
		return err
	}
	u.DispatchPlan(ctx, ac)
	if err := u.CaptureAfter(ctx, ac); err != nil {
		return err
	}
	return ac.Tmp.Execution.Err
}

func (u UseCase) recordMetrics(ac ActionContext, out Response) {
	if u.Metrics == nil {
		return
	}
	if out.Outcome == OutcomeOK {
		u.Metrics.RecordSuccess(ac.In.Req.Action.Kind)
		return
	}
	u.Metrics.RecordFailure(ac.In.Req.Action.Kind, string(out.Outcome))
}

func (u UseCase) logger() *slog.Logger {
	if u.Logger != nil {
		return u.Logger
	}
	return slog.Default()
}

func (u UseCase) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

func (u UseCase) newID() string {
	if u.NewID != nil {
		return u.NewID()
	}
	return uuid.NewString()
}
