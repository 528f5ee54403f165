// Package explore drives many pipeline cycles over a range of scenes,
// recording one action record per executed request.
package explore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appaction "thorplan/internal/app/action"
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

// CycleRunner runs one pipeline cycle; *appaction.UseCase and
// appaction.UseCase satisfy it.
type CycleRunner interface {
	Execute(ctx context.Context, req appaction.Request) (appaction.Response, error)
}

// Base holds what both drivers share.
type Base struct {
	Simulator ports.Simulator
	Runner    CycleRunner
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

func (b Base) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b Base) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Base) begin(mode string, scenes []int) *Report {
	id := uuid.NewString()
	if b.NewID != nil {
		id = b.NewID()
	}
	r := newReport(id, mode, b.now())
	r.Scenes = append([]int(nil), scenes...)
	return r
}

func (b Base) finish(r *Report, err error) (*Report, error) {
	r.Elapsed = b.now().Sub(r.StartedAt)
	if err != nil {
		r.Aborted = err.Error()
	}
	b.logger().Info("exploration finished",
		"run", r.RunID,
		"mode", r.Mode,
		"attempted", r.Attempted,
		"succeeded", r.Succeeded,
		"elapsed", r.Elapsed,
	)
	return r, err
}

// reset reloads scene n and returns its initial state.
func (b Base) reset(ctx context.Context, n int) (world.Snapshot, error) {
	snap, err := b.Simulator.Reset(ctx, world.SceneName(n))
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("reset scene %d: %w", n, err)
	}
	return snap, nil
}

// run executes one request and tallies it. Only errors that make further
// cycles pointless are returned.
func (b Base) run(ctx context.Context, r *Report, scene int, req action.Request) (appaction.Response, error) {
	resp, err := b.Runner.Execute(ctx, appaction.Request{
		Scene:       world.SceneName(scene),
		SceneNumber: scene,
		Action:      req,
	})
	r.add(req.Kind, resp.Outcome)
	if err == nil {
		return resp, nil
	}
	b.logger().Debug("cycle failed",
		"scene", scene,
		"counter", resp.Counter,
		"kind", req.Kind,
		"target", req.TargetID,
		"outcome", resp.Outcome,
		"error", err,
	)
	return resp, fatal(ctx, err)
}

func fatal(ctx context.Context, err error) error {
	if errors.Is(err, ports.ErrSolverNotFound) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return nil
}

// explorableKinds are the allowed kinds of s except move.
func explorableKinds(s world.Snapshot) []action.Kind {
	out := make([]action.Kind, 0)
	for _, k := range action.AllowedKinds(s) {
		if k != action.KindMove {
			out = append(out, k)
		}
	}
	return out
}
