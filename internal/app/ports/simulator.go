package ports

import (
	"context"

	"thorplan/internal/domain/world"
)

// Simulator is the command interface of one environment instance. It is
// driven by one caller at a time.
type Simulator interface {
	Observe(ctx context.Context) (world.Snapshot, error)
	Step(ctx context.Context, cmd world.Command) (world.Snapshot, error)
	Reset(ctx context.Context, scene string) (world.Snapshot, error)
}
