package action

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"thorplan/internal/app/ports"
	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
	"thorplan/internal/domain/world"
)

const navigateHorizon = 30.0

type StepResult struct {
	Step    pddl.Step     `json:"step"`
	Command world.Command `json:"command"`
}

// ExecutionResult is what one dispatch did. FailedStep is -1 when every step
// succeeded; Last is the most recent snapshot the simulator reported.
type ExecutionResult struct {
	FailedStep int            `json:"failed_step"`
	Completed  []StepResult   `json:"completed"`
	Last       world.Snapshot `json:"-"`
	Err        error          `json:"-"`
}

func (r ExecutionResult) OK() bool {
	return r.FailedStep < 0
}

type stepEnv struct {
	state    world.Snapshot
	bindings map[string]pddl.Binding
	liquid   domainaction.Liquid
}

func (e stepEnv) objectID(step pddl.Step, i int) (string, error) {
	if i >= len(step.Args) {
		return "", fmt.Errorf("%s needs %d arguments, got %d", step.Action, i+1, len(step.Args))
	}
	b, ok := e.bindings[step.Args[i]]
	if !ok || b.ObjectID == "" {
		return "", fmt.Errorf("unbound object symbol %q", step.Args[i])
	}
	return b.ObjectID, nil
}

type commandBuilder func(step pddl.Step, env stepEnv) (world.Command, error)

// stepCommands maps every plan action name onto exactly one simulator command.
var stepCommands = map[string]commandBuilder{
	"navigate":  navigateCommand,
	"moveto":    moveCommand,
	"pickup":    objectCommand("PickupObject"),
	"open":      objectCommand("OpenObject"),
	"close":     objectCommand("CloseObject"),
	"break":     objectCommand("BreakObject"),
	"cook":      objectCommand("CookObject"),
	"slice":     objectCommand("SliceObject"),
	"toggleon":  objectCommand("ToggleObjectOn"),
	"toggleoff": objectCommand("ToggleObjectOff"),
	"dirty":     objectCommand("DirtyObject"),
	"clean":     objectCommand("CleanObject"),
	"fill":      fillCommand,
	"empty":     objectCommand("EmptyLiquidFromObject"),
	"useup":     objectCommand("UseUpObject"),
	"drop":      dropCommand,
	"put":       putCommand,
}

func objectCommand(name string) commandBuilder {
	return func(step pddl.Step, env stepEnv) (world.Command, error) {
		id, err := env.objectID(step, 0)
		if err != nil {
			return world.Command{}, err
		}
		return world.NewCommand(name, "objectId", id, "forceAction", false), nil
	}
}

func fillCommand(step pddl.Step, env stepEnv) (world.Command, error) {
	id, err := env.objectID(step, 0)
	if err != nil {
		return world.Command{}, err
	}
	liquid := string(env.liquid)
	if liquid == "" && len(step.Args) > 1 {
		liquid = step.Args[1]
	}
	if _, err := domainaction.ParseLiquid(liquid); err != nil {
		return world.Command{}, err
	}
	return world.NewCommand("FillObjectWithLiquid", "objectId", id, "fillLiquid", liquid, "forceAction", false), nil
}

func dropCommand(_ pddl.Step, _ stepEnv) (world.Command, error) {
	return world.NewCommand("DropHandObject", "forceAction", false), nil
}

// putCommand checks the plan's held object against the hand and addresses
// the receptacle only.
func putCommand(step pddl.Step, env stepEnv) (world.Command, error) {
	held, err := env.objectID(step, 0)
	if err != nil {
		return world.Command{}, err
	}
	receptacle, err := env.objectID(step, 1)
	if err != nil {
		return world.Command{}, err
	}
	inHand, ok := env.state.HeldObject()
	if !ok || inHand.ID != held {
		return world.Command{}, fmt.Errorf("put expects %s in hand", held)
	}
	return world.PutObjectCommand(receptacle), nil
}

// navigateCommand teleports to the reachable position nearest the object,
// turned to face it.
func navigateCommand(step pddl.Step, env stepEnv) (world.Command, error) {
	id, err := env.objectID(step, 0)
	if err != nil {
		return world.Command{}, err
	}
	obj, ok := env.state.Object(id)
	if !ok {
		return world.Command{}, fmt.Errorf("object %s not in world state", id)
	}
	target, ok := obj.Position()
	if !ok {
		return world.Command{}, fmt.Errorf("object %s has no position", id)
	}
	pos, ok := env.state.NearestReachable(target)
	if !ok {
		return world.Command{}, fmt.Errorf("no reachable positions known")
	}
	return teleport(pos, facing(pos, target)), nil
}

func moveCommand(step pddl.Step, env stepEnv) (world.Command, error) {
	if len(step.Args) == 0 {
		return world.Command{}, fmt.Errorf("moveto needs a position argument")
	}
	b, ok := env.bindings[step.Args[len(step.Args)-1]]
	if !ok || b.Position == nil {
		return world.Command{}, fmt.Errorf("unbound position symbol %q", step.Args[len(step.Args)-1])
	}
	return teleport(*b.Position, env.state.Agent.Rotation.Y), nil
}

func teleport(pos world.Vector3, yaw float64) world.Command {
	return world.NewCommand("TeleportFull",
		"position", pos,
		"rotation", world.Vector3{Y: yaw},
		"horizon", navigateHorizon,
		"standing", true,
	)
}

func facing(from, to world.Vector3) float64 {
	yaw := math.Atan2(to.X-from.X, to.Z-from.Z) * 180 / math.Pi
	if yaw < 0 {
		yaw += 360
	}
	return math.Round(yaw*10) / 10
}

// Dispatcher issues the simulator commands of a plan in order and stops at
// the first step the simulator rejects.
type Dispatcher struct {
	Simulator ports.Simulator
	Logger    *slog.Logger
}

func (d Dispatcher) Dispatch(ctx context.Context, plan pddl.Plan, bindings map[string]pddl.Binding, state world.Snapshot, liquid domainaction.Liquid) ExecutionResult {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := ExecutionResult{FailedStep: -1, Last: state}
	for i, step := range plan.Steps {
		build, ok := stepCommands[step.Action]
		if !ok {
			return out.fail(i, &DispatchError{Step: i, Action: step.Action, Message: "no simulator command for action"})
		}
		cmd, err := build(step, stepEnv{state: out.Last, bindings: bindings, liquid: liquid})
		if err != nil {
			return out.fail(i, &DispatchError{Step: i, Action: step.Action, Message: err.Error()})
		}
		snap, err := d.Simulator.Step(ctx, cmd)
		if err != nil {
			return out.fail(i, fmt.Errorf("step %d (%s): %w", i, step.Action, err))
		}
		out.Last = snap
		if !snap.LastActionSuccess {
			logger.Warn("simulator rejected step", "step", i, "action", step.Action, "command", cmd.Action, "error", snap.ErrorMessage)
			return out.fail(i, &DispatchError{Step: i, Action: step.Action, Message: snap.ErrorMessage})
		}
		out.Completed = append(out.Completed, StepResult{Step: step, Command: cmd})
	}
	return out
}

func (r ExecutionResult) fail(step int, err error) ExecutionResult {
	r.FailedStep = step
	r.Err = err
	return r
}
