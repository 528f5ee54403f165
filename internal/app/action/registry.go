package action

import (
	"context"
	"time"

	"thorplan/internal/app/ports"
	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
	"thorplan/internal/domain/world"
)

type ActionMode int

const (
	ActionModePlanned ActionMode = iota
	ActionModeShortcut
)

type ActionSpec struct {
	Kind    domainaction.Kind
	Mode    ActionMode
	Rule    domainaction.Rule
	Handler ActionHandler
}

type ActionHandler interface {
	Precheck(ctx context.Context, uc UseCase, ac *ActionContext) error
	BuildPlan(ctx context.Context, uc UseCase, ac *ActionContext) error
}

type ActionInput struct {
	Req       Request
	CycleID   string
	StartedAt time.Time
}

type ActionView struct {
	Spec   ActionSpec
	Before world.Snapshot
}

type ActionPlan struct {
	Document pddl.ProblemDocument
	Encoded  bool
	Raw      ports.RawPlan
	Steps    pddl.Plan
	Bindings map[string]pddl.Binding
	Attempts int
}

type ActionTmp struct {
	CounterChecked bool
	Executed       bool
	Execution      ExecutionResult
	After          world.Snapshot
	Report         *world.EffectReport
	Err            error
}

type ActionContext struct {
	In   ActionInput
	View ActionView
	Plan ActionPlan
	Tmp  ActionTmp
}

func actionRegistry() map[domainaction.Kind]ActionSpec {
	out := make(map[domainaction.Kind]ActionSpec, len(domainaction.Kinds()))
	for _, k := range domainaction.Kinds() {
		rule, _ := domainaction.Lookup(k)
		spec := ActionSpec{Kind: k, Mode: ActionModePlanned, Rule: rule, Handler: plannedHandler{}}
		switch k {
		case domainaction.KindDrop:
			spec.Mode, spec.Handler = ActionModeShortcut, dropHandler{}
		case domainaction.KindPut:
			spec.Mode, spec.Handler = ActionModeShortcut, putHandler{}
		}
		out[k] = spec
	}
	return out
}
