package action

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Rule is the catalog entry of one action kind.
type Rule struct {
	Kind  Kind
	Label string
	// Capability and State name the object flags the applicability
	// expression reads; Want is the state value that makes the kind applicable.
	Capability string
	State      string
	Want       bool
	Expression string
	// Family selects the domain file the kind is solved against.
	Family string
	// NeedsHeld kinds require an object in hand.
	NeedsHeld bool
	// Shortcut kinds are dispatched as one command without planning.
	Shortcut     bool
	NeedsTarget  bool
	NeedsLiquid  bool
	NeedsUtensil bool

	program *vm.Program
}

func flagRule(kind Kind, label, capability, state string, want bool) Rule {
	return Rule{
		Kind:        kind,
		Label:       label,
		Capability:  capability,
		State:       state,
		Want:        want,
		Expression:  fmt.Sprintf("%s == true && %s == %t", capability, state, want),
		Family:      string(kind),
		NeedsTarget: true,
	}
}

var catalog = mustBuildCatalog()

func mustBuildCatalog() map[Kind]Rule {
	rules := []Rule{
		{Kind: KindMove, Label: "Move Agent", Family: string(KindMove)},
		flagRule(KindPickup, "Pickup Object", "pickupable", "isPickedUp", false),
		flagRule(KindOpen, "Open Object", "openable", "isOpen", false),
		flagRule(KindClose, "Close Object", "openable", "isOpen", true),
		flagRule(KindBreak, "Break Object", "breakable", "isBroken", false),
		flagRule(KindCook, "Cook Object", "cookable", "isCooked", false),
		flagRule(KindSlice, "Slice Object", "sliceable", "isSliced", false),
		flagRule(KindToggleOn, "Toggle On Object", "toggleable", "isToggled", false),
		flagRule(KindToggleOff, "Toggle Off Object", "toggleable", "isToggled", true),
		flagRule(KindDirty, "Dirty Object", "dirtyable", "isDirty", false),
		flagRule(KindClean, "Clean Object", "dirtyable", "isDirty", true),
		flagRule(KindFill, "Fill Object", "canFillWithLiquid", "isFilledWithLiquid", false),
		flagRule(KindEmpty, "Empty Object", "canFillWithLiquid", "isFilledWithLiquid", true),
		flagRule(KindUseUp, "Use Up Object", "canBeUsedUp", "isUsedUp", false),
		flagRule(KindDrop, "Drop Object", "pickupable", "isPickedUp", true),
		{
			Kind:        KindPut,
			Label:       "Put Object",
			Capability:  "receptacle",
			Expression:  "receptacle == true",
			Family:      string(KindPut),
			NeedsTarget: true,
		},
	}

	out := make(map[Kind]Rule, len(rules))
	for _, r := range rules {
		switch r.Kind {
		case KindSlice:
			r.NeedsUtensil = true
		case KindFill:
			r.NeedsLiquid = true
		case KindDrop, KindPut:
			r.NeedsHeld = true
			r.Shortcut = true
		}
		if r.Expression != "" {
			program, err := expr.Compile(r.Expression, expr.Env(map[string]any{}), expr.AsBool(), expr.AllowUndefinedVariables())
			if err != nil {
				panic(fmt.Sprintf("compile applicability of %s: %v", r.Kind, err))
			}
			r.program = program
		}
		out[r.Kind] = r
	}
	return out
}

func Lookup(k Kind) (Rule, bool) {
	r, ok := catalog[k]
	return r, ok
}

// Matches evaluates the applicability expression against an object's flags.
func (r Rule) Matches(flags map[string]any) (bool, error) {
	if r.program == nil {
		return true, nil
	}
	out, err := expr.Run(r.program, flags)
	if err != nil {
		return false, fmt.Errorf("evaluate %s applicability: %w", r.Kind, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
