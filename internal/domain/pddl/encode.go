package pddl

import (
	"fmt"
	"sort"

	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

// UnifiedDomainName is the domain every problem targets when the single
// household domain file is used instead of one file per action family.
const UnifiedDomainName = "household"

var defaultUtensils = []string{"Knife", "ButterKnife"}

// flagPredicates projects boolean object properties onto domain predicates.
var flagPredicates = []struct {
	prop string
	pred string
}{
	{"visible", "near"},
	{"pickupable", "pickupable"},
	{"isPickedUp", "holding"},
	{"openable", "openable"},
	{"isOpen", "is-open"},
	{"breakable", "breakable"},
	{"isBroken", "is-broken"},
	{"cookable", "cookable"},
	{"isCooked", "is-cooked"},
	{"sliceable", "sliceable"},
	{"isSliced", "is-sliced"},
	{"toggleable", "toggleable"},
	{"isToggled", "is-toggled"},
	{"dirtyable", "dirtyable"},
	{"isDirty", "is-dirty"},
	{"canFillWithLiquid", "fillable"},
	{"isFilledWithLiquid", "is-filled"},
	{"canBeUsedUp", "usable"},
	{"isUsedUp", "is-used-up"},
	{"receptacle", "receptacle"},
}

var goals = map[action.Kind]func(target, held string, liquid action.Liquid) string{
	action.KindPickup:    func(t, _ string, _ action.Liquid) string { return "(holding " + t + ")" },
	action.KindOpen:      func(t, _ string, _ action.Liquid) string { return "(is-open " + t + ")" },
	action.KindClose:     func(t, _ string, _ action.Liquid) string { return "(not (is-open " + t + "))" },
	action.KindBreak:     func(t, _ string, _ action.Liquid) string { return "(is-broken " + t + ")" },
	action.KindCook:      func(t, _ string, _ action.Liquid) string { return "(is-cooked " + t + ")" },
	action.KindSlice:     func(t, _ string, _ action.Liquid) string { return "(is-sliced " + t + ")" },
	action.KindToggleOn:  func(t, _ string, _ action.Liquid) string { return "(is-toggled " + t + ")" },
	action.KindToggleOff: func(t, _ string, _ action.Liquid) string { return "(not (is-toggled " + t + "))" },
	action.KindDirty:     func(t, _ string, _ action.Liquid) string { return "(is-dirty " + t + ")" },
	action.KindClean:     func(t, _ string, _ action.Liquid) string { return "(not (is-dirty " + t + "))" },
	action.KindFill:      func(t, _ string, l action.Liquid) string { return "(filled-with " + t + " " + string(l) + ")" },
	action.KindEmpty:     func(t, _ string, _ action.Liquid) string { return "(not (is-filled " + t + "))" },
	action.KindUseUp:     func(t, _ string, _ action.Liquid) string { return "(is-used-up " + t + ")" },
	action.KindDrop:      func(t, _ string, _ action.Liquid) string { return "(not (holding " + t + "))" },
	action.KindPut:       func(t, h string, _ action.Liquid) string { return "(in " + h + " " + t + ")" },
}

// Encoder turns a world state and a request into a problem document.
type Encoder struct {
	// Unified targets the single household domain instead of the per-family
	// domain of the request's kind.
	Unified bool
	// Utensils lists the object types that can slice. Defaults to knives.
	Utensils []string
}

func Encode(s world.Snapshot, req action.Request) (ProblemDocument, error) {
	return Encoder{}.Encode(s, req)
}

func (e Encoder) DomainName(k action.Kind) string {
	if e.Unified {
		return UnifiedDomainName
	}
	rule, _ := action.Lookup(k)
	return rule.Family
}

func (e Encoder) Encode(s world.Snapshot, req action.Request) (ProblemDocument, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return ProblemDocument{}, &EncodingError{Kind: req.Kind, TargetID: req.TargetID, Reason: "invalid request", Err: err}
	}
	if err := action.Applicable(s, req); err != nil {
		return ProblemDocument{}, &EncodingError{Kind: req.Kind, TargetID: req.TargetID, Reason: "target fails applicability", Err: err}
	}
	if req.Kind == action.KindMove {
		return e.encodeMove(s, req), nil
	}
	return e.encodeObject(s, req)
}

func (e Encoder) encodeMove(s world.Snapshot, req action.Request) ProblemDocument {
	p := *req.Position
	sym := positionSymbol(p)
	doc := ProblemDocument{
		Name:     "move-" + sym,
		Domain:   e.DomainName(req.Kind),
		Kind:     req.Kind,
		Objects:  []TypedSymbol{{Symbol: sym, Type: typePosition}},
		Init:     []string{"(reachable " + sym + ")", "(= (total-cost) 0)"},
		Goal:     []string{"(agent-at " + sym + ")"},
		Metric:   defaultMetric,
		Bindings: map[string]Binding{sym: {Position: &p}},
	}
	if s.Agent.Position.SameFloorPoint(p) {
		doc.Init = append(doc.Init, "(agent-at "+sym+")")
	}
	doc.sortParts()
	return doc
}

func (e Encoder) encodeObject(s world.Snapshot, req action.Request) (ProblemDocument, error) {
	rule, _ := action.Lookup(req.Kind)
	target, _ := s.Object(req.TargetID)
	held, holding := s.HeldObject()

	fail := func(reason string) (ProblemDocument, error) {
		return ProblemDocument{}, &EncodingError{Kind: req.Kind, TargetID: req.TargetID, Reason: reason}
	}

	included := map[string]world.WorldObject{target.ID: target}
	if holding {
		included[held.ID] = held
	}
	switch {
	case req.Kind == action.KindPickup && holding:
		return fail("hand already holds " + held.ID)
	case rule.NeedsUtensil:
		knives := e.utensils(s)
		if len(knives) == 0 {
			return fail("no knife in scene")
		}
		if holding && !e.isUtensil(held) {
			return fail("hand holds " + held.ID + " instead of a knife")
		}
		for _, k := range knives {
			included[k.ID] = k
		}
	}

	ids := make([]string, 0, len(included))
	for id := range included {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := newSymbolTable()
	symbols := make(map[string]string, len(ids))
	doc := ProblemDocument{
		Domain:   e.DomainName(req.Kind),
		Kind:     req.Kind,
		Metric:   defaultMetric,
		Bindings: make(map[string]Binding, len(ids)),
	}
	for _, id := range ids {
		sym := table.assign(id)
		symbols[id] = sym
		doc.Objects = append(doc.Objects, TypedSymbol{Symbol: sym, Type: typeObject})
		doc.Bindings[sym] = Binding{ObjectID: id}
	}
	for _, id := range ids {
		doc.Init = append(doc.Init, e.project(included[id], symbols)...)
	}
	if !holding {
		doc.Init = append(doc.Init, "(hand-empty)")
	}
	doc.Init = append(doc.Init, "(= (total-cost) 0)")

	heldSym := ""
	if holding {
		heldSym = symbols[held.ID]
	}
	doc.Goal = []string{goals[req.Kind](symbols[target.ID], heldSym, req.Liquid)}
	doc.Name = fmt.Sprintf("%s-%s", req.Kind, symbols[target.ID])
	doc.sortParts()
	return doc, nil
}

func (e Encoder) project(o world.WorldObject, symbols map[string]string) []string {
	sym := symbols[o.ID]
	out := make([]string, 0, 8)
	for _, fp := range flagPredicates {
		if o.Bool(fp.prop) {
			out = append(out, "("+fp.pred+" "+sym+")")
		}
	}
	if e.isUtensil(o) {
		out = append(out, "(knife "+sym+")")
	}
	if l, err := action.ParseLiquid(o.String("fillLiquid")); err == nil && o.Bool("isFilledWithLiquid") {
		out = append(out, "(filled-with "+sym+" "+string(l)+")")
	}
	for _, parent := range parentReceptacles(o) {
		if psym, ok := symbols[parent]; ok {
			out = append(out, "(in "+sym+" "+psym+")")
		}
	}
	if d, ok := o.Number("distance"); ok {
		out = append(out, "(= (distance "+sym+") "+formatNumber(d)+")")
	} else {
		out = append(out, "(= (distance "+sym+") 0.00)")
	}
	return out
}

func (e Encoder) utensils(s world.Snapshot) []world.WorldObject {
	out := make([]world.WorldObject, 0)
	for _, o := range s.Objects {
		if e.isUtensil(o) {
			out = append(out, o)
		}
	}
	return out
}

func (e Encoder) isUtensil(o world.WorldObject) bool {
	types := e.Utensils
	if len(types) == 0 {
		types = defaultUtensils
	}
	for _, t := range types {
		if o.Type == t {
			return true
		}
	}
	return false
}

func parentReceptacles(o world.WorldObject) []string {
	p, ok := o.Prop("parentReceptacles")
	if !ok || p.IsTree() {
		return nil
	}
	list, _ := p.Leaf.([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	return out
}
