package pddl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

func obj(id, typ string, flags map[string]any) world.WorldObject {
	props := make(map[string]world.Property, len(flags))
	for k, v := range flags {
		props[k] = world.FromValue(v)
	}
	return world.WorldObject{ID: id, Type: typ, Props: props}
}

func kitchen() world.Snapshot {
	return world.Snapshot{
		SceneName: "FloorPlan1",
		Objects: []world.WorldObject{
			obj("Mug_1", "Mug", map[string]any{"pickupable": true, "isPickedUp": false, "visible": true, "distance": 1.234, "canFillWithLiquid": true, "isFilledWithLiquid": false, "parentReceptacles": []any{"CounterTop_1"}}),
			obj("Fridge_1", "Fridge", map[string]any{"openable": true, "isOpen": false, "receptacle": true, "distance": 3.5}),
			obj("CounterTop_1", "CounterTop", map[string]any{"receptacle": true, "distance": 1.0}),
			obj("Apple_1", "Apple", map[string]any{"sliceable": true, "isSliced": false, "pickupable": true}),
			obj("Knife_1", "Knife", map[string]any{"pickupable": true, "isPickedUp": false}),
		},
		ReachablePositions: []world.Vector3{{X: 0, Y: 0.9, Z: 0}, {X: 0.25, Y: 0.9, Z: -1.5}},
	}
}

func holding(s world.Snapshot, id string) world.Snapshot {
	s = s.Clone()
	for i := range s.Objects {
		if s.Objects[i].ID == id {
			s.Objects[i].Props["isPickedUp"] = world.Leaf(true)
		}
	}
	return s
}

func TestEncode_PickupAssertsGoalOnTarget(t *testing.T) {
	doc, err := Encode(kitchen(), action.Request{Kind: action.KindPickup, TargetID: "Mug_1"})
	require.NoError(t, err)

	require.Equal(t, "pickup-mug_1", doc.Name)
	require.Equal(t, "pickup", doc.Domain)
	require.Equal(t, []TypedSymbol{{Symbol: "mug_1", Type: "obj"}}, doc.Objects)
	require.Equal(t, []string{"(holding mug_1)"}, doc.Goal)
	require.Contains(t, doc.Init, "(pickupable mug_1)")
	require.Contains(t, doc.Init, "(near mug_1)")
	require.Contains(t, doc.Init, "(hand-empty)")
	require.Contains(t, doc.Init, "(= (distance mug_1) 1.23)")
	require.NotContains(t, doc.Init, "(holding mug_1)")

	b, ok := doc.Resolve("mug_1")
	require.True(t, ok)
	require.Equal(t, "Mug_1", b.ObjectID)
}

func TestEncode_IsDeterministic(t *testing.T) {
	req := action.Request{Kind: action.KindSlice, TargetID: "Apple_1"}
	first, err := Encode(kitchen(), req)
	require.NoError(t, err)

	shuffled := kitchen()
	objs := shuffled.Objects
	for i, j := 0, len(objs)-1; i < j; i, j = i+1, j-1 {
		objs[i], objs[j] = objs[j], objs[i]
	}
	second, err := Encode(shuffled, req)
	require.NoError(t, err)

	require.Equal(t, string(first.Render()), string(second.Render()))
	require.Equal(t, first.Digest(), second.Digest())
}

func TestEncode_RenderLayout(t *testing.T) {
	doc, err := Encode(kitchen(), action.Request{Kind: action.KindOpen, TargetID: "Fridge_1"})
	require.NoError(t, err)

	want := strings.Join([]string{
		"(define (problem open-fridge_1)",
		"\t(:domain open)",
		"\t(:objects",
		"\t\tfridge_1 - obj",
		"\t)",
		"\t(:init",
		"\t\t(= (distance fridge_1) 3.50)",
		"\t\t(= (total-cost) 0)",
		"\t\t(hand-empty)",
		"\t\t(openable fridge_1)",
		"\t\t(receptacle fridge_1)",
		"\t)",
		"\t(:goal (and",
		"\t\t(is-open fridge_1)",
		"\t))",
		"\t(:metric minimize (total-cost))",
		")",
		"",
	}, "\n")
	require.Equal(t, want, string(doc.Render()))
}

func TestEncode_RejectsInapplicableTarget(t *testing.T) {
	s := kitchen()
	s.Objects[1].Props["isOpen"] = world.Leaf(true)

	_, err := Encode(s, action.Request{Kind: action.KindOpen, TargetID: "Fridge_1"})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	require.ErrorIs(t, err, ErrEncoding)
	require.ErrorIs(t, err, action.ErrNotApplicable)
	require.Equal(t, "Fridge_1", encErr.TargetID)
}

func TestEncode_PutNeedsHeldObject(t *testing.T) {
	_, err := Encode(kitchen(), action.Request{Kind: action.KindPut, TargetID: "Fridge_1"})
	require.ErrorIs(t, err, ErrEncoding)
	require.ErrorIs(t, err, action.ErrNotHolding)

	doc, err := Encode(holding(kitchen(), "Mug_1"), action.Request{Kind: action.KindPut, TargetID: "Fridge_1"})
	require.NoError(t, err)
	require.Equal(t, []string{"(in mug_1 fridge_1)"}, doc.Goal)
	require.Contains(t, doc.Init, "(holding mug_1)")
	require.NotContains(t, doc.Init, "(hand-empty)")
}

func TestEncode_ProjectsContainmentBetweenIncludedObjects(t *testing.T) {
	s := holding(kitchen(), "Mug_1")
	doc, err := Encode(s, action.Request{Kind: action.KindPut, TargetID: "CounterTop_1"})
	require.NoError(t, err)
	require.Contains(t, doc.Init, "(in mug_1 countertop_1)")
}

func TestEncode_PickupWithFullHandFails(t *testing.T) {
	s := holding(kitchen(), "Knife_1")
	_, err := Encode(s, action.Request{Kind: action.KindPickup, TargetID: "Mug_1"})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncode_SliceIncludesKnives(t *testing.T) {
	doc, err := Encode(kitchen(), action.Request{Kind: action.KindSlice, TargetID: "Apple_1"})
	require.NoError(t, err)
	require.Equal(t, []TypedSymbol{{Symbol: "apple_1", Type: "obj"}, {Symbol: "knife_1", Type: "obj"}}, doc.Objects)
	require.Contains(t, doc.Init, "(knife knife_1)")
	require.Equal(t, []string{"(is-sliced apple_1)"}, doc.Goal)

	noKnife := kitchen()
	noKnife.Objects = noKnife.Objects[:4]
	_, err = Encode(noKnife, action.Request{Kind: action.KindSlice, TargetID: "Apple_1"})
	require.ErrorIs(t, err, ErrEncoding)

	_, err = Encode(holding(kitchen(), "Mug_1"), action.Request{Kind: action.KindSlice, TargetID: "Apple_1"})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestEncode_FillGoalNamesLiquid(t *testing.T) {
	doc, err := Encode(kitchen(), action.Request{Kind: action.KindFill, TargetID: "Mug_1", Liquid: action.LiquidCoffee})
	require.NoError(t, err)
	require.Equal(t, []string{"(filled-with mug_1 coffee)"}, doc.Goal)

	_, err = Encode(kitchen(), action.Request{Kind: action.KindFill, TargetID: "Mug_1"})
	require.ErrorIs(t, err, action.ErrInvalidRequest)
}

func TestEncode_MoveUsesPositionSymbol(t *testing.T) {
	p := world.Vector3{X: 0.25, Y: 0.9, Z: -1.5}
	doc, err := Encode(kitchen(), action.Request{Kind: action.KindMove, Position: &p})
	require.NoError(t, err)
	require.Equal(t, []TypedSymbol{{Symbol: "pos_25_m150", Type: "pos"}}, doc.Objects)
	require.Equal(t, []string{"(agent-at pos_25_m150)"}, doc.Goal)

	b, ok := doc.Resolve("pos_25_m150")
	require.True(t, ok)
	require.Equal(t, p, *b.Position)
}

func TestEncode_UnifiedDomainName(t *testing.T) {
	doc, err := Encoder{Unified: true}.Encode(kitchen(), action.Request{Kind: action.KindPickup, TargetID: "Mug_1"})
	require.NoError(t, err)
	require.Equal(t, UnifiedDomainName, doc.Domain)
}

func TestSymbolTable_SanitizesAndDisambiguates(t *testing.T) {
	table := newSymbolTable()
	require.Equal(t, "mug_0_10_0_90_1_20", table.assign("Mug|+0.10|+0.90|-1.20"))
	require.Equal(t, "mug_1_0_0_9_1_2", table.assign("Mug|+1.0|+0.9|-1.2"))
	require.Equal(t, "mug_1", table.assign("Mug_1"))
	require.Equal(t, "mug_1_2", table.assign("mug-1"))
	require.Equal(t, "o_42", table.assign("42"))
	require.Equal(t, "open_2", table.assign("Open"))
}

func TestSymbolTable_CollidingIDsGetDistinctSymbols(t *testing.T) {
	table := newSymbolTable()
	// Both fold to mug_1_0_0_5_0_2.
	first := table.assign("Mug|+1.0|+0.5|+0.2")
	second := table.assign("Mug|-1.0|-0.5|-0.2")
	require.Equal(t, "mug_1_0_0_5_0_2", first)
	require.Equal(t, "mug_1_0_0_5_0_2_2", second)

	scene := world.Snapshot{Objects: []world.WorldObject{
		obj("Apple_1", "Apple", map[string]any{"sliceable": true, "isSliced": false}),
		obj("Knife|+1.0|+0.5|+0.2", "Knife", map[string]any{"pickupable": true, "isPickedUp": false}),
		obj("Knife|-1.0|-0.5|-0.2", "Knife", map[string]any{"pickupable": true, "isPickedUp": false}),
	}}
	doc, err := Encode(scene, action.Request{Kind: action.KindSlice, TargetID: "Apple_1"})
	require.NoError(t, err)
	for sym, id := range map[string]string{
		"knife_1_0_0_5_0_2":   "Knife|+1.0|+0.5|+0.2",
		"knife_1_0_0_5_0_2_2": "Knife|-1.0|-0.5|-0.2",
	} {
		b, ok := doc.Resolve(sym)
		require.True(t, ok, sym)
		require.Equal(t, id, b.ObjectID)
	}
}
