package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"thorplan/internal/domain/world"
)

func obj(id, typ string, flags map[string]any) world.WorldObject {
	props := make(map[string]world.Property, len(flags))
	for k, v := range flags {
		props[k] = world.Leaf(v)
	}
	return world.WorldObject{ID: id, Type: typ, Props: props}
}

func kitchen() world.Snapshot {
	return world.Snapshot{
		SceneName: "FloorPlan1",
		Objects: []world.WorldObject{
			obj("Mug_1", "Mug", map[string]any{"pickupable": true, "isPickedUp": false, "canFillWithLiquid": true, "isFilledWithLiquid": false}),
			obj("Fridge_1", "Fridge", map[string]any{"openable": true, "isOpen": true, "receptacle": true}),
			obj("Cabinet_1", "Cabinet", map[string]any{"openable": true, "isOpen": false, "receptacle": true}),
		},
		ReachablePositions: []world.Vector3{{X: 0, Y: 0.9, Z: 0}, {X: 0.25, Y: 0.9, Z: 0}},
	}
}

func TestCatalog_CoversEveryKind(t *testing.T) {
	require.Len(t, Kinds(), 16)
	for _, k := range Kinds() {
		rule, ok := Lookup(k)
		require.True(t, ok, "missing rule for %s", k)
		require.Equal(t, string(k), rule.Family)
	}
}

func TestParseKindAndLiquid(t *testing.T) {
	k, err := ParseKind(" ToggleOn ")
	require.NoError(t, err)
	require.Equal(t, KindToggleOn, k)

	_, err = ParseKind("teleport")
	require.ErrorIs(t, err, ErrInvalidRequest)

	l, err := ParseLiquid("Wine")
	require.NoError(t, err)
	require.Equal(t, LiquidWine, l)

	_, err = ParseLiquid("milk")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRequestValidate(t *testing.T) {
	pos := world.Vector3{X: 1}
	cases := []struct {
		name string
		req  Request
		ok   bool
	}{
		{"pickup with target", Request{Kind: KindPickup, TargetID: "Mug_1"}, true},
		{"pickup without target", Request{Kind: KindPickup}, false},
		{"move with position", Request{Kind: KindMove, Position: &pos}, true},
		{"move without position", Request{Kind: KindMove}, false},
		{"fill with liquid", Request{Kind: KindFill, TargetID: "Mug_1", Liquid: LiquidCoffee}, true},
		{"fill without liquid", Request{Kind: KindFill, TargetID: "Mug_1"}, false},
		{"liquid on open", Request{Kind: KindOpen, TargetID: "Fridge_1", Liquid: LiquidWater}, false},
		{"unknown kind", Request{Kind: "jump", TargetID: "x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestApplicable_OpenRejectsAlreadyOpen(t *testing.T) {
	s := kitchen()
	err := Applicable(s, Request{Kind: KindOpen, TargetID: "Fridge_1"})
	var na *NotApplicableError
	require.ErrorAs(t, err, &na)
	require.ErrorIs(t, err, ErrNotApplicable)
	require.Equal(t, "Fridge_1", na.TargetID)

	require.NoError(t, Applicable(s, Request{Kind: KindOpen, TargetID: "Cabinet_1"}))
	require.NoError(t, Applicable(s, Request{Kind: KindClose, TargetID: "Fridge_1"}))
}

func TestApplicable_MissingTargetAndFlags(t *testing.T) {
	s := kitchen()
	require.ErrorIs(t, Applicable(s, Request{Kind: KindPickup, TargetID: "Ghost_1"}), ErrTargetNotFound)
	require.ErrorIs(t, Applicable(s, Request{Kind: KindSlice, TargetID: "Mug_1"}), ErrNotApplicable)
}

func TestApplicable_HeldKinds(t *testing.T) {
	s := kitchen()
	require.ErrorIs(t, Applicable(s, Request{Kind: KindPut, TargetID: "Fridge_1"}), ErrNotHolding)

	s.Objects[0].Props["isPickedUp"] = world.Leaf(true)
	require.NoError(t, Applicable(s, Request{Kind: KindPut, TargetID: "Fridge_1"}))
	require.NoError(t, Applicable(s, Request{Kind: KindDrop, TargetID: "Mug_1"}))
	require.ErrorIs(t, Applicable(s, Request{Kind: KindPut, TargetID: "Mug_1"}), ErrNotApplicable)
}

func TestApplicable_MoveNeedsReachablePosition(t *testing.T) {
	s := kitchen()
	ok := world.Vector3{X: 0.25, Y: 0.9, Z: 0}
	bad := world.Vector3{X: 7, Y: 0.9, Z: 7}
	require.NoError(t, Applicable(s, Request{Kind: KindMove, Position: &ok}))
	require.ErrorIs(t, Applicable(s, Request{Kind: KindMove, Position: &bad}), ErrNotApplicable)

	// Height is not part of reachability.
	lower := world.Vector3{X: 0.25, Y: 0.85, Z: 0}
	require.NoError(t, Applicable(s, Request{Kind: KindMove, Position: &lower}))
}

func TestAllowedKindsAndTargets(t *testing.T) {
	s := kitchen()
	kinds := AllowedKinds(s)
	require.Len(t, kinds, 14)
	require.NotContains(t, kinds, KindDrop)

	open := Targets(s, KindOpen)
	require.Len(t, open, 1)
	require.Equal(t, "Cabinet_1", open[0].ID)

	require.Nil(t, Targets(s, KindMove))
	require.Len(t, MoveTargets(s), 2)

	s.Objects[0].Props["isPickedUp"] = world.Leaf(true)
	require.Len(t, AllowedKinds(s), 16)
	put := Targets(s, KindPut)
	require.Len(t, put, 2)
	require.Equal(t, "Cabinet_1", put[0].ID)
}

func TestExpand_FillPairsEveryLiquid(t *testing.T) {
	reqs := Expand(kitchen(), KindFill)
	require.Len(t, reqs, 3)
	for i, l := range Liquids() {
		require.Equal(t, "Mug_1", reqs[i].TargetID)
		require.Equal(t, l, reqs[i].Liquid)
		require.NoError(t, reqs[i].Validate())
	}

	moves := Expand(kitchen(), KindMove)
	require.Len(t, moves, 2)
	require.NotSame(t, moves[0].Position, moves[1].Position)
}
