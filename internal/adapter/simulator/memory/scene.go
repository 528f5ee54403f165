package memory

import (
	"math"

	"thorplan/internal/domain/world"
)

// DemoScene builds a small kitchen with at least one object per action kind.
// The agent starts at the origin; reachable positions form a 0.25 grid.
func DemoScene(name string) world.Snapshot {
	objects := []world.WorldObject{
		object("Mug_1", "Mug", world.Vector3{X: 0.5, Y: 0.95, Z: 0.5}, map[string]any{
			"pickupable": true, "isPickedUp": false, "receptacle": true,
			"canFillWithLiquid": true, "isFilledWithLiquid": false, "fillLiquid": nil,
			"dirtyable": true, "isDirty": false, "breakable": true, "isBroken": false,
			"parentReceptacles": []any{"CounterTop_1"},
		}),
		object("CounterTop_1", "CounterTop", world.Vector3{X: 0.75, Y: 0.9, Z: 0.5}, map[string]any{
			"receptacle": true,
		}),
		object("Fridge_1", "Fridge", world.Vector3{X: -1.5, Y: 0.9, Z: 1.5}, map[string]any{
			"openable": true, "isOpen": false, "receptacle": true,
		}),
		object("Cabinet_1", "Cabinet", world.Vector3{X: 1.5, Y: 0.4, Z: -1.0}, map[string]any{
			"openable": true, "isOpen": false, "receptacle": true,
		}),
		object("Apple_1", "Apple", world.Vector3{X: 0.25, Y: 0.95, Z: 0.75}, map[string]any{
			"pickupable": true, "isPickedUp": false, "sliceable": true, "isSliced": false,
			"parentReceptacles": []any{"CounterTop_1"},
		}),
		object("Potato_1", "Potato", world.Vector3{X: -0.75, Y: 0.95, Z: -1.25}, map[string]any{
			"pickupable": true, "isPickedUp": false, "sliceable": true, "isSliced": false,
			"cookable": true, "isCooked": false,
		}),
		object("Knife_1", "Knife", world.Vector3{X: 1.0, Y: 0.95, Z: 0.25}, map[string]any{
			"pickupable": true, "isPickedUp": false,
			"parentReceptacles": []any{"CounterTop_1"},
		}),
		object("StoveBurner_1", "StoveBurner", world.Vector3{X: -1.25, Y: 0.9, Z: -1.5}, map[string]any{
			"toggleable": true, "isToggled": false, "receptacle": true,
		}),
		object("LightSwitch_1", "LightSwitch", world.Vector3{X: 1.75, Y: 1.3, Z: 1.75}, map[string]any{
			"toggleable": true, "isToggled": true,
		}),
		object("Bowl_1", "Bowl", world.Vector3{X: -0.5, Y: 0.95, Z: 1.0}, map[string]any{
			"pickupable": true, "isPickedUp": false, "receptacle": true,
			"dirtyable": true, "isDirty": true,
			"canFillWithLiquid": true, "isFilledWithLiquid": true, "fillLiquid": "water",
		}),
		object("TissueBox_1", "TissueBox", world.Vector3{X: 0.0, Y: 0.5, Z: -1.75}, map[string]any{
			"pickupable": true, "isPickedUp": false, "canBeUsedUp": true, "isUsedUp": false,
		}),
		object("Window_1", "Window", world.Vector3{X: -1.75, Y: 1.5, Z: 0.0}, map[string]any{
			"breakable": true, "isBroken": false,
		}),
	}
	return world.Snapshot{
		SceneName:          name,
		Objects:            objects,
		Agent:              world.AgentPose{Position: world.Vector3{Y: 0.9}, IsStanding: true},
		LastActionSuccess:  true,
		ReachablePositions: grid(-1.5, 1.5, 0.25, 0.9),
	}
}

func object(id, typ string, pos world.Vector3, flags map[string]any) world.WorldObject {
	props := make(map[string]world.Property, len(flags)+2)
	for k, v := range flags {
		props[k] = world.FromValue(v)
	}
	props["position"] = world.VectorProperty(pos)
	props["name"] = world.Leaf(typ)
	return world.WorldObject{ID: id, Type: typ, Props: props}
}

func grid(lo, hi, step, y float64) []world.Vector3 {
	n := int(math.Round((hi-lo)/step)) + 1
	out := make([]world.Vector3, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out = append(out, world.Vector3{
				X: lo + float64(i)*step,
				Y: y,
				Z: lo + float64(j)*step,
			})
		}
	}
	return out
}
