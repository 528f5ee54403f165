package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"thorplan/internal/domain/world"
)

const DefaultVisibilityDistance = 1.5

// Simulator is an in-process stand-in for the household simulator. It keeps
// one scene loaded at a time and applies the state effects of each command.
type Simulator struct {
	mu      sync.Mutex
	scenes  map[string]world.Snapshot
	current world.Snapshot
	loaded  bool

	VisibilityDistance float64
	// Refuse lists command names that always report failure.
	Refuse map[string]string
}

func New(scenes ...world.Snapshot) *Simulator {
	s := &Simulator{scenes: map[string]world.Snapshot{}}
	for _, scene := range scenes {
		s.scenes[scene.SceneName] = scene.Clone()
	}
	return s
}

func (s *Simulator) Observe(_ context.Context) (world.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return world.Snapshot{}, fmt.Errorf("no scene loaded")
	}
	return s.current.Clone(), nil
}

// Reset loads a registered scene, or the demo kitchen under the given name.
func (s *Simulator) Reset(_ context.Context, scene string) (world.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.scenes[scene]
	if !ok {
		snap = DemoScene(scene)
	}
	s.current = snap.Clone()
	s.current.LastAction = "Reset"
	s.current.LastActionSuccess = true
	s.current.ErrorMessage = ""
	s.refreshVisibility()
	s.loaded = true
	return s.current.Clone(), nil
}

func (s *Simulator) Step(_ context.Context, cmd world.Command) (world.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return world.Snapshot{}, fmt.Errorf("no scene loaded")
	}
	next := s.current.Clone()
	next.LastAction = cmd.Action
	next.LastActionSuccess = true
	next.ErrorMessage = ""

	var errMsg string
	if msg, refused := s.Refuse[cmd.Action]; refused {
		errMsg = msg
	} else {
		errMsg = s.apply(&next, cmd)
	}
	if errMsg != "" {
		failed := s.current.Clone()
		failed.LastAction = cmd.Action
		failed.LastActionSuccess = false
		failed.ErrorMessage = errMsg
		s.current = failed
		return failed.Clone(), nil
	}
	s.current = next
	s.refreshVisibility()
	return s.current.Clone(), nil
}

func (s *Simulator) apply(next *world.Snapshot, cmd world.Command) string {
	switch cmd.Action {
	case "GetReachablePositions", "Pass", "Done":
		return ""
	case "TeleportFull", "Teleport":
		pos, ok := vectorParam(cmd.Params["position"])
		if !ok {
			return "position is required"
		}
		if !isReachable(*next, pos) {
			return fmt.Sprintf("position %s is not reachable", pos)
		}
		next.Agent.Position = pos
		if rot, ok := vectorParam(cmd.Params["rotation"]); ok {
			next.Agent.Rotation = rot
		}
		if h, ok := cmd.Params["horizon"].(float64); ok {
			next.Agent.CameraHorizon = h
		}
		return ""
	case "DropHandObject":
		idx := heldIndex(*next)
		if idx < 0 {
			return "nothing in hand"
		}
		next.Objects[idx].Props["isPickedUp"] = world.Leaf(false)
		return ""
	case "PutObject":
		return putObject(next, cmd)
	}

	effect, ok := effects[cmd.Action]
	if !ok {
		return fmt.Sprintf("unsupported action %s", cmd.Action)
	}
	idx := objectIndex(*next, cmd.StringParam("objectId"))
	if idx < 0 {
		return fmt.Sprintf("object %q not found", cmd.StringParam("objectId"))
	}
	obj := next.Objects[idx]
	force, _ := cmd.Params["forceAction"].(bool)
	if !force && !obj.Bool("visible") {
		return fmt.Sprintf("%s is not visible", obj.ID)
	}
	if !obj.Bool(effect.capability) {
		return fmt.Sprintf("%s is not %s", obj.ID, effect.capability)
	}
	if effect.state != "" && obj.Bool(effect.state) == effect.value {
		return fmt.Sprintf("%s already has %s=%t", obj.ID, effect.state, effect.value)
	}
	if effect.check != nil {
		if msg := effect.check(*next, obj, cmd); msg != "" {
			return msg
		}
	}
	if effect.state != "" {
		obj.Props[effect.state] = world.Leaf(effect.value)
	}
	if effect.after != nil {
		effect.after(obj, cmd)
	}
	return ""
}

type effect struct {
	capability string
	state      string
	value      bool
	check      func(s world.Snapshot, obj world.WorldObject, cmd world.Command) string
	after      func(obj world.WorldObject, cmd world.Command)
}

var effects = map[string]effect{
	"PickupObject": {capability: "pickupable", state: "isPickedUp", value: true, check: func(s world.Snapshot, _ world.WorldObject, _ world.Command) string {
		if heldIndex(s) >= 0 {
			return "hand is not empty"
		}
		return ""
	}},
	"OpenObject":      {capability: "openable", state: "isOpen", value: true},
	"CloseObject":     {capability: "openable", state: "isOpen", value: false},
	"BreakObject":     {capability: "breakable", state: "isBroken", value: true},
	"CookObject":      {capability: "cookable", state: "isCooked", value: true},
	"ToggleObjectOn":  {capability: "toggleable", state: "isToggled", value: true},
	"ToggleObjectOff": {capability: "toggleable", state: "isToggled", value: false},
	"DirtyObject":     {capability: "dirtyable", state: "isDirty", value: true},
	"CleanObject":     {capability: "dirtyable", state: "isDirty", value: false},
	"UseUpObject":     {capability: "canBeUsedUp", state: "isUsedUp", value: true},
	"SliceObject": {capability: "sliceable", state: "isSliced", value: true, check: func(s world.Snapshot, _ world.WorldObject, _ world.Command) string {
		held, ok := s.HeldObject()
		if !ok || (held.Type != "Knife" && held.Type != "ButterKnife") {
			return "slicing requires holding a knife"
		}
		return ""
	}},
	"FillObjectWithLiquid": {capability: "canFillWithLiquid", state: "isFilledWithLiquid", value: true, check: func(_ world.Snapshot, _ world.WorldObject, cmd world.Command) string {
		if cmd.StringParam("fillLiquid") == "" {
			return "fillLiquid is required"
		}
		return ""
	}, after: func(obj world.WorldObject, cmd world.Command) {
		obj.Props["fillLiquid"] = world.Leaf(cmd.StringParam("fillLiquid"))
	}},
	"EmptyLiquidFromObject": {capability: "canFillWithLiquid", state: "isFilledWithLiquid", value: false, after: func(obj world.WorldObject, _ world.Command) {
		obj.Props["fillLiquid"] = world.Leaf(nil)
	}},
}

func putObject(next *world.Snapshot, cmd world.Command) string {
	held := heldIndex(*next)
	if held < 0 {
		return "nothing in hand"
	}
	if _, ok := cmd.Param("receptacleObjectId"); ok {
		return "PutObject takes the receptacle as objectId"
	}
	receptacle := cmd.StringParam("objectId")
	ridx := objectIndex(*next, receptacle)
	if ridx < 0 {
		return fmt.Sprintf("receptacle %q not found", receptacle)
	}
	r := next.Objects[ridx]
	force, _ := cmd.Params["forceAction"].(bool)
	if !force && !r.Bool("visible") {
		return fmt.Sprintf("%s is not visible", r.ID)
	}
	if !r.Bool("receptacle") {
		return fmt.Sprintf("%s is not a receptacle", r.ID)
	}
	if r.Bool("openable") && !r.Bool("isOpen") {
		return fmt.Sprintf("%s is closed", r.ID)
	}
	obj := next.Objects[held]
	obj.Props["isPickedUp"] = world.Leaf(false)
	obj.Props["parentReceptacles"] = world.Leaf([]any{r.ID})
	if pos, ok := r.Position(); ok {
		obj.Props["position"] = world.VectorProperty(pos)
	}
	return ""
}

// refreshVisibility recomputes distance and visibility from the agent pose.
// Held objects keep their last resting position.
func (s *Simulator) refreshVisibility() {
	limit := s.VisibilityDistance
	if limit <= 0 {
		limit = DefaultVisibilityDistance
	}
	agent := s.current.Agent.Position
	for _, o := range s.current.Objects {
		pos, ok := o.Position()
		if !ok {
			continue
		}
		d := math.Sqrt(pos.DistanceSq(agent))
		o.Props["distance"] = world.Leaf(math.Round(d*1000) / 1000)
		o.Props["visible"] = world.Leaf(d <= limit)
	}
}

func heldIndex(s world.Snapshot) int {
	for i, o := range s.Objects {
		if o.Bool("isPickedUp") {
			return i
		}
	}
	return -1
}

func objectIndex(s world.Snapshot, id string) int {
	for i, o := range s.Objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func isReachable(s world.Snapshot, p world.Vector3) bool {
	if len(s.ReachablePositions) == 0 {
		return true
	}
	for _, r := range s.ReachablePositions {
		if r.SameFloorPoint(p) {
			return true
		}
	}
	return false
}

func vectorParam(v any) (world.Vector3, bool) {
	switch p := v.(type) {
	case world.Vector3:
		return p, true
	case *world.Vector3:
		if p == nil {
			return world.Vector3{}, false
		}
		return *p, true
	case map[string]any:
		x, okX := p["x"].(float64)
		y, okY := p["y"].(float64)
		z, okZ := p["z"].(float64)
		return world.Vector3{X: x, Y: y, Z: z}, okX && okY && okZ
	default:
		return world.Vector3{}, false
	}
}
