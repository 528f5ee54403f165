package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	propObjectID   = "objectId"
	propObjectType = "objectType"
	propName       = "name"
	propPosition   = "position"
	propDistance   = "distance"
	propPickedUp   = "isPickedUp"
)

var ErrInvalidWorldObject = errors.New("invalid world object")

type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vector3) DistanceSq(o Vector3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// SameFloorPoint compares positions on the floor plane. Height is ignored
// because reachable positions carry the agent's camera height.
func (v Vector3) SameFloorPoint(o Vector3) bool {
	return math.Abs(v.X-o.X) <= FloatTolerance && math.Abs(v.Z-o.Z) <= FloatTolerance
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X, v.Y, v.Z)
}

// WorldObject is one simulator object. Props holds every attribute other than
// the identifier and type, keyed by the simulator's property names.
type WorldObject struct {
	ID    string
	Type  string
	Props map[string]Property
}

func (o WorldObject) Validate() error {
	if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.Type) == "" {
		return ErrInvalidWorldObject
	}
	return nil
}

func (o WorldObject) Prop(name string) (Property, bool) {
	p, ok := o.Props[name]
	return p, ok
}

// Bool reports a boolean flag; missing or non-boolean flags read as false.
func (o WorldObject) Bool(name string) bool {
	p, ok := o.Props[name]
	if !ok || p.IsTree() {
		return false
	}
	b, _ := p.Leaf.(bool)
	return b
}

func (o WorldObject) Number(name string) (float64, bool) {
	p, ok := o.Props[name]
	if !ok || p.IsTree() {
		return 0, false
	}
	n, ok := p.Leaf.(float64)
	return n, ok
}

func (o WorldObject) String(name string) string {
	p, ok := o.Props[name]
	if !ok || p.IsTree() {
		return ""
	}
	s, _ := p.Leaf.(string)
	return s
}

func (o WorldObject) Name() string {
	if n := o.String(propName); n != "" {
		return n
	}
	return o.ID
}

func (o WorldObject) Position() (Vector3, bool) {
	p, ok := o.Props[propPosition]
	if !ok {
		return Vector3{}, false
	}
	return vectorFromProperty(p)
}

func (o WorldObject) Distance() float64 {
	d, _ := o.Number(propDistance)
	return d
}

func (o WorldObject) Clone() WorldObject {
	return WorldObject{ID: o.ID, Type: o.Type, Props: cloneProps(o.Props)}
}

// Flags returns the top-level boolean and numeric leaves as plain values.
// Nested trees are left out.
func (o WorldObject) Flags() map[string]any {
	out := make(map[string]any, len(o.Props))
	for k, p := range o.Props {
		if p.IsTree() {
			continue
		}
		switch p.Leaf.(type) {
		case bool, float64, string:
			out[k] = p.Leaf
		}
	}
	return out
}

func (o WorldObject) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(o.Props)+2)
	for k, p := range o.Props {
		m[k] = p.Value()
	}
	m[propObjectID] = o.ID
	m[propObjectType] = o.Type
	return json.Marshal(m)
}

func (o *WorldObject) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode world object: %w", err)
	}
	id, _ := raw[propObjectID].(string)
	typ, _ := raw[propObjectType].(string)
	delete(raw, propObjectID)
	delete(raw, propObjectType)
	props := make(map[string]Property, len(raw))
	for k, v := range raw {
		props[k] = FromValue(v)
	}
	*o = WorldObject{ID: id, Type: typ, Props: props}
	return o.Validate()
}

func vectorFromProperty(p Property) (Vector3, bool) {
	if !p.IsTree() {
		return Vector3{}, false
	}
	x, okX := p.Tree["x"].Leaf.(float64)
	y, okY := p.Tree["y"].Leaf.(float64)
	z, okZ := p.Tree["z"].Leaf.(float64)
	if !okX || !okY || !okZ {
		return Vector3{}, false
	}
	return Vector3{X: x, Y: y, Z: z}, true
}

func VectorProperty(v Vector3) Property {
	return Tree(map[string]Property{
		"x": Leaf(v.X),
		"y": Leaf(v.Y),
		"z": Leaf(v.Z),
	})
}
