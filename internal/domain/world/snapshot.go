package world

import (
	"encoding/json"
	"fmt"
	"sort"
)

type AgentPose struct {
	Position      Vector3 `json:"position"`
	Rotation      Vector3 `json:"rotation"`
	CameraHorizon float64 `json:"cameraHorizon"`
	IsStanding    bool    `json:"isStanding"`
}

// Snapshot is the world state captured after one simulator step. A captured
// snapshot is never mutated; query helpers return copies.
type Snapshot struct {
	SceneName          string        `json:"sceneName"`
	Objects            []WorldObject `json:"objects"`
	Agent              AgentPose     `json:"agent"`
	LastAction         string        `json:"lastAction"`
	LastActionSuccess  bool          `json:"lastActionSuccess"`
	ErrorMessage       string        `json:"errorMessage"`
	ReachablePositions []Vector3     `json:"reachablePositions,omitempty"`
}

// DecodeSnapshot parses a simulator event metadata document. Reachable
// positions are taken from actionReturn when the last action produced them.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(s.ReachablePositions) == 0 {
		var extra struct {
			ActionReturn json.RawMessage `json:"actionReturn"`
		}
		if err := json.Unmarshal(b, &extra); err == nil && len(extra.ActionReturn) > 0 {
			var positions []Vector3
			if err := json.Unmarshal(extra.ActionReturn, &positions); err == nil {
				s.ReachablePositions = positions
			}
		}
	}
	return s, nil
}

func (s Snapshot) Object(id string) (WorldObject, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return WorldObject{}, false
}

// HeldObject returns the object currently in the agent's hand.
func (s Snapshot) HeldObject() (WorldObject, bool) {
	for _, o := range s.Objects {
		if o.Bool(propPickedUp) {
			return o.Clone(), true
		}
	}
	return WorldObject{}, false
}

func (s Snapshot) IsHolding() bool {
	_, ok := s.HeldObject()
	return ok
}

func (s Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Objects))
	for _, o := range s.Objects {
		ids = append(ids, o.ID)
	}
	sort.Strings(ids)
	return ids
}

func (s Snapshot) ObjectsOfType(typ string) []WorldObject {
	out := make([]WorldObject, 0)
	for _, o := range s.Objects {
		if o.Type == typ {
			out = append(out, o.Clone())
		}
	}
	return out
}

// NearestReachable returns the reachable position closest to p.
func (s Snapshot) NearestReachable(p Vector3) (Vector3, bool) {
	if len(s.ReachablePositions) == 0 {
		return Vector3{}, false
	}
	best := s.ReachablePositions[0]
	bestD := best.DistanceSq(p)
	for _, r := range s.ReachablePositions[1:] {
		if d := r.DistanceSq(p); d < bestD {
			best, bestD = r, d
		}
	}
	return best, true
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.Objects = make([]WorldObject, len(s.Objects))
	for i, o := range s.Objects {
		out.Objects[i] = o.Clone()
	}
	out.ReachablePositions = append([]Vector3(nil), s.ReachablePositions...)
	return out
}
