package observe

import (
	"thorplan/internal/domain/action"
	"thorplan/internal/domain/world"
)

type Request struct {
	// Kind selects the target listing; empty lists only the allowed kinds.
	Kind string
	// IncludeObjects attaches the full snapshot to the response.
	IncludeObjects bool
}

type Response struct {
	Scene        string           `json:"scene"`
	SceneNumber  int              `json:"scene_number,omitempty"`
	Agent        world.AgentPose  `json:"agent"`
	HeldObjectID string           `json:"held_object_id,omitempty"`
	ObjectCount  int              `json:"object_count"`
	LastAction   string           `json:"last_action,omitempty"`
	LastSuccess  bool             `json:"last_action_success"`
	AllowedKinds []AllowedKind    `json:"allowed_kinds"`
	Kind         action.Kind      `json:"kind,omitempty"`
	Targets      []Target         `json:"targets,omitempty"`
	Positions    []world.Vector3  `json:"positions,omitempty"`
	Requests     []action.Request `json:"requests,omitempty"`
	Snapshot     *world.Snapshot  `json:"snapshot,omitempty"`
}

// AllowedKind is one menu entry.
type AllowedKind struct {
	Kind  action.Kind `json:"kind"`
	Label string      `json:"label"`
}

type Target struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Name     string        `json:"name,omitempty"`
	Position world.Vector3 `json:"position"`
	Distance float64       `json:"distance"`
	Visible  bool          `json:"visible"`
}
