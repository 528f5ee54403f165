package action

import (
	"time"

	domainaction "thorplan/internal/domain/action"
	"thorplan/internal/domain/pddl"
	"thorplan/internal/domain/world"
)

type Request struct {
	Scene string `json:"scene"`
	// SceneNumber is derived from Scene when zero.
	SceneNumber int `json:"scene_number,omitempty"`
	// Counter numbers the request within its scene; zero picks the next free one.
	Counter int                  `json:"counter,omitempty"`
	Action  domainaction.Request `json:"action"`
	// Reset reloads the scene before the before-snapshot is captured.
	Reset bool `json:"reset,omitempty"`
}

type Response struct {
	CycleID     string               `json:"cycle_id"`
	Scene       string               `json:"scene"`
	SceneNumber int                  `json:"scene_number"`
	Counter     int                  `json:"counter"`
	Action      domainaction.Request `json:"action"`
	Outcome     Outcome              `json:"outcome"`
	Error       string               `json:"error,omitempty"`

	Problem     string              `json:"problem,omitempty"`
	ProblemPath string              `json:"problem_path,omitempty"`
	Plan        *pddl.Plan          `json:"plan,omitempty"`
	Execution   *ExecutionResult    `json:"execution,omitempty"`
	Report      *world.EffectReport `json:"report,omitempty"`
	Attempts    int                 `json:"attempts"`
	Elapsed     time.Duration       `json:"elapsed_ns"`
}
