package ports

import (
	"context"
	"encoding/json"
	"time"

	"thorplan/internal/domain/world"
)

// ActionRecord is the flat document persisted once per executed request.
type ActionRecord struct {
	CycleID           string             `json:"cycle_id"`
	SceneNumber       int                `json:"scene_number"`
	ActionName        string             `json:"action_name"`
	ActionCounter     int                `json:"action_counter"`
	Problem           string             `json:"problem"`
	ProblemPath       string             `json:"problem_path"`
	ActionObjectiveID string             `json:"action_objective_id"`
	Liquid            string             `json:"liquid,omitempty"`
	Outcome           string             `json:"outcome"`
	BeforeWorldStatus json.RawMessage    `json:"before_world_status"`
	AfterWorldStatus  json.RawMessage    `json:"after_world_status"`
	TargetChanges     []world.ChangePath `json:"target_changes,omitempty"`
	RecordedAt        time.Time          `json:"recorded_at"`
}

type RecordFilter struct {
	SceneNumber int
	ActionName  string
	Limit       int
}

// ActionRecordRepository stores records write-once; saving the same scene
// and counter twice is a conflict.
type ActionRecordRepository interface {
	Save(ctx context.Context, rec ActionRecord) error
	Get(ctx context.Context, sceneNumber, counter int) (ActionRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]ActionRecord, error)
}
