package model

import (
	"time"
)

const TableNameActionRecord = "action_records"

// ActionRecord mapped from table <action_records>
type ActionRecord struct {
	SceneNumber       int32     `gorm:"column:scene_number;primaryKey" json:"scene_number"`
	ActionCounter     int32     `gorm:"column:action_counter;primaryKey" json:"action_counter"`
	CycleID           string    `gorm:"column:cycle_id;not null" json:"cycle_id"`
	ActionName        string    `gorm:"column:action_name;not null" json:"action_name"`
	Problem           string    `gorm:"column:problem;not null" json:"problem"`
	ProblemPath       string    `gorm:"column:problem_path;not null" json:"problem_path"`
	ActionObjectiveID string    `gorm:"column:action_objective_id;not null" json:"action_objective_id"`
	Liquid            string    `gorm:"column:liquid;not null" json:"liquid"`
	Outcome           string    `gorm:"column:outcome;not null" json:"outcome"`
	BeforeWorldStatus []byte    `gorm:"column:before_world_status;not null" json:"before_world_status"`
	AfterWorldStatus  []byte    `gorm:"column:after_world_status;not null" json:"after_world_status"`
	TargetChanges     []byte    `gorm:"column:target_changes;not null" json:"target_changes"`
	RecordedAt        time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
}

// TableName ActionRecord's table name
func (*ActionRecord) TableName() string {
	return TableNameActionRecord
}
