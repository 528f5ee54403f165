package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"thorplan/internal/adapter/repo/gorm/model"
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRecordRepo struct {
	db *gorm.DB
}

func NewActionRecordRepo(db *gorm.DB) ActionRecordRepo {
	return ActionRecordRepo{db: db}
}

func (r ActionRecordRepo) Save(ctx context.Context, rec ports.ActionRecord) error {
	changes, err := json.Marshal(rec.TargetChanges)
	if err != nil {
		return fmt.Errorf("encode target changes: %w", err)
	}
	if rec.TargetChanges == nil {
		changes = []byte("[]")
	}
	m := model.ActionRecord{
		SceneNumber:       int32(rec.SceneNumber),
		ActionCounter:     int32(rec.ActionCounter),
		CycleID:           rec.CycleID,
		ActionName:        rec.ActionName,
		Problem:           rec.Problem,
		ProblemPath:       rec.ProblemPath,
		ActionObjectiveID: rec.ActionObjectiveID,
		Liquid:            rec.Liquid,
		Outcome:           rec.Outcome,
		BeforeWorldStatus: jsonOrNull(rec.BeforeWorldStatus),
		AfterWorldStatus:  jsonOrNull(rec.AfterWorldStatus),
		TargetChanges:     changes,
		RecordedAt:        rec.RecordedAt,
	}
	if err := getDBFromCtx(ctx, r.db).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

func (r ActionRecordRepo) Get(ctx context.Context, scene, counter int) (ports.ActionRecord, error) {
	var m model.ActionRecord
	err := getDBFromCtx(ctx, r.db).
		Where("scene_number = ? AND action_counter = ?", scene, counter).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ActionRecord{}, ports.ErrNotFound
		}
		return ports.ActionRecord{}, err
	}
	return toRecord(m), nil
}

func (r ActionRecordRepo) List(ctx context.Context, filter ports.RecordFilter) ([]ports.ActionRecord, error) {
	rows := []model.ActionRecord{}
	query := getDBFromCtx(ctx, r.db).Model(&model.ActionRecord{})
	if filter.SceneNumber != 0 {
		query = query.Where("scene_number = ?", filter.SceneNumber)
	}
	if filter.ActionName != "" {
		query = query.Where("action_name = ? OR problem = ?", filter.ActionName, filter.ActionName)
	}
	query = query.Clauses(clause.OrderBy{
		Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "action_counter"}, Desc: true},
			{Column: clause.Column{Name: "scene_number"}},
		},
	})
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.ActionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}

func toRecord(m model.ActionRecord) ports.ActionRecord {
	var changes []world.ChangePath
	if len(m.TargetChanges) > 0 {
		_ = json.Unmarshal(m.TargetChanges, &changes)
	}
	return ports.ActionRecord{
		CycleID:           m.CycleID,
		SceneNumber:       int(m.SceneNumber),
		ActionName:        m.ActionName,
		ActionCounter:     int(m.ActionCounter),
		Problem:           m.Problem,
		ProblemPath:       m.ProblemPath,
		ActionObjectiveID: m.ActionObjectiveID,
		Liquid:            m.Liquid,
		Outcome:           m.Outcome,
		BeforeWorldStatus: json.RawMessage(m.BeforeWorldStatus),
		AfterWorldStatus:  json.RawMessage(m.AfterWorldStatus),
		TargetChanges:     changes,
		RecordedAt:        m.RecordedAt,
	}
}

func jsonOrNull(b json.RawMessage) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
