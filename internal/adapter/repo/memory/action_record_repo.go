package memory

import (
	"context"
	"sort"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

type ActionRecordRepo struct {
	store *Store
}

func NewActionRecordRepo(store *Store) ActionRecordRepo {
	return ActionRecordRepo{store: store}
}

func (r ActionRecordRepo) Save(ctx context.Context, rec ports.ActionRecord) error {
	return r.store.write(ctx, func() error {
		k := recordKey(rec.SceneNumber, rec.ActionCounter)
		if _, exists := r.store.records[k]; exists {
			return ports.ErrConflict
		}
		r.store.records[k] = cloneRecord(rec)
		return nil
	})
}

func (r ActionRecordRepo) Get(ctx context.Context, scene, counter int) (ports.ActionRecord, error) {
	var (
		rec ports.ActionRecord
		ok  bool
	)
	r.store.read(ctx, func() {
		rec, ok = r.store.records[recordKey(scene, counter)]
	})
	if !ok {
		return ports.ActionRecord{}, ports.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// List returns matching records, newest counter first.
func (r ActionRecordRepo) List(ctx context.Context, filter ports.RecordFilter) ([]ports.ActionRecord, error) {
	out := make([]ports.ActionRecord, 0)
	r.store.read(ctx, func() {
		for _, rec := range r.store.records {
			if filter.SceneNumber != 0 && rec.SceneNumber != filter.SceneNumber {
				continue
			}
			if filter.ActionName != "" && rec.ActionName != filter.ActionName && rec.Problem != filter.ActionName {
				continue
			}
			out = append(out, cloneRecord(rec))
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActionCounter != out[j].ActionCounter {
			return out[i].ActionCounter > out[j].ActionCounter
		}
		return out[i].SceneNumber < out[j].SceneNumber
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func cloneRecord(rec ports.ActionRecord) ports.ActionRecord {
	rec.BeforeWorldStatus = append([]byte(nil), rec.BeforeWorldStatus...)
	rec.AfterWorldStatus = append([]byte(nil), rec.AfterWorldStatus...)
	if rec.TargetChanges != nil {
		changes := make([]world.ChangePath, len(rec.TargetChanges))
		for i, p := range rec.TargetChanges {
			changes[i] = append(world.ChangePath(nil), p...)
		}
		rec.TargetChanges = changes
	}
	return rec
}
