package replay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const (
	defaultLimit = 50
	maxLimit     = 500
)

type UseCase struct {
	Records ports.ActionRecordRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	scene, err := sceneNumber(req.Scene, req.SceneNumber)
	if err != nil {
		return Response{}, err
	}
	if req.Limit < 0 || req.Limit > maxLimit {
		return Response{}, fmt.Errorf("%w: limit must be within 0..%d", ErrInvalidRequest, maxLimit)
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.RecordedFrom > 0 && req.RecordedTo > 0 && req.RecordedFrom > req.RecordedTo {
		return Response{}, fmt.Errorf("%w: empty time window", ErrInvalidRequest)
	}

	filter := ports.RecordFilter{SceneNumber: scene, ActionName: strings.TrimSpace(req.ActionName)}
	if req.RecordedFrom <= 0 && req.RecordedTo <= 0 {
		filter.Limit = req.Limit
	}
	records, err := u.Records.List(ctx, filter)
	if err != nil {
		return Response{}, err
	}
	records = filterByTimeWindow(records, req.RecordedFrom, req.RecordedTo)
	if len(records) > req.Limit {
		records = records[:req.Limit]
	}
	if !req.IncludeWorld {
		for i := range records {
			records[i].BeforeWorldStatus = nil
			records[i].AfterWorldStatus = nil
		}
	}
	return Response{Records: records, Summary: summarize(records)}, nil
}

// Detail loads one record and recomputes its object changes.
func (u UseCase) Detail(ctx context.Context, req DetailRequest) (Detail, error) {
	if req.SceneNumber <= 0 || req.Counter <= 0 {
		return Detail{}, fmt.Errorf("%w: scene and counter are required", ErrInvalidRequest)
	}
	rec, err := u.Records.Get(ctx, req.SceneNumber, req.Counter)
	if err != nil {
		return Detail{}, err
	}
	out := Detail{Record: rec, Changes: []world.ObjectChange{}}
	if len(rec.BeforeWorldStatus) == 0 || len(rec.AfterWorldStatus) == 0 {
		return out, nil
	}
	before, err := world.DecodeSnapshot(rec.BeforeWorldStatus)
	if err != nil {
		return Detail{}, fmt.Errorf("before world status: %w", err)
	}
	after, err := world.DecodeSnapshot(rec.AfterWorldStatus)
	if err != nil {
		return Detail{}, fmt.Errorf("after world status: %w", err)
	}
	changes, err := world.Diff(before, after)
	if err != nil {
		return Detail{}, err
	}
	if changes != nil {
		out.Changes = changes
	}
	return out, nil
}

func sceneNumber(scene string, n int) (int, error) {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative scene number", ErrInvalidRequest)
		}
		return n, nil
	}
	parsed, ok := world.SceneNumber(scene)
	if !ok {
		return 0, fmt.Errorf("%w: unknown scene %q", ErrInvalidRequest, scene)
	}
	if n != 0 && n != parsed {
		return 0, fmt.Errorf("%w: scene %s is not number %d", ErrInvalidRequest, scene, n)
	}
	return parsed, nil
}

func filterByTimeWindow(records []ports.ActionRecord, from, to int64) []ports.ActionRecord {
	if from <= 0 && to <= 0 {
		return records
	}
	out := make([]ports.ActionRecord, 0, len(records))
	for _, rec := range records {
		ts := rec.RecordedAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func summarize(records []ports.ActionRecord) Summary {
	s := Summary{Count: len(records), ByOutcome: map[string]int{}, ByProblem: map[string]int{}}
	for _, rec := range records {
		outcome := rec.Outcome
		if outcome == "" {
			outcome = "unknown"
		}
		s.ByOutcome[outcome]++
		s.ByProblem[rec.Problem]++
	}
	return s
}
