package replay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"thorplan/internal/adapter/repo/memory"
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

func seeded(t *testing.T, recs ...ports.ActionRecord) ports.ActionRecordRepository {
	t.Helper()
	repo := memory.NewActionRecordRepo(memory.NewStore())
	for _, rec := range recs {
		if err := repo.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo
}

func rec(scene, counter int, problem, outcome string, at int64) ports.ActionRecord {
	return ports.ActionRecord{
		SceneNumber:       scene,
		ActionCounter:     counter,
		Problem:           problem,
		Outcome:           outcome,
		BeforeWorldStatus: []byte(`{"objects":[]}`),
		AfterWorldStatus:  []byte(`{"objects":[]}`),
		RecordedAt:        time.Unix(at, 0),
	}
}

func TestUseCase_ListsNewestFirstWithSummary(t *testing.T) {
	uc := UseCase{Records: seeded(t,
		rec(1, 1, "pickup", "ok", 10),
		rec(1, 2, "open", "planner_timed_out", 20),
		rec(1, 3, "pickup", "ok", 30),
		rec(2, 1, "cook", "ok", 40),
	)}
	out, err := uc.Execute(context.Background(), Request{Scene: "FloorPlan1"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out.Records) != 3 || out.Records[0].ActionCounter != 3 {
		t.Fatalf("unexpected records %+v", out.Records)
	}
	if out.Summary.ByOutcome["ok"] != 2 || out.Summary.ByProblem["pickup"] != 2 {
		t.Fatalf("unexpected summary %+v", out.Summary)
	}
	if out.Records[0].BeforeWorldStatus != nil {
		t.Fatalf("world statuses must be dropped unless requested")
	}
}

func TestUseCase_TimeWindowAndLimit(t *testing.T) {
	uc := UseCase{Records: seeded(t,
		rec(1, 1, "pickup", "ok", 10),
		rec(1, 2, "open", "ok", 20),
		rec(1, 3, "close", "ok", 30),
	)}
	out, err := uc.Execute(context.Background(), Request{SceneNumber: 1, RecordedFrom: 15, Limit: 1, IncludeWorld: true})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(out.Records) != 1 || out.Records[0].ActionCounter != 3 || out.Records[0].BeforeWorldStatus == nil {
		t.Fatalf("unexpected records %+v", out.Records)
	}
}

func TestUseCase_RejectsBadRequests(t *testing.T) {
	uc := UseCase{Records: seeded(t)}
	for _, req := range []Request{
		{Scene: "Kitchen"},
		{Scene: "FloorPlan2", SceneNumber: 3},
		{Limit: maxLimit + 1},
		{RecordedFrom: 20, RecordedTo: 10},
	} {
		if _, err := uc.Execute(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %+v, got %v", req, err)
		}
	}
}

func TestUseCase_DetailRecomputesChanges(t *testing.T) {
	before, _ := json.Marshal(map[string]any{"objects": []map[string]any{{"objectId": "Mug_1", "objectType": "Mug", "isPickedUp": false}}})
	after, _ := json.Marshal(map[string]any{"objects": []map[string]any{{"objectId": "Mug_1", "objectType": "Mug", "isPickedUp": true}}})
	r := rec(1, 1, "pickup", "ok", 10)
	r.BeforeWorldStatus, r.AfterWorldStatus = before, after
	uc := UseCase{Records: seeded(t, r)}

	d, err := uc.Detail(context.Background(), DetailRequest{SceneNumber: 1, Counter: 1})
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if len(d.Changes) != 1 || d.Changes[0].ObjectID != "Mug_1" || d.Changes[0].Kind != world.ChangeModified {
		t.Fatalf("unexpected changes %+v", d.Changes)
	}
	if _, err := uc.Detail(context.Background(), DetailRequest{SceneNumber: 1, Counter: 9}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
