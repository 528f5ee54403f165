package inmemory

import (
	"testing"

	"thorplan/internal/domain/action"
)

func TestRecorderSnapshot(t *testing.T) {
	r := NewRecorder()
	r.RecordSuccess(action.KindPickup)
	r.RecordSuccess(action.KindOpen)
	r.RecordFailure(action.KindOpen, "planner_timed_out")
	r.RecordFailure(action.KindSlice, "encoding_error")

	s := r.Snapshot()
	if s.ActionTotal != 4 {
		t.Fatalf("expected total 4, got %d", s.ActionTotal)
	}
	if s.ActionSuccess != 2 || s.ActionFailure != 2 {
		t.Fatalf("expected 2/2, got %d/%d", s.ActionSuccess, s.ActionFailure)
	}
	if s.ByOutcome["ok"] != 2 || s.ByOutcome["planner_timed_out"] != 1 {
		t.Fatalf("unexpected outcome counts %+v", s.ByOutcome)
	}
	open := s.ByKind["open"]
	if open.Success != 1 || open.Failure != 1 || open.ByOutcome["planner_timed_out"] != 1 {
		t.Fatalf("unexpected open counts %+v", open)
	}
	if len(s.Kinds) != 3 || s.Kinds[0] != "pickup" || s.Kinds[2] != "slice" {
		t.Fatalf("expected menu order, got %v", s.Kinds)
	}
}

func TestRecorderSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.RecordFailure(action.KindCook, "dispatch_error")
	s := r.Snapshot()
	s.ByKind["cook"].ByOutcome["dispatch_error"] = 99
	if r.Snapshot().ByKind["cook"].ByOutcome["dispatch_error"] != 1 {
		t.Fatalf("snapshot shares state with recorder")
	}
}
