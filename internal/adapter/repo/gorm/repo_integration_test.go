package gormrepo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"thorplan/db"
	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("THORPLAN_DB_DSN")
	if dsn == "" {
		t.Skip("THORPLAN_DB_DSN is required for integration test")
	}
	return dsn
}

func TestActionRecordRepo_RoundTripAndConflict(t *testing.T) {
	dsn := requireDSN(t)
	gdb, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx := context.Background()
	if err := ApplyMigrations(ctx, gdb, db.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	const scene = 9901
	_ = gdb.Exec("DELETE FROM action_records WHERE scene_number = ?", scene).Error

	repo := NewActionRecordRepo(gdb)
	rec := ports.ActionRecord{
		CycleID:           "it-cycle",
		SceneNumber:       scene,
		ActionName:        "Cook Object",
		ActionCounter:     1,
		Problem:           "cook",
		ProblemPath:       "/tmp/problems/problem1.pddl",
		ActionObjectiveID: "Potato_1",
		Outcome:           "ok",
		BeforeWorldStatus: []byte(`{"objects":[]}`),
		AfterWorldStatus:  []byte(`{"objects":[]}`),
		TargetChanges:     []world.ChangePath{{"isCooked"}},
		RecordedAt:        time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, rec); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
	got, err := repo.Get(ctx, scene, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ActionObjectiveID != "Potato_1" || len(got.TargetChanges) != 1 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestTxManager_RollbackDiscardsRecord(t *testing.T) {
	dsn := requireDSN(t)
	gdb, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	ctx := context.Background()
	if err := ApplyMigrations(ctx, gdb, db.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	const scene = 9902
	_ = gdb.Exec("DELETE FROM action_records WHERE scene_number = ?", scene).Error

	repo := NewActionRecordRepo(gdb)
	tx := NewTxManager(gdb)
	boom := errors.New("boom")
	err = tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.Save(ctx, ports.ActionRecord{
			SceneNumber: scene, ActionCounter: 1, ActionName: "Break Object", Problem: "break",
			BeforeWorldStatus: []byte(`{}`), AfterWorldStatus: []byte(`{}`), RecordedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := repo.Get(ctx, scene, 1); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
	list, err := repo.List(ctx, ports.RecordFilter{SceneNumber: scene})
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v %v", list, err)
	}
}
