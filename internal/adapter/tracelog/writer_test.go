package tracelog

import (
	"context"
	"os"
	"testing"
	"time"

	"thorplan/internal/app/ports"
)

func TestWriter_AppendsAndReadsBack(t *testing.T) {
	w := New(t.TempDir(), "")
	at := time.Date(2026, 3, 1, 10, 15, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		err := w.Trace(context.Background(), ports.CycleTrace{
			CycleID:     "c",
			Counter:     i,
			Kind:        "pickup",
			Outcome:     "ok",
			Steps:       []string{"pickup mug_1"},
			FailedStep:  -1,
			CompletedAt: at.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("trace: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, err := ReadTraces(w.Path(at))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 || got[2].Counter != 3 || got[0].Steps[0] != "pickup mug_1" {
		t.Fatalf("unexpected traces %+v", got)
	}
}

func TestWriter_RotatesHourly(t *testing.T) {
	w := New(t.TempDir(), "cycles")
	first := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	second := first.Add(2 * time.Minute)
	_ = w.Trace(context.Background(), ports.CycleTrace{Counter: 1, CompletedAt: first})
	_ = w.Trace(context.Background(), ports.CycleTrace{Counter: 2, CompletedAt: second})
	_ = w.Close()

	for _, at := range []time.Time{first, second} {
		if _, err := os.Stat(w.Path(at)); err != nil {
			t.Fatalf("expected file for %v: %v", at, err)
		}
		got, err := ReadTraces(w.Path(at))
		if err != nil || len(got) != 1 {
			t.Fatalf("expected one trace per hour file, got %v %v", got, err)
		}
	}
}

func TestWriter_ReopenAppends(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w := New(dir, "cycles")
	_ = w.Trace(context.Background(), ports.CycleTrace{Counter: 1, CompletedAt: at})
	_ = w.Close()
	w = New(dir, "cycles")
	_ = w.Trace(context.Background(), ports.CycleTrace{Counter: 2, CompletedAt: at})
	_ = w.Close()

	got, err := ReadTraces(w.Path(at))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both sessions in one file, got %d", len(got))
	}
}
