package main

import (
	"context"
	"path/filepath"
	"testing"

	"thorplan/internal/bootstrap"
	"thorplan/internal/config"
)

func TestNewHandler_WiresRuntime(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Solver.WorkDir = filepath.Join(dir, "pddl")
	cfg.Solver.DomainDir = filepath.Join(dir, "pddl", "domains")

	rt, err := bootstrap.Build(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer rt.Close()

	h := newHandler(rt)
	if h.KPI == nil {
		t.Fatalf("expected kpi provider")
	}
	if h.ReplayUC.Records == nil || h.ObserveUC.Simulator == nil || h.DomainsUC.Provider == nil {
		t.Fatalf("incomplete handler %+v", h)
	}
	if h.ActionUC.Deadline != cfg.Solver.Timeout || h.ActionUC.SolveAttempts != cfg.Solver.Attempts {
		t.Fatalf("solver limits not forwarded: %s x%d", h.ActionUC.Deadline, h.ActionUC.SolveAttempts)
	}
}
