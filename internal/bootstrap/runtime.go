// Package bootstrap turns a loaded config into the adapters both commands
// run on.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"thorplan/db"
	embeddeddomains "thorplan/internal/adapter/domains/embedded"
	staticdomains "thorplan/internal/adapter/domains/static"
	metricsinmem "thorplan/internal/adapter/metrics/inmemory"
	"thorplan/internal/adapter/planner/ff"
	gormrepo "thorplan/internal/adapter/repo/gorm"
	"thorplan/internal/adapter/repo/jsonfile"
	"thorplan/internal/adapter/repo/memory"
	sqliterepo "thorplan/internal/adapter/repo/sqlite"
	memsim "thorplan/internal/adapter/simulator/memory"
	"thorplan/internal/adapter/simulator/wsbridge"
	"thorplan/internal/adapter/tracelog"
	"thorplan/internal/app/action"
	"thorplan/internal/app/domains"
	"thorplan/internal/app/ports"
	"thorplan/internal/config"
	"thorplan/internal/domain/pddl"
)

type Runtime struct {
	Config    config.Config
	Logger    *slog.Logger
	Records   ports.ActionRecordRepository
	TxManager ports.TxManager
	// Serial is nil when TxManager already serializes cycles.
	Serial    sync.Locker
	Simulator ports.Simulator
	Solver    ports.Solver
	Metrics   *metricsinmem.Recorder
	Tracer    ports.CycleTracer
	Domains   domains.UseCase

	closers []func() error
}

func NewLogger(cfg config.Config) *slog.Logger {
	lvl, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Build opens the record store and the simulator, then writes the built-in
// domain files into the solver's domain directory unless custom domains are
// configured.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: metricsinmem.NewRecorder(),
		Solver: ff.Invoker{
			Binary:    cfg.Solver.Binary,
			WorkDir:   cfg.Solver.WorkDir,
			DomainDir: cfg.Solver.DomainDir,
			Logger:    logger,
		},
	}
	if err := rt.openStore(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.openSimulator()
	if cfg.TraceDir != "" {
		w := tracelog.New(cfg.TraceDir, "cycles")
		rt.Tracer = w
		rt.closers = append(rt.closers, w.Close)
	}

	if !cfg.Solver.CustomDomains {
		written, err := domains.UseCase{Provider: embeddeddomains.Provider{}}.Materialize(ctx, cfg.Solver.DomainDir)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("materialize domains: %w", err)
		}
		logger.Info("domain files ready", "dir", cfg.Solver.DomainDir, "written", written)
	}
	// Served from disk so the listing matches what the solver reads.
	rt.Domains = domains.UseCase{
		Provider: staticdomains.Provider{Root: cfg.Solver.DomainDir},
		Unified:  cfg.Solver.UnifiedDomain,
	}
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) error {
	cfg := rt.Config.Store
	switch cfg.Kind {
	case config.StoreMemory:
		store := memory.NewStore()
		rt.Records = memory.NewActionRecordRepo(store)
		rt.TxManager = memory.NewTxManager(store)
		return nil
	case config.StoreJSONFile:
		repo, err := jsonfile.New(jsonfile.Options{Dir: cfg.Dir, Compress: cfg.Compress})
		if err != nil {
			return err
		}
		rt.Records = repo
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
		repo, err := sqliterepo.Open(filepath.Join(cfg.Dir, "records.sqlite"))
		if err != nil {
			return err
		}
		rt.Records = repo
		rt.closers = append(rt.closers, repo.Close)
	case config.StorePostgres:
		gdb, err := gormrepo.OpenPostgres(cfg.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		if err := gormrepo.ApplyMigrations(ctx, gdb, db.Migrations()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		rt.Records = gormrepo.NewActionRecordRepo(gdb)
		rt.TxManager = gormrepo.NewTxManager(gdb)
		rt.Serial = &sync.Mutex{}
		if sqlDB, err := gdb.DB(); err == nil {
			rt.closers = append(rt.closers, sqlDB.Close)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown store kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
	// File-backed stores have no transactions of their own.
	rt.TxManager = directTx{}
	rt.Serial = &sync.Mutex{}
	return nil
}

func (rt *Runtime) openSimulator() {
	cfg := rt.Config.Simulator
	if cfg.Mode == config.SimulatorWS {
		b := wsbridge.New(wsbridge.Config{URL: cfg.URL})
		rt.Simulator = b
		rt.closers = append(rt.closers, b.Close)
		return
	}
	rt.Simulator = memsim.New()
}

// ActionUseCase wires one pipeline over the runtime's adapters.
func (rt *Runtime) ActionUseCase() action.UseCase {
	cfg := rt.Config.Solver
	return action.UseCase{
		TxManager: rt.TxManager,
		Serial:    rt.Serial,
		Simulator: rt.Simulator,
		Solver:    rt.Solver,
		Encoder:   pddl.Encoder{Unified: cfg.UnifiedDomain},
		Records:   rt.Records,
		Metrics:   rt.Metrics,
		Tracer:    rt.Tracer,
		Logger:    rt.Logger,
		Search: ports.SearchConfig{
			Search:   cfg.Search,
			Weight:   cfg.Weight,
			Optimize: cfg.Optimize,
		},
		Deadline:      cfg.Timeout,
		SolveAttempts: cfg.Attempts,
	}
}

// Close releases adapters in reverse opening order.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

type directTx struct{}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
