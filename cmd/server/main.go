package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"strings"

	httpadapter "thorplan/internal/adapter/http"
	"thorplan/internal/app/observe"
	"thorplan/internal/app/replay"
	"thorplan/internal/bootstrap"
	"thorplan/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default $THORPLAN_CONFIG or ./"+config.DefaultFile+")")
	flag.Parse()
	_ = godotenv.Load(".env")

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("build runtime: %v", err)
	}
	if scene := strings.TrimSpace(cfg.Simulator.Scene); scene != "" {
		if _, err := rt.Simulator.Reset(ctx, scene); err != nil {
			logger.Warn("initial scene not loaded", "scene", scene, "error", err)
		}
	}

	h := newHandler(rt)

	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	s.OnShutdown = append(s.OnShutdown, func(context.Context) {
		if err := rt.Close(); err != nil {
			logger.Warn("close runtime", "error", err)
		}
	})
	h.RegisterRoutes(s)

	logger.Info("thorplan server listening",
		"addr", cfg.HTTPAddr,
		"simulator", cfg.Simulator.Mode,
		"store", cfg.Store.Kind,
		"solver", cfg.Solver.Binary,
	)
	s.Spin()
}

func newHandler(rt *bootstrap.Runtime) httpadapter.Handler {
	return httpadapter.Handler{
		ActionUC:  rt.ActionUseCase(),
		ObserveUC: observe.UseCase{Simulator: rt.Simulator},
		ReplayUC:  replay.UseCase{Records: rt.Records},
		DomainsUC: rt.Domains,
		KPI:       rt.Metrics,
	}
}
