// Command explore drives the planning pipeline over a range of scenes and
// prints a per-kind success tally.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"thorplan/internal/app/explore"
	"thorplan/internal/bootstrap"
	"thorplan/internal/config"
)

func main() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		slog.Error("exploration failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	mode        string
	scenes      string
	seed        uint64
	repetitions int
	depth       int
	reportPath  string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("explore", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to the YAML config")
	fs.StringVar(&opts.mode, "mode", "shallow", "exploration mode: shallow or random")
	fs.StringVar(&opts.scenes, "scenes", "kitchens", "scene selection, e.g. kitchens,201-205,402; empty for all")
	fs.Uint64Var(&opts.seed, "seed", 0, "random seed; 0 picks one")
	fs.IntVar(&opts.repetitions, "repetitions", 1, "random mode: chains per scene and kind")
	fs.IntVar(&opts.depth, "depth", 3, "random mode: cycles per chain")
	fs.StringVar(&opts.reportPath, "report", "", "write the JSON report here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.mode != "shallow" && opts.mode != "random" {
		return opts, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, nil
}

type driver interface {
	Run(ctx context.Context, scenes []int) (*explore.Report, error)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	scenes, err := explore.ParseScenes(opts.scenes, explore.DefaultCatalog())
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.ResolvePath(opts.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := bootstrap.NewLogger(cfg)
	slog.SetDefault(logger)

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer rt.Close()

	base := explore.Base{Simulator: rt.Simulator, Runner: rt.ActionUseCase(), Logger: logger}
	var d driver = explore.Shallow{Base: base}
	if opts.mode == "random" {
		seed := opts.seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		logger.Info("random exploration", "seed", seed, "repetitions", opts.repetitions, "depth", opts.depth)
		d = explore.Random{
			Base:        base,
			Repetitions: opts.repetitions,
			Depth:       opts.depth,
			Rand:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		}
	}

	report, runErr := d.Run(ctx, scenes)
	if report != nil {
		if err := writeReport(report, opts.reportPath, stdout); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}

func writeReport(r *explore.Report, path string, stdout io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	b = append(b, '\n')
	if path == "" {
		_, err = stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
