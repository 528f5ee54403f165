package ff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"thorplan/internal/app/ports"
)

const (
	DefaultBinary   = "ff"
	DefaultDeadline = time.Second
	defaultGrace    = 100 * time.Millisecond
)

// Invoker runs a Metric-FF compatible solver as a child process:
//
//	<binary> -o <domain> -f <problem> [-s N] [-w N] [-O]
//
// with stdout and stderr redirected to an output file.
type Invoker struct {
	Binary    string
	WorkDir   string
	DomainDir string
	// Grace is the pause between SIGTERM and SIGKILL on expiry.
	Grace  time.Duration
	Logger *slog.Logger
}

func (i Invoker) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}

func (i Invoker) ProblemPath(counter int) string {
	return filepath.Join(i.WorkDir, "problems", fmt.Sprintf("problem%d.pddl", counter))
}

func (i Invoker) OutputPath(counter int) string {
	return filepath.Join(i.WorkDir, "outputs", fmt.Sprintf("problem%d.txt", counter))
}

func (i Invoker) Solve(ctx context.Context, req ports.SolveRequest) (ports.RawPlan, error) {
	binary := i.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	bin, err := exec.LookPath(binary)
	if err != nil {
		return ports.RawPlan{}, &ports.SolverNotFoundError{Path: binary, Err: err}
	}

	problemPath := i.ProblemPath(req.Counter)
	outputPath := i.OutputPath(req.Counter)
	for _, dir := range []string{filepath.Dir(problemPath), filepath.Dir(outputPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ports.RawPlan{}, fmt.Errorf("create solver dir: %w", err)
		}
	}
	if err := os.WriteFile(problemPath, req.Problem.Render(), 0o644); err != nil {
		return ports.RawPlan{}, fmt.Errorf("write problem: %w", err)
	}

	domainPath := req.Domain.Path
	if domainPath == "" {
		domainPath = filepath.Join(i.DomainDir, req.Domain.Name)
	}
	args := append([]string{"-o", domainPath, "-f", problemPath}, searchArgs(req.Search)...)

	out, err := os.Create(outputPath)
	if err != nil {
		return ports.RawPlan{}, fmt.Errorf("create solver output: %w", err)
	}
	cmd := exec.Command(bin, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	setupSysProcAttr(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		_ = out.Close()
		return ports.RawPlan{}, &ports.SolverNotFoundError{Path: bin, Err: err}
	}
	pid := cmd.Process.Pid

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	deadline := req.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		i.terminate(cmd, done, out, outputPath)
		i.logger().Warn("solver deadline exceeded", "pid", pid, "deadline", deadline, "problem", problemPath)
		return ports.RawPlan{}, &ports.PlannerTimedOutError{Deadline: deadline, PID: pid}
	case <-ctx.Done():
		i.terminate(cmd, done, out, outputPath)
		return ports.RawPlan{}, fmt.Errorf("solver cancelled: %w", ctx.Err())
	}
	if err := out.Close(); err != nil {
		return ports.RawPlan{}, fmt.Errorf("close solver output: %w", err)
	}
	elapsed := time.Since(started)

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return ports.RawPlan{}, fmt.Errorf("wait for solver: %w", waitErr)
	}
	if exitErr != nil {
		i.logger().Warn("solver exited with error", "pid", pid, "code", exitErr.ExitCode(), "problem", problemPath)
	}

	text, err := os.ReadFile(outputPath)
	if err != nil {
		return ports.RawPlan{}, fmt.Errorf("read solver output: %w", err)
	}
	i.logger().Debug("solver finished", "pid", pid, "elapsed", elapsed, "output", outputPath)
	return ports.RawPlan{
		Text:        string(text),
		ProblemPath: problemPath,
		OutputPath:  outputPath,
		Elapsed:     elapsed,
	}, nil
}

// terminate kills the process group, reaps the child and drops the partial
// output so that nothing truncated is mistaken for a plan.
func (i Invoker) terminate(cmd *exec.Cmd, done <-chan error, out *os.File, outputPath string) {
	grace := i.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	killProcessGroup(cmd, grace)
	<-done
	_ = out.Close()
	_ = os.Remove(outputPath)
}

func searchArgs(cfg ports.SearchConfig) []string {
	var args []string
	if cfg.Search > 0 {
		args = append(args, "-s", strconv.Itoa(cfg.Search))
	}
	if cfg.Weight > 0 {
		args = append(args, "-w", strconv.Itoa(cfg.Weight))
	}
	if cfg.Optimize {
		args = append(args, "-O")
	}
	return args
}
