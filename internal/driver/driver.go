// Package driver implements the entry loop: the sequential-or-concurrent
// scheduler that picks ready issues, dispatches workers, triggers
// planning rounds, and handles shutdown — spec.md §4.6.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/basketlab/walkdrv/internal/agent"
	"github.com/basketlab/walkdrv/internal/planning"
	"github.com/basketlab/walkdrv/internal/prompt"
	"github.com/basketlab/walkdrv/internal/store"
	"github.com/basketlab/walkdrv/internal/types"
	"github.com/basketlab/walkdrv/internal/walkconfig"
	"github.com/basketlab/walkdrv/internal/walklock"
)

// RestartExitCode is the distinguished exit code an external
// trampoline interprets as "spawn me again."
const RestartExitCode = 42

// Driver runs the main loop against one walk directory.
type Driver struct {
	store   *store.Store
	prompts *prompt.Builder
	walkDir string
	cfg     walkconfig.Config

	logMu     sync.Mutex
	backendMu sync.Mutex

	shutdown   chan struct{}
	shutdownAt sync.Once

	planningThreshold int64
	lastPlanningTime  time.Time
	instanceID        string

	log *slog.Logger
}

// New builds a driver against walkDir, loading the walk's config
// overrides and layering environment overrides on top.
func New(walkDir string) (*Driver, error) {
	st, err := store.New(walkDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	walk, err := st.ReadWalk()
	if err != nil {
		return nil, fmt.Errorf("reading walk metadata: %w", err)
	}
	cfg := walkconfig.Default().WithWalkOverrides(walk.Config).FromEnv()

	pb, err := prompt.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("building prompt templates: %w", err)
	}

	return &Driver{
		store:             st,
		prompts:           pb,
		walkDir:           walkDir,
		cfg:               cfg,
		shutdown:          make(chan struct{}),
		planningThreshold: cfg.PlanningThresholdInit,
		instanceID:        uuid.NewString(),
		log:               slog.Default(),
	}, nil
}

// Run performs startup (PID-lock acquisition, signal handling), then
// runs either the sequential or concurrent loop depending on
// cfg.MaxConcurrent, and returns the process exit code.
func (d *Driver) Run(ctx context.Context) int {
	if err := walklock.AcquireDriverLock(d.store.DriverLockPath(), d.instanceID); err != nil {
		d.logf("startup refused", "error", err)
		return 1
	}
	defer walklock.ReleaseDriverLock(d.store.DriverLockPath())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go d.handleSignals(sigCh)

	var exitCode int
	var err error
	if d.cfg.MaxConcurrent > 1 {
		exitCode, err = d.runConcurrent(ctx)
	} else {
		exitCode, err = d.runSequential(ctx)
	}
	if err != nil {
		d.logf("driver loop exited with error", "error", err)
		return 1
	}
	return exitCode
}

func (d *Driver) handleSignals(sigCh chan os.Signal) {
	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			d.logf("SIGHUP received, ignoring (reserved for reconfiguration)")
		case syscall.SIGINT, syscall.SIGTERM:
			d.logf("shutdown signal received", "signal", sig.String())
			d.requestShutdown()
		}
	}
}

func (d *Driver) requestShutdown() {
	d.shutdownAt.Do(func() { close(d.shutdown) })
}

func (d *Driver) shuttingDown() bool {
	select {
	case <-d.shutdown:
		return true
	default:
		return false
	}
}

func (d *Driver) logf(msg string, args ...any) {
	d.logMu.Lock()
	defer d.logMu.Unlock()
	d.log.Info(msg, args...)
}

func (d *Driver) shouldPlanNow() bool {
	ctx, err := d.store.NewContextSince(d.lastPlanningTime)
	if err != nil {
		d.logf("checking context pressure failed", "error", err)
		return false
	}
	for _, sig := range ctx.Signals {
		if sig == types.SignalPivotal {
			return true
		}
	}
	if ctx.Bytes > d.planningThreshold {
		for _, sig := range ctx.Signals {
			if sig == types.SignalSurprising {
				return true
			}
		}
	}
	return false
}

func (d *Driver) runPlanningRound(ctx context.Context) (*planning.Result, error) {
	d.backendMu.Lock()
	defer d.backendMu.Unlock()

	result, err := planning.RunRound(ctx, d.store, d.prompts, d.walkDir, planning.Options{
		Command:           d.cfg.AgentCommand,
		Mode:              agent.ModeStream,
		Timeout:           d.cfg.DrainTimeout * 4,
		PlanningThreshold: d.planningThreshold,
	})
	if err != nil {
		return nil, err
	}
	d.lastPlanningTime = time.Now()
	d.adjustPlanningThreshold(result.NewIssuesCount)

	if result.ShouldFinalize {
		if err := planning.Finalize(d.store, result.FinalStatus, result.Reason); err != nil {
			return result, fmt.Errorf("finalizing walk: %w", err)
		}
	}
	return result, nil
}

func (d *Driver) adjustPlanningThreshold(newIssues int) {
	switch {
	case newIssues <= 1:
		d.planningThreshold = int64(float64(d.planningThreshold) * 1.5)
	case newIssues >= 3:
		d.planningThreshold = int64(float64(d.planningThreshold) * 0.75)
	}
	d.planningThreshold = d.cfg.Clamp(d.planningThreshold)
}

func (d *Driver) checkRestart() (bool, error) {
	return d.store.RestartRequested()
}

func (d *Driver) finalize(status types.WalkStatus, reason string) error {
	d.backendMu.Lock()
	defer d.backendMu.Unlock()
	return planning.Finalize(d.store, status, reason)
}

func (d *Driver) workerOptions() agent.WorkerInvocationOptions {
	walk, err := d.store.ReadWalk()
	title, goals := "", ""
	if err == nil {
		title, goals = walk.Title, walk.Body
	}
	return agent.WorkerInvocationOptions{
		Command:     d.cfg.AgentCommand,
		Mode:        agent.ModeStream,
		BaseTimeout: d.cfg.DrainTimeout * 4,
		MaxFailures: d.cfg.MaxFailures,
		WalkTitle:   title,
		WalkGoals:   goals,
	}
}

func (d *Driver) workIssue(ctx context.Context, slug string) {
	// InvokeIssue holds backendMu itself, only around its store writes,
	// so the subprocess spawn/wait below runs unlocked and concurrent
	// workers genuinely overlap.
	outcome, err := agent.InvokeIssue(ctx, d.store, d.prompts, d.walkDir, slug, &d.backendMu, d.workerOptions())
	if err != nil {
		d.logf("work on issue failed", "slug", slug, "error", err)
		return
	}
	if outcome.Skipped {
		d.logf("issue skipped by retry policy", "slug", slug)
	} else if outcome.Closed {
		d.logf("issue closed", "slug", slug)
	}
}

// concurrencySemaphore builds the semaphore.Weighted that caps active
// worker subprocesses in the concurrent loop, mirroring the teacher's
// own AI-call concurrency cap.
func (d *Driver) concurrencySemaphore() *semaphore.Weighted {
	n := d.cfg.MaxConcurrent
	if n < 1 {
		n = 1
	}
	return semaphore.NewWeighted(int64(n))
}
