package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/basketlab/walkdrv/internal/prompt"
	"github.com/basketlab/walkdrv/internal/retry"
	"github.com/basketlab/walkdrv/internal/store"
	"github.com/basketlab/walkdrv/internal/types"
)

// extendedTurnTypes are issue types that typically require
// verification; their subprocess timeout is multiplied by
// extendedTurnMultiplier in either mode. No turn budget is passed to
// the agent command.
var extendedTurnTypes = map[string]bool{
	"fix":             true,
	"ablation":        true,
	"self-modification": true,
}

const extendedTurnMultiplier = 3

// WorkerInvocationOptions configures one InvokeIssue call. Fields left
// zero take the walkconfig defaults the driver resolves before calling
// in.
type WorkerInvocationOptions struct {
	Command     string
	Mode        Mode
	BaseTimeout time.Duration
	MaxFailures int
	WalkTitle   string
	WalkGoals   string
	ContextFile string
}

// Outcome describes what happened to one issue after one invocation,
// for the driver to log and act on.
type Outcome struct {
	Skipped bool // retry policy blocked it; no subprocess ran
	Closed  bool
	Run     *types.Run
}

// preparedInvocation is what prepareInvocation hands off to the
// subprocess spawn: everything the store needed to produce before the
// worker runs.
type preparedInvocation struct {
	issue      *types.Issue
	promptText string
	runDir     string
	runID      string
	startedAt  time.Time
	skipped    bool
}

// InvokeIssue runs the full per-invocation protocol against one open
// issue: retry check, prompt build, run-directory bookkeeping, spawn,
// wait, digest, close detection. mu, if non-nil, is held only around
// the store-mutating bookkeeping before and after the subprocess runs
// — never around the subprocess spawn/wait itself, so concurrent
// callers can run their workers in parallel while still serialising
// writes to the same walk.
func InvokeIssue(ctx context.Context, st *store.Store, pb *prompt.Builder, walkDir, slug string, mu *sync.Mutex, opts WorkerInvocationOptions) (*Outcome, error) {
	prep, err := withLock(mu, func() (*preparedInvocation, error) {
		return prepareInvocation(st, pb, walkDir, slug, opts)
	})
	if err != nil {
		return nil, err
	}
	if prep.skipped {
		return &Outcome{Skipped: true}, nil
	}

	timeout := opts.BaseTimeout
	if extendedTurnTypes[prep.issue.Type] && timeout > 0 {
		timeout *= extendedTurnMultiplier
	}

	res, err := Run(ctx, Config{
		Command:    opts.Command,
		Mode:       opts.Mode,
		WorkingDir: walkDir,
		Timeout:    timeout,
		WalkDir:    walkDir,
		Issue:      slug,
	}, prep.promptText)
	if err != nil {
		return nil, fmt.Errorf("running agent for %s: %w", slug, err)
	}
	res.ID = prep.runID

	return withLock(mu, func() (*Outcome, error) {
		return finishInvocation(st, slug, prep, res, opts)
	})
}

// prepareInvocation runs the retry check, builds the prompt, and opens
// the run directory. Everything here must happen before the worker
// subprocess is spawned.
func prepareInvocation(st *store.Store, pb *prompt.Builder, walkDir, slug string, opts WorkerInvocationOptions) (*preparedInvocation, error) {
	issue, err := st.Show(slug)
	if err != nil {
		return nil, fmt.Errorf("loading issue %s: %w", slug, err)
	}

	n := retry.ConsecutiveFailures(issue.Runs)
	if retry.ShouldBlock(n, opts.MaxFailures) {
		comment := retry.BlockComment(n, retry.FailingRunIDs(issue.Runs))
		if err := st.Block(slug, comment); err != nil {
			return nil, fmt.Errorf("blocking %s: %w", slug, err)
		}
		return &preparedInvocation{skipped: true}, nil
	}
	if retry.ShouldWarn(n, opts.MaxFailures) {
		if err := st.AddComment(slug, "driver", retry.WarnComment(n, opts.MaxFailures)); err != nil {
			return nil, fmt.Errorf("warning %s: %w", slug, err)
		}
	}

	promptText, err := pb.BuildWorkerPrompt(prompt.WorkerContext{
		WalkDir:     walkDir,
		ContextFile: opts.ContextFile,
		WalkTitle:   opts.WalkTitle,
		WalkGoals:   opts.WalkGoals,
		Issue:       issue,
		ParentSlugs: issue.DerivedFrom,
		MaxFailures: opts.MaxFailures,
	})
	if err != nil {
		return nil, fmt.Errorf("building prompt for %s: %w", slug, err)
	}
	lines := strings.Count(promptText, "\n") + 1
	if err := st.AddComment(slug, "driver", fmt.Sprintf("agent started (type=%s, prompt lines=%d)", issue.Type, lines)); err != nil {
		return nil, fmt.Errorf("recording start comment for %s: %w", slug, err)
	}

	startedAt := time.Now()
	runDir, runID, err := st.BeginRun(slug, startedAt)
	if err != nil {
		return nil, fmt.Errorf("beginning run for %s: %w", slug, err)
	}
	if err := store.WriteRunPrompt(runDir, promptText); err != nil {
		return nil, err
	}

	return &preparedInvocation{
		issue:      issue,
		promptText: promptText,
		runDir:     runDir,
		runID:      runID,
		startedAt:  startedAt,
	}, nil
}

// finishInvocation records the run's outcome and resolves close
// detection. Runs after the worker subprocess has exited.
func finishInvocation(st *store.Store, slug string, prep *preparedInvocation, res *Result, opts WorkerInvocationOptions) (*Outcome, error) {
	run := types.Run{
		ID:         prep.runID,
		StartedAt:  prep.startedAt,
		FinishedAt: &res.FinishedAt,
		ExitCode:   res.ExitCode,
		Signalled:  res.Signalled,
		CostUSD:    res.Digest.CostUSD,
		TokenUsage: res.Digest.TokenUsage,
	}

	runDir := prep.runDir
	// Relocation handling: the issue may have been closed (and its
	// directory moved) mid-run by the worker calling the close
	// command directly. Re-resolve where the run directory actually
	// lives before writing meta.
	if !st.IsOpen(slug) {
		actualRunsDir, err := st.RunsDirFor(slug)
		if err == nil {
			runDir = filepath.Join(actualRunsDir, prep.runID)
		}
	}

	if opts.Mode == ModeCapture {
		if err := store.WriteRunOutput(runDir, joinedOutput(res.Stdout), joinedOutput(res.Stderr)); err != nil {
			return nil, err
		}
	}
	if err := store.WriteRunMeta(runDir, run); err != nil {
		return nil, err
	}

	statsComment := fmt.Sprintf(
		"run stats: duration=%dms turns=%d tools=%d status=%s cost=%v",
		res.Digest.DurationMS, res.Digest.NumTurns, sumToolUse(res.Digest.ToolUseCounts), res.Digest.Status, res.Digest.CostUSD,
	)
	if err := st.AddComment(slug, "driver", statsComment); err != nil {
		return nil, fmt.Errorf("recording run-stats comment for %s: %w", slug, err)
	}

	outcome := &Outcome{Run: &run}

	if !st.IsOpen(slug) {
		outcome.Closed = true
		return outcome, nil
	}

	if meta, body, ok := st.DeclaredClose(slug); ok {
		if _, err := st.Close(store.CloseRequest{Slug: slug, Reason: meta.Reason, Body: body, Signal: meta.Signal}); err != nil {
			return nil, fmt.Errorf("closing %s from declared close.meta: %w", slug, err)
		}
		outcome.Closed = true
		return outcome, nil
	}

	if reason, ok := st.HasCloseArtifacts(slug); ok {
		if _, err := st.Close(store.CloseRequest{Slug: slug, Reason: reason}); err != nil {
			return nil, fmt.Errorf("closing %s from result file: %w", slug, err)
		}
		outcome.Closed = true
		return outcome, nil
	}

	if opts.Mode == ModeCapture {
		excerpt := fmt.Sprintf("did not close.\n\nstdout (head):\n%s\n\nstderr (head):\n%s",
			truncateRunes(joinedOutput(res.Stdout), 1000), truncateRunes(joinedOutput(res.Stderr), 500))
		if err := st.AddComment(slug, "driver", excerpt); err != nil {
			return nil, fmt.Errorf("recording did-not-close comment for %s: %w", slug, err)
		}
	}

	return outcome, nil
}

// withLock runs fn under mu, if mu is non-nil, and returns its result.
func withLock[T any](mu *sync.Mutex, fn func() (T, error)) (T, error) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	return fn()
}

func sumToolUse(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
