// Package planning implements the planning lifecycle: incrementing the
// epoch, assembling and running the planner prompt, and dispatching on
// its declared outcome.
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/basketlab/walkdrv/internal/agent"
	"github.com/basketlab/walkdrv/internal/prompt"
	"github.com/basketlab/walkdrv/internal/report"
	"github.com/basketlab/walkdrv/internal/store"
	"github.com/basketlab/walkdrv/internal/types"
)

// Options configures one planning round.
type Options struct {
	Command           string
	Mode              agent.Mode
	Timeout           time.Duration
	PlanningThreshold int64
}

// Result is what a planning round produced, for the driver to act on.
type Result struct {
	Epoch          int
	Outcome        types.PlanningOutcome
	Reason         string
	OpenBefore     int
	OpenAfter      int
	NewIssuesCount int
	ShouldFinalize bool
	FinalStatus    types.WalkStatus
}

// RunRound executes one full planning round against walkDir.
func RunRound(ctx context.Context, st *store.Store, pb *prompt.Builder, walkDir string, opts Options) (*Result, error) {
	before, err := st.List(types.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("listing open issues before planning: %w", err)
	}

	epoch, err := st.IncrementEpoch()
	if err != nil {
		return nil, fmt.Errorf("incrementing epoch: %w", err)
	}

	snapshot, err := st.Snapshot(time.Now())
	if err != nil {
		return nil, fmt.Errorf("taking snapshot: %w", err)
	}
	recent, err := st.RecentClosed(snapshot.RecentClosedBytesThreshold)
	if err != nil {
		return nil, fmt.Errorf("computing recently closed: %w", err)
	}
	recentCtx := make([]prompt.RecentClosedEpoch, 0, len(recent))
	for _, g := range recent {
		recentCtx = append(recentCtx, prompt.RecentClosedEpoch{Epoch: g.Epoch, Issues: g.Issues})
	}

	promptText, err := pb.BuildPlannerPrompt(prompt.PlannerContext{
		Snapshot:          snapshot,
		RecentClosed:      recentCtx,
		PlanningThreshold: opts.PlanningThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("building planner prompt: %w", err)
	}

	_, err = agent.Run(ctx, agent.Config{
		Command:    opts.Command,
		Mode:       opts.Mode,
		WorkingDir: walkDir,
		Timeout:    opts.Timeout,
		WalkDir:    walkDir,
		Planning:   true,
	}, promptText)
	if err != nil {
		return nil, fmt.Errorf("running planner: %w", err)
	}

	after, err := st.List(types.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("listing open issues after planning: %w", err)
	}

	res := &Result{
		Epoch:      epoch,
		OpenBefore: len(before),
		OpenAfter:  len(after),
	}
	res.NewIssuesCount = res.OpenAfter - res.OpenBefore
	if res.NewIssuesCount < 0 {
		res.NewIssuesCount = 0
	}

	raw, err := st.ReadPlanningResult()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			res.Outcome, res.Reason = fallbackOutcome(res.NewIssuesCount)
			return res, nil
		}
		return nil, fmt.Errorf("reading planning result: %w", err)
	}

	pr, err := decodePlanningResult(raw)
	if err != nil || !pr.Outcome.IsValid() {
		res.Outcome, res.Reason = fallbackOutcome(res.NewIssuesCount)
		return res, nil
	}

	res.Outcome = pr.Outcome
	res.Reason = pr.Reason

	switch pr.Outcome {
	case types.OutcomeCompleted:
		res.ShouldFinalize = true
		res.FinalStatus = types.WalkCompleted
	case types.OutcomeCreatedIssues, types.OutcomeNoWorkFound:
		// driver continues the loop
	}
	return res, nil
}

// fallbackOutcome applies spec.md's fallback rule when the planner
// left no result file or declared an unrecognised one: treat new open
// issues as "created_issues", otherwise as "no_work_found".
func fallbackOutcome(newIssues int) (types.PlanningOutcome, string) {
	if newIssues > 0 {
		return types.OutcomeCreatedIssues, "inferred from open-issue count (no usable planning result file)"
	}
	return types.OutcomeNoWorkFound, "inferred from open-issue count (no usable planning result file)"
}

// Finalize marks the walk terminal and writes its summary, using
// internal/report's pure renderer.
func Finalize(st *store.Store, status types.WalkStatus, reason string) error {
	snapshot, err := st.Snapshot(time.Now())
	if err != nil {
		return fmt.Errorf("taking snapshot for finalize: %w", err)
	}
	summary := report.RenderSummary(snapshot, status, reason)
	return st.FinalizeWalk(status, reason, summary)
}
