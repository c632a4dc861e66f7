// Package prompt assembles the two deterministic text artifacts the
// driver hands to worker subprocesses: the worker prompt (one issue,
// one invocation) and the planner prompt (a whole snapshot). Both are
// pure functions of their input structs (WorkerContext, PlannerContext)
// — no call inside template
// execution ever touches the clock or the filesystem.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// Builder renders the worker and planner templates against a snapshot.
type Builder struct {
	worker   *template.Template
	planner  *template.Template
}

// NewBuilder parses both templates once; a malformed template is a
// programming error, not a runtime condition, so NewBuilder returning
// an error is only ever exercised by the package's own tests.
func NewBuilder() (*Builder, error) {
	funcs := template.FuncMap{
		"formatTime": formatTime,
		"truncate":   truncate,
		"bytesize":   byteSize,
	}

	worker, err := template.New("worker").Funcs(funcs).Parse(workerTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing worker template: %w", err)
	}
	planner, err := template.New("planner").Funcs(funcs).Parse(plannerTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing planner template: %w", err)
	}
	return &Builder{worker: worker, planner: planner}, nil
}

// WorkerContext is the data a single worker invocation's prompt is
// rendered from: one issue, plus the parts of the snapshot that apply
// to every issue (walk goals, the discovery-parent annotation).
type WorkerContext struct {
	WalkDir       string
	ContextFile   string // body of an optional shared context file, already loaded
	WalkTitle     string
	WalkGoals     string
	Issue         *types.Issue
	ParentSlugs   []string // derived_from, for the discovery annotation
	MaxFailures   int
}

// BuildWorkerPrompt renders the worker prompt: preamble, context file,
// parent context, issue block, epilogue.
func (b *Builder) BuildWorkerPrompt(ctx WorkerContext) (string, error) {
	if ctx.Issue == nil {
		return "", fmt.Errorf("worker prompt requires an issue")
	}
	var buf bytes.Buffer
	if err := b.worker.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("executing worker template: %w", err)
	}
	return buf.String(), nil
}

// PlannerContext wraps a snapshot with the threshold state the driver
// tracks outside the store (the adaptive planning threshold is driver
// state, not store state, so it is passed in rather than read back).
type PlannerContext struct {
	Snapshot          *types.Snapshot
	RecentClosed      []RecentClosedEpoch
	PlanningThreshold int64
}

// RecentClosedEpoch is one epoch's worth of recently-closed issues, as
// grouped by store.RecentClosed.
type RecentClosedEpoch struct {
	Epoch  int
	Issues []*types.Issue
}

// BuildPlannerPrompt renders the planner prompt: epoch status, goals,
// recently-closed table, open-issue listing, memories/proposals
// tables, context-pressure section, and the fixed five-step protocol.
func (b *Builder) BuildPlannerPrompt(ctx PlannerContext) (string, error) {
	if ctx.Snapshot == nil {
		return "", fmt.Errorf("planner prompt requires a snapshot")
	}
	var buf bytes.Buffer
	if err := b.planner.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("executing planner template: %w", err)
	}
	return buf.String(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func byteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), "KMGTPE"[exp])
}
