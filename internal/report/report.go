// Package report renders pure markdown summaries of a walk snapshot.
// These functions never touch the filesystem or a terminal — the CLI
// wraps their output in color, and the driver writes RenderSummary's
// output straight to summary.md.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// RenderStatus summarizes a snapshot: open/closed counts, ready count,
// blocked count, current epoch, and which issues are currently blocked
// by the driver's retry policy.
func RenderStatus(snapshot *types.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Status\n\n")
	fmt.Fprintf(&b, "- epoch: %d\n", snapshot.Epoch)
	fmt.Fprintf(&b, "- open: %d\n", len(snapshot.Open))
	fmt.Fprintf(&b, "- closed: %d\n", len(snapshot.Closed))
	fmt.Fprintf(&b, "- ready: %d\n", len(snapshot.Ready))

	var blocked []*types.Issue
	for _, issue := range snapshot.Open {
		if issue.BlockedByDriver {
			blocked = append(blocked, issue)
		}
	}
	fmt.Fprintf(&b, "- blocked by driver: %d\n", len(blocked))
	if len(blocked) > 0 {
		b.WriteString("\n## Blocked issues\n\n")
		for _, issue := range blocked {
			fmt.Fprintf(&b, "- %s — %s\n", issue.Slug, issue.Title)
		}
	}
	return b.String()
}

// RenderHistory lists closed issues newest-first, capped at limit (0
// means unlimited), with epoch, signal, and closed_at.
func RenderHistory(snapshot *types.Snapshot, limit int) string {
	closed := append([]*types.Issue(nil), snapshot.Closed...)
	sort.Slice(closed, func(i, j int) bool {
		a, b := closed[i], closed[j]
		at, bt := time.Time{}, time.Time{}
		if a.ClosedAt != nil {
			at = *a.ClosedAt
		}
		if b.ClosedAt != nil {
			bt = *b.ClosedAt
		}
		return at.After(bt)
	})
	if limit > 0 && len(closed) > limit {
		closed = closed[:limit]
	}

	var b strings.Builder
	b.WriteString("# History\n\n")
	if len(closed) == 0 {
		b.WriteString("(no closed issues)\n")
		return b.String()
	}
	b.WriteString("| epoch | slug | signal | closed_at |\n|---|---|---|---|\n")
	for _, issue := range closed {
		closedAt := "unknown"
		if issue.ClosedAt != nil {
			closedAt = issue.ClosedAt.Format(time.RFC3339)
		}
		signal := issue.Signal
		if signal == "" {
			signal = types.SignalRoutine
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", issue.Epoch, issue.Slug, signal, closedAt)
	}
	return b.String()
}

// RenderSummary is the summary.md contract: timeline by epoch, totals,
// final open-issue listing, and the terminal walk status/reason.
func RenderSummary(snapshot *types.Snapshot, status types.WalkStatus, reason string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", snapshot.Walk.Title)
	fmt.Fprintf(&b, "status: %s\n", status)
	if reason != "" {
		fmt.Fprintf(&b, "reason: %s\n", reason)
	}
	fmt.Fprintf(&b, "epoch: %d\n\n", snapshot.Epoch)

	byEpoch := map[int][]*types.Issue{}
	for _, issue := range snapshot.Closed {
		byEpoch[issue.Epoch] = append(byEpoch[issue.Epoch], issue)
	}
	epochs := make([]int, 0, len(byEpoch))
	for e := range byEpoch {
		epochs = append(epochs, e)
	}
	sort.Ints(epochs)

	b.WriteString("## Timeline\n\n")
	if len(epochs) == 0 {
		b.WriteString("(no issues closed)\n\n")
	}
	for _, e := range epochs {
		fmt.Fprintf(&b, "### Epoch %d\n\n", e)
		for _, issue := range byEpoch[e] {
			fmt.Fprintf(&b, "- %s — %s\n", issue.Slug, issue.Title)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Totals\n\n- closed: %d\n- still open: %d\n\n", len(snapshot.Closed), len(snapshot.Open))

	b.WriteString("## Open issues\n\n")
	if len(snapshot.Open) == 0 {
		b.WriteString("(none)\n")
	}
	for _, issue := range snapshot.Open {
		fmt.Fprintf(&b, "- %s — %s\n", issue.Slug, issue.Title)
	}
	return b.String()
}
