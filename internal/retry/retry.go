// Package retry implements the driver's trailing-failure retry policy:
// how many consecutive failures an issue has accumulated, whether that
// warrants a warning or a block, and the comments that record either.
// The block marker itself is written by store.Block.
package retry

import (
	"fmt"
	"strings"

	"github.com/basketlab/walkdrv/internal/types"
)

// DefaultMaxFailures is the trailing-failure count at which an issue is
// blocked, absent a walk-level override.
const DefaultMaxFailures = 3

// ConsecutiveFailures counts the trailing runs with a non-nil,
// non-zero exit code, stopping at the first success. Runs with a nil
// exit code (signalled or interrupted) are skipped entirely: neither
// counted nor treated as breaking the streak, so an external SIGINT
// never drives an issue toward blocking.
func ConsecutiveFailures(runs []types.Run) int {
	n := 0
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		if run.ExitCode == nil {
			continue
		}
		if *run.ExitCode == 0 {
			break
		}
		n++
	}
	return n
}

// ShouldWarn reports whether n is one short of the blocking threshold.
func ShouldWarn(n, maxFailures int) bool {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return n == maxFailures-1
}

// ShouldBlock reports whether n has reached or passed the blocking
// threshold.
func ShouldBlock(n, maxFailures int) bool {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return n >= maxFailures
}

// BlockComment renders the comment body explaining why an issue was
// blocked and how to unblock it, naming the failing trailing runs.
func BlockComment(n int, failingRunIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "blocked by driver after %d consecutive failures.\n\n", n)
	if len(failingRunIDs) > 0 {
		b.WriteString("failing runs: ")
		b.WriteString(strings.Join(failingRunIDs, ", "))
		b.WriteString("\n\n")
	}
	b.WriteString("to unblock, delete the blocked_by_driver marker in this issue's directory.\n")
	return b.String()
}

// WarnComment renders the comment body appended when an issue is one
// failure away from being blocked.
func WarnComment(n, maxFailures int) string {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	return fmt.Sprintf("warning: %d consecutive failures; will be blocked by driver after %d.", n, maxFailures)
}

// FailingRunIDs returns the ids of the trailing failing runs counted by
// ConsecutiveFailures, in chronological order.
func FailingRunIDs(runs []types.Run) []string {
	var ids []string
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		if run.ExitCode == nil {
			continue
		}
		if *run.ExitCode == 0 {
			break
		}
		ids = append(ids, run.ID)
	}
	// reverse into chronological order
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}
