package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basketlab/walkdrv/internal/types"
)

func intp(n int) *int { return &n }

func TestConsecutiveFailures(t *testing.T) {
	runs := []types.Run{
		{ID: "1", ExitCode: intp(0)},
		{ID: "2", ExitCode: intp(1)},
		{ID: "3", ExitCode: nil},
		{ID: "4", ExitCode: intp(1)},
		{ID: "5", ExitCode: intp(2)},
	}
	assert.Equal(t, 3, ConsecutiveFailures(runs))
}

func TestConsecutiveFailuresAllFail(t *testing.T) {
	runs := []types.Run{
		{ID: "1", ExitCode: intp(1)},
		{ID: "2", ExitCode: intp(1)},
	}
	assert.Equal(t, 2, ConsecutiveFailures(runs))
}

func TestConsecutiveFailuresSignalledSkipped(t *testing.T) {
	runs := []types.Run{
		{ID: "1", ExitCode: intp(1)},
		{ID: "2", ExitCode: nil, Signalled: true},
	}
	assert.Equal(t, 1, ConsecutiveFailures(runs))
}

func TestShouldWarnAndBlock(t *testing.T) {
	assert.True(t, ShouldWarn(2, 3))
	assert.False(t, ShouldWarn(1, 3))
	assert.False(t, ShouldBlock(2, 3))
	assert.True(t, ShouldBlock(3, 3))
	assert.True(t, ShouldBlock(4, 3))
}

func TestShouldWarnBlockDefaultMaxFailures(t *testing.T) {
	assert.True(t, ShouldWarn(DefaultMaxFailures-1, 0))
	assert.True(t, ShouldBlock(DefaultMaxFailures, 0))
}

func TestFailingRunIDsChronological(t *testing.T) {
	runs := []types.Run{
		{ID: "a", ExitCode: intp(0)},
		{ID: "b", ExitCode: intp(1)},
		{ID: "c", ExitCode: intp(1)},
	}
	assert.Equal(t, []string{"b", "c"}, FailingRunIDs(runs))
}

func TestBlockCommentNamesFailingRuns(t *testing.T) {
	comment := BlockComment(3, []string{"run-1", "run-2", "run-3"})
	assert.Contains(t, comment, "3 consecutive failures")
	assert.Contains(t, comment, "run-1, run-2, run-3")
	assert.Contains(t, comment, "blocked_by_driver")
}

func TestWarnComment(t *testing.T) {
	comment := WarnComment(2, 3)
	assert.Contains(t, comment, "2 consecutive failures")
	assert.Contains(t, comment, "after 3")
}
