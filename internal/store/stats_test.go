package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/types"
)

func TestNewContextSinceCollectsRecentClosures(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "fix-thing")
	before := time.Now()
	_, err := s.Close(CloseRequest{Slug: "fix-thing", Reason: "done", Signal: types.SignalPivotal})
	require.NoError(t, err)

	ctx, err := s.NewContextSince(before)
	require.NoError(t, err)
	assert.Contains(t, ctx.Issues, "fix-thing")
	assert.Contains(t, ctx.Signals, types.SignalPivotal)

	after := time.Now()
	ctx, err = s.NewContextSince(after)
	require.NoError(t, err)
	assert.Empty(t, ctx.Issues)
}

func TestExpansionStatsExcludesZeroBodyIssues(t *testing.T) {
	s := newTestStore(t)
	issue := types.Issue{Slug: "fix-thing", Title: "x", Body: "", Type: "task"}
	_, err := s.Create(issue)
	require.NoError(t, err)
	_, err = s.Close(CloseRequest{Slug: "fix-thing", Reason: "done"})
	require.NoError(t, err)

	stats, err := s.ExpansionStats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestExpansionStatsAggregatesByType(t *testing.T) {
	s := newTestStore(t)
	issue := types.Issue{Slug: "fix-thing", Title: "x", Body: "some body text", Type: "task"}
	_, err := s.Create(issue)
	require.NoError(t, err)
	_, err = s.Close(CloseRequest{Slug: "fix-thing", Reason: "done with a reasonably long explanation"})
	require.NoError(t, err)

	stats, err := s.ExpansionStats()
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	var overall *types.ExpansionStat
	for i := range stats {
		if stats[i].Type == "" {
			overall = &stats[i]
		}
	}
	require.NotNil(t, overall)
	assert.Equal(t, 1, overall.Count)
}

func TestRecentClosedGroupsByEpochNewestFirst(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "first-issue")
	_, err := s.Close(CloseRequest{Slug: "first-issue", Reason: "done"})
	require.NoError(t, err)

	_, err = s.IncrementEpoch()
	require.NoError(t, err)

	createIssue(t, s, "second-issue")
	_, err = s.Close(CloseRequest{Slug: "second-issue", Reason: "done"})
	require.NoError(t, err)

	groups, err := s.RecentClosed(1)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.Equal(t, 2, groups[0].Epoch)
}
