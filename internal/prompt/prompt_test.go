package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/types"
)

func TestBuildWorkerPromptRequiresIssue(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	_, err = b.BuildWorkerPrompt(WorkerContext{})
	require.Error(t, err)
}

func TestBuildWorkerPromptIncludesIssueFields(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	out, err := b.BuildWorkerPrompt(WorkerContext{
		WalkDir:     "/tmp/walk",
		WalkTitle:   "Investigate latency regression",
		WalkGoals:   "find root cause",
		Issue:       &types.Issue{Slug: "fix-thing", Title: "Fix the thing", Body: "details here"},
		ParentSlugs: []string{"root-issue"},
		MaxFailures: 3,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "fix-thing")
	assert.Contains(t, out, "Fix the thing")
	assert.Contains(t, out, "details here")
	assert.Contains(t, out, "Investigate latency regression")
}

func TestBuildWorkerPromptDeterministic(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	ctx := WorkerContext{
		WalkTitle: "Walk",
		Issue:     &types.Issue{Slug: "a", Title: "A"},
	}
	out1, err := b.BuildWorkerPrompt(ctx)
	require.NoError(t, err)
	out2, err := b.BuildWorkerPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

func TestBuildPlannerPromptRequiresSnapshot(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)
	_, err = b.BuildPlannerPrompt(PlannerContext{})
	require.Error(t, err)
}

func TestBuildPlannerPromptIncludesSnapshotData(t *testing.T) {
	b, err := NewBuilder()
	require.NoError(t, err)

	snapshot := &types.Snapshot{
		Walk:  types.Walk{Title: "Investigate latency regression", Body: "goals here"},
		Epoch: 3,
		Open:  []*types.Issue{{Slug: "open-issue", Title: "Still open", Priority: 1}},
		Memories: []types.Memory{
			{Key: "k1", Text: "workers get 3 retries", AliveFrom: 0},
		},
		Proposals: []types.Proposal{
			{Key: "k2", Text: "proposed fact", Status: types.ProposalPending},
		},
	}
	out, err := b.BuildPlannerPrompt(PlannerContext{
		Snapshot:          snapshot,
		PlanningThreshold: 15000,
		RecentClosed: []RecentClosedEpoch{
			{Epoch: 2, Issues: []*types.Issue{{Slug: "closed-issue", Title: "Done"}}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Investigate latency regression")
	assert.Contains(t, out, "open-issue")
	assert.Contains(t, out, "workers get 3 retries")
	assert.Contains(t, out, "proposed fact")
	assert.Contains(t, out, "closed-issue")
}

func TestByteSizeFormatting(t *testing.T) {
	assert.Equal(t, "512B", byteSize(512))
	assert.Equal(t, "1.0KB", byteSize(1024))
}

func TestTruncateHelper(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "he...", truncate("hello", 2))
}
