package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/types"
)

func TestRunConcurrentClosesIssuesThenCompletes(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.store.Create(types.Issue{Slug: "fix-a", Title: "Fix A", Type: "fix", Priority: 1, Body: "go"})
	require.NoError(t, err)
	_, err = d.store.Create(types.Issue{Slug: "fix-b", Title: "Fix B", Type: "fix", Priority: 2, Body: "go"})
	require.NoError(t, err)

	d.cfg.AgentCommand = writeFakeAgent(t, "completed")
	d.cfg.PollInterval = time.Millisecond
	d.cfg.DrainTimeout = 5 * time.Second
	d.cfg.MaxPlanningRounds = 1
	d.cfg.MaxConcurrent = 2

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	code, err := d.runConcurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkCompleted, walk.Status)

	assert.False(t, d.store.IsOpen("fix-a"))
	assert.False(t, d.store.IsOpen("fix-b"))
}

func TestRunConcurrentStallsWithNoReadyWork(t *testing.T) {
	d := newTestDriver(t)
	d.cfg.AgentCommand = writeFakeAgent(t, "no_work_found")
	d.cfg.PollInterval = time.Millisecond
	d.cfg.DrainTimeout = 5 * time.Second
	d.cfg.MaxPlanningRounds = 1
	d.cfg.MaxConcurrent = 2

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := d.runConcurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkStalled, walk.Status)
}

func TestRunConcurrentReturnsRestartExitCode(t *testing.T) {
	d := newTestDriver(t)
	d.cfg.MaxConcurrent = 2
	require.NoError(t, os.WriteFile(filepath.Join(d.walkDir, "_restart_requested"), nil, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := d.runConcurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, RestartExitCode, code)
}

func TestRunConcurrentStopsOnShutdownSignal(t *testing.T) {
	d := newTestDriver(t)
	d.cfg.MaxConcurrent = 2
	d.cfg.DrainTimeout = 5 * time.Second
	d.requestShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := d.runConcurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkStopped, walk.Status)
}
