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

// writeFakeAgent writes a shell script standing in for the worker/planner
// CLI: when WALK_PLANNING is set it behaves as the planner and declares
// planningOutcome, otherwise it behaves as a worker and closes the issue
// named by WALK_ISSUE.
func writeFakeAgent(t *testing.T, planningOutcome string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent.sh")
	script := "#!/bin/sh\n" +
		"cat >/dev/null\n" +
		"if [ -n \"$WALK_PLANNING\" ]; then\n" +
		"  cat > \"$WALK_DIR/_planning_result.md\" <<EOF\n" +
		"---\n" +
		"outcome: " + planningOutcome + "\n" +
		"reason: test round\n" +
		"---\n" +
		"EOF\n" +
		"else\n" +
		"  echo 'closed by worker' > \"$WALK_DIR/open/$WALK_ISSUE/result\"\n" +
		"fi\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunSequentialClosesIssueThenCompletes(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.store.Create(types.Issue{Slug: "fix-thing", Title: "Fix it", Type: "fix", Priority: 1, Body: "go"})
	require.NoError(t, err)

	d.cfg.AgentCommand = writeFakeAgent(t, "completed")
	d.cfg.PollInterval = time.Millisecond
	d.cfg.MaxPlanningRounds = 1

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := d.runSequential(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkCompleted, walk.Status)

	assert.False(t, d.store.IsOpen("fix-thing"))
}

func TestRunSequentialStallsAfterRepeatedEmptyPlanning(t *testing.T) {
	d := newTestDriver(t)
	d.cfg.AgentCommand = writeFakeAgent(t, "no_work_found")
	d.cfg.PollInterval = time.Millisecond
	d.cfg.MaxPlanningRounds = 1

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code, err := d.runSequential(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkStalled, walk.Status)
}

func TestRunSequentialReturnsRestartExitCode(t *testing.T) {
	d := newTestDriver(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.walkDir, "_restart_requested"), nil, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := d.runSequential(ctx)
	require.NoError(t, err)
	assert.Equal(t, RestartExitCode, code)
}

func TestRunSequentialStopsOnShutdownSignal(t *testing.T) {
	d := newTestDriver(t)
	d.requestShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := d.runSequential(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	walk, err := d.store.ReadWalk()
	require.NoError(t, err)
	assert.Equal(t, types.WalkStopped, walk.Status)
}
