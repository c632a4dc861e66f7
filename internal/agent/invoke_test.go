package agent

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/prompt"
	"github.com/basketlab/walkdrv/internal/store"
	"github.com/basketlab/walkdrv/internal/types"
)

func newInvokeTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(dir)
	require.NoError(t, err)
	require.NoError(t, s.WriteWalk(&types.Walk{Title: "test walk", Status: types.WalkOpen}))
	return s
}

func createInvokeIssue(t *testing.T, s *store.Store, slug string) {
	t.Helper()
	_, err := s.Create(types.Issue{Slug: slug, Title: "Fix the thing", Type: "fix", Priority: 1, Body: "do it"})
	require.NoError(t, err)
}

func TestInvokeIssueLeavesIssueOpenWhenWorkerWritesNothing(t *testing.T) {
	s := newInvokeTestStore(t)
	createInvokeIssue(t, s, "fix-thing")
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	var mu sync.Mutex
	outcome, err := InvokeIssue(context.Background(), s, pb, s.Dir, "fix-thing", &mu, WorkerInvocationOptions{
		Command:   "/bin/cat",
		Mode:      ModeCapture,
		WalkTitle: "test walk",
	})
	require.NoError(t, err)
	assert.False(t, outcome.Skipped)
	// /bin/cat just echoes the prompt back on stdout and writes nothing:
	// the issue stays open and no close artifacts appear.
	assert.False(t, outcome.Closed)
	require.NotNil(t, outcome.Run)

	issue, err := s.Show("fix-thing")
	require.NoError(t, err)
	require.Len(t, issue.Runs, 1)
}

func TestInvokeIssueClosesWhenWorkerWritesResultFile(t *testing.T) {
	s := newInvokeTestStore(t)
	createInvokeIssue(t, s, "fix-thing")
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	scriptPath := filepath.Join(t.TempDir(), "worker.sh")
	script := "#!/bin/sh\ncat >/dev/null\necho 'all done here' > \"$WALK_DIR/open/fix-thing/result\"\n"
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))

	var mu sync.Mutex
	outcome, err := InvokeIssue(context.Background(), s, pb, s.Dir, "fix-thing", &mu, WorkerInvocationOptions{
		Command:   scriptPath,
		Mode:      ModeCapture,
		WalkTitle: "test walk",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Closed)
	assert.False(t, s.IsOpen("fix-thing"))

	issue, err := s.Show("fix-thing")
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosed, issue.Status)
}

func TestInvokeIssueClosesViaDeclaredCloseMeta(t *testing.T) {
	s := newInvokeTestStore(t)
	createInvokeIssue(t, s, "fix-thing")
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	scriptPath := filepath.Join(t.TempDir(), "worker.sh")
	script := "#!/bin/sh\ncat >/dev/null\ncat > \"$WALK_DIR/open/fix-thing/close.meta\" <<'EOF'\n" +
		"---\nreason: closed via close.meta\nsignal: routine\n---\n" +
		"EOF\n"
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))

	var mu sync.Mutex
	outcome, err := InvokeIssue(context.Background(), s, pb, s.Dir, "fix-thing", &mu, WorkerInvocationOptions{
		Command:   scriptPath,
		Mode:      ModeCapture,
		WalkTitle: "test walk",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Closed)

	issue, err := s.Show("fix-thing")
	require.NoError(t, err)
	assert.Equal(t, "closed via close.meta", issue.CloseReason)
}

func TestInvokeIssueSkipsWhenRetryPolicyBlocks(t *testing.T) {
	s := newInvokeTestStore(t)
	createInvokeIssue(t, s, "fix-thing")
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ts := time.Date(2026, 1, 1, 12, i, 0, 0, time.UTC)
		dir, _, err := s.BeginRun("fix-thing", ts)
		require.NoError(t, err)
		failed := 1
		require.NoError(t, store.WriteRunMeta(dir, types.Run{StartedAt: ts, ExitCode: &failed}))
	}

	var mu sync.Mutex
	outcome, err := InvokeIssue(context.Background(), s, pb, s.Dir, "fix-thing", &mu, WorkerInvocationOptions{
		Command:     "/bin/sh",
		Mode:        ModeCapture,
		MaxFailures: 3,
		WalkTitle:   "test walk",
	})
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.True(t, s.IsOpen("fix-thing"))

	issue, err := s.Show("fix-thing")
	require.NoError(t, err)
	assert.True(t, issue.BlockedByDriver)
}

func TestInvokeIssueRejectsUnknownSlug(t *testing.T) {
	s := newInvokeTestStore(t)
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	_, err = InvokeIssue(context.Background(), s, pb, s.Dir, "does-not-exist", nil, WorkerInvocationOptions{
		Command: "/bin/sh",
		Mode:    ModeCapture,
	})
	require.Error(t, err)
}

// TestInvokeIssueDoesNotHoldLockDuringSubprocess is the regression test
// for the concurrent loop's parallelism: two issues sharing one mutex,
// one with a slow worker and one with a fast one, dispatched at the
// same time. If InvokeIssue held the lock for the whole call (spawn
// included), the fast one would be stuck waiting behind the slow one's
// subprocess; it must finish first.
func TestInvokeIssueDoesNotHoldLockDuringSubprocess(t *testing.T) {
	s := newInvokeTestStore(t)
	createInvokeIssue(t, s, "slow-thing")
	createInvokeIssue(t, s, "fast-thing")
	pb, err := prompt.NewBuilder()
	require.NoError(t, err)

	slowScript := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(slowScript, []byte("#!/bin/sh\ncat >/dev/null\nsleep 0.3\n"), 0o755))
	fastScript := filepath.Join(t.TempDir(), "fast.sh")
	require.NoError(t, os.WriteFile(fastScript, []byte("#!/bin/sh\ncat >/dev/null\n"), 0o755))

	var mu sync.Mutex
	done := make(chan string, 2)

	go func() {
		_, err := InvokeIssue(context.Background(), s, pb, s.Dir, "slow-thing", &mu, WorkerInvocationOptions{
			Command: slowScript,
			Mode:    ModeCapture,
		})
		require.NoError(t, err)
		done <- "slow-thing"
	}()
	// give the slow invocation a head start so its prepare phase (and
	// the lock it briefly holds) runs first.
	time.Sleep(30 * time.Millisecond)
	go func() {
		_, err := InvokeIssue(context.Background(), s, pb, s.Dir, "fast-thing", &mu, WorkerInvocationOptions{
			Command: fastScript,
			Mode:    ModeCapture,
		})
		require.NoError(t, err)
		done <- "fast-thing"
	}()

	first := <-done
	second := <-done
	assert.Equal(t, "fast-thing", first)
	assert.Equal(t, "slow-thing", second)
}
