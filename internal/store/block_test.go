package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockAndUnblock(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "fix-thing")

	require.NoError(t, s.Block("fix-thing", "blocked after 3 failures"))
	issue, err := s.Show("fix-thing")
	require.NoError(t, err)
	assert.True(t, issue.BlockedByDriver)

	require.NoError(t, s.Unblock("fix-thing"))
	issue, err = s.Show("fix-thing")
	require.NoError(t, err)
	assert.False(t, issue.BlockedByDriver)
}

func TestUnblockNonBlockedIsNoop(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "fix-thing")
	require.NoError(t, s.Unblock("fix-thing"))
}

func TestBlockRejectsNonOpenIssue(t *testing.T) {
	s := newTestStore(t)
	err := s.Block("ghost", "n/a")
	require.Error(t, err)
}
