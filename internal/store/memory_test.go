package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoriesEmptyOnFreshWalk(t *testing.T) {
	s := newTestStore(t)
	memories, err := s.Memories()
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestProposeAcceptMemory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ProposeMemory("retry-budget", "workers get 3 retries", "planner", 1))

	proposals, err := s.Proposals()
	require.NoError(t, err)
	require.Len(t, proposals, 1)

	mem, err := s.AcceptProposal("retry-budget")
	require.NoError(t, err)
	assert.Equal(t, "retry-budget", mem.Key)
	assert.Equal(t, 1, mem.AliveFrom)

	proposals, err = s.Proposals()
	require.NoError(t, err)
	assert.Empty(t, proposals)

	memories, err := s.Memories()
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.True(t, memories[0].AliveAt(1))
}

func TestProposeDuplicatePendingRejected(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ProposeMemory("k", "v1", "a", 1))
	err := s.ProposeMemory("k", "v2", "b", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestDiscardProposal(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ProposeMemory("k", "v", "a", 1))
	require.NoError(t, s.DiscardProposal("k"))

	proposals, err := s.Proposals()
	require.NoError(t, err)
	assert.Empty(t, proposals)
}

func TestDiscardProposalUnknownKey(t *testing.T) {
	s := newTestStore(t)
	err := s.DiscardProposal("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestForgetMemoryRetiresWithoutDeleting(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ProposeMemory("k", "v", "a", 1))
	_, err := s.AcceptProposal("k")
	require.NoError(t, err)

	require.NoError(t, s.ForgetMemory("k", "planner", 3))

	memories, err := s.Memories()
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.False(t, memories[0].AliveAt(4))
	assert.True(t, memories[0].AliveAt(3))
	assert.Equal(t, "planner", memories[0].KilledBy)
}

func TestForgetMemoryUnknownKey(t *testing.T) {
	s := newTestStore(t)
	err := s.ForgetMemory("ghost", "planner", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
