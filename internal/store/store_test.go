package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.WriteWalk(&types.Walk{Title: "test walk", Status: types.WalkOpen}))
	return s
}

func createIssue(t *testing.T, s *Store, slug string, opts ...func(*types.Issue)) *types.Issue {
	t.Helper()
	issue := types.Issue{Slug: slug, Title: "Title for " + slug}
	for _, opt := range opts {
		opt(&issue)
	}
	created, err := s.Create(issue)
	require.NoError(t, err)
	return created
}

func withPriority(p int) func(*types.Issue) {
	return func(i *types.Issue) { i.Priority = p }
}

func withBlockedBy(slugs ...string) func(*types.Issue) {
	return func(i *types.Issue) { i.BlockedBy = slugs }
}

func withType(t string) func(*types.Issue) {
	return func(i *types.Issue) { i.Type = t }
}
