package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketlab/walkdrv/internal/types"
)

func TestBuildDiscoveryTreeRootsAndChildren(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "root-issue")
	issue := types.Issue{Slug: "derived-issue", Title: "x", DerivedFrom: []string{"root-issue"}}
	_, err := s.Create(issue)
	require.NoError(t, err)

	tree, err := s.BuildDiscoveryTree(false)
	require.NoError(t, err)
	assert.Contains(t, tree.Roots, "root-issue")
	assert.Equal(t, []string{"derived-issue"}, tree.Children["root-issue"])
	assert.Equal(t, []string{"root-issue"}, tree.ParentsOf["derived-issue"])
}

func TestBuildDiscoveryTreeExcludesClosedByDefault(t *testing.T) {
	s := newTestStore(t)
	createIssue(t, s, "closed-root")
	_, err := s.Close(CloseRequest{Slug: "closed-root", Reason: "done"})
	require.NoError(t, err)

	tree, err := s.BuildDiscoveryTree(false)
	require.NoError(t, err)
	assert.NotContains(t, tree.Issues, "closed-root")

	tree, err = s.BuildDiscoveryTree(true)
	require.NoError(t, err)
	assert.Contains(t, tree.Issues, "closed-root")
}
