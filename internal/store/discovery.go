package store

import (
	"os"

	"github.com/basketlab/walkdrv/internal/types"
)

// BuildDiscoveryTree assembles the derived_from DAG over open issues,
// and closed ones too when includeClosed is set. Roots are issues with
// no derived_from parents; Children maps a parent to every child that
// named it (the primary parent, per child, is simply Children's first
// slice entry order is not guaranteed — callers that need a single
// primary parent should take ParentsOf[child][0]).
func (s *Store) BuildDiscoveryTree(includeClosed bool) (*types.DiscoveryTree, error) {
	tree := &types.DiscoveryTree{
		Children:  map[string][]string{},
		ParentsOf: map[string][]string{},
		Issues:    map[string]*types.Issue{},
	}

	statuses := []types.Status{types.StatusOpen}
	if includeClosed {
		statuses = append(statuses, types.StatusClosed)
	}

	for _, status := range statuses {
		dirRoot := s.path(openDir)
		if status == types.StatusClosed {
			dirRoot = s.path(closedDir)
		}
		entries, err := os.ReadDir(dirRoot)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			slug := e.Name()
			var dir string
			if status == types.StatusOpen {
				dir = s.openIssueDir(slug)
			} else {
				dir = s.closedIssueDir(slug)
			}
			issue, err := s.readIssueDir(dir, slug, status)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				s.logf("skipping unreadable issue in discovery scan", "slug", slug, "error", err)
				continue
			}
			tree.Issues[slug] = issue
		}
	}

	for slug, issue := range tree.Issues {
		if len(issue.DerivedFrom) == 0 {
			tree.Roots = append(tree.Roots, slug)
			continue
		}
		for _, parent := range issue.DerivedFrom {
			tree.ParentsOf[slug] = append(tree.ParentsOf[slug], parent)
			if _, ok := tree.Issues[parent]; ok {
				tree.Children[parent] = append(tree.Children[parent], slug)
			} else {
				// parent fell outside the scanned scope (e.g. closed
				// parent while includeClosed is false); treat as a root.
				tree.Roots = append(tree.Roots, slug)
			}
		}
	}

	return tree, nil
}
