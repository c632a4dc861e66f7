package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/basketlab/walkdrv/internal/types"
)

// Show returns the issue named by slug, searching open then closed.
// Lock-free: a concurrent Close moving the issue between the two
// directories mid-call is tolerated by retrying the closed-side read.
func (s *Store) Show(slug string) (*types.Issue, error) {
	if _, err := os.Stat(s.openIssueDir(slug)); err == nil {
		issue, err := s.readIssueDir(s.openIssueDir(slug), slug, types.StatusOpen)
		if err == nil {
			return issue, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// fell through: issue moved to closed between Stat and read
	}
	if _, err := os.Stat(s.closedIssueDir(slug)); err == nil {
		return s.readIssueDir(s.closedIssueDir(slug), slug, types.StatusClosed)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// List returns every issue matching status, or every issue if status
// is empty. Directories that vanish between readdir and open (a
// concurrent Close) are skipped rather than failing the whole listing.
func (s *Store) List(status types.Status) ([]*types.Issue, error) {
	var issues []*types.Issue

	if status == "" || status == types.StatusOpen {
		open, err := s.listDir(s.path(openDir), types.StatusOpen)
		if err != nil {
			return nil, err
		}
		issues = append(issues, open...)
	}
	if status == "" || status == types.StatusClosed {
		closed, err := s.listDir(s.path(closedDir), types.StatusClosed)
		if err != nil {
			return nil, err
		}
		issues = append(issues, closed...)
	}

	sort.Slice(issues, func(i, j int) bool { return issues[i].Slug < issues[j].Slug })
	return issues, nil
}

func (s *Store) listDir(root string, status types.Status) ([]*types.Issue, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	var issues []*types.Issue
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		issue, err := s.readIssueDir(dir, e.Name(), status)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logf("skipping unreadable issue", "slug", e.Name(), "error", err)
			continue
		}
		issues = append(issues, issue)
	}
	return issues, nil
}
