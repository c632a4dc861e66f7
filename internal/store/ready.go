package store

import (
	"os"
	"sort"

	"github.com/basketlab/walkdrv/internal/types"
)

// ReadyIssues returns the open issues eligible for dispatch: not
// blocked by the driver, not blocked by an open referent, and not the
// reserved epic container type. Sorted by (priority_override? first,
// priority, slug) ascending, so override and lower-priority-number
// issues sort first. Tolerates an issue directory disappearing mid-scan
// (a concurrent Close) by skipping it.
func (s *Store) ReadyIssues() ([]*types.Issue, error) {
	entries, err := os.ReadDir(s.path(openDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	ready := make([]*types.Issue, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		slug := e.Name()
		dir := s.openIssueDir(slug)
		issue, err := s.readIssueDir(dir, slug, types.StatusOpen)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logf("skipping unreadable issue in ready scan", "slug", slug, "error", err)
			continue
		}

		if issue.IsEpic() {
			continue
		}
		if issue.BlockedByDriver {
			continue
		}
		if s.hasOpenBlocker(issue) {
			continue
		}
		ready = append(ready, issue)
	}

	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		ao, bo := overrideRank(a), overrideRank(b)
		if ao != bo {
			return ao < bo
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Slug < b.Slug
	})
	return ready, nil
}

func overrideRank(issue *types.Issue) int {
	if issue.PriorityOverride {
		return 0
	}
	return 1
}

// hasOpenBlocker reports whether any of issue's blocked_by referents is
// still open. A referent that has vanished entirely (neither open nor
// closed) is treated as resolved rather than blocking forever.
func (s *Store) hasOpenBlocker(issue *types.Issue) bool {
	for _, parent := range issue.BlockedBy {
		if _, err := os.Stat(s.openIssueDir(parent)); err == nil {
			return true
		}
	}
	return false
}
