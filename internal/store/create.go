package store

import (
	"fmt"
	"os"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
	"github.com/basketlab/walkdrv/internal/walklock"
)

// Create adds a new open issue. It fails with ErrAlreadyExists if slug
// is present in either open or closed, and with the issue's own
// validation error if the fields don't pass Issue.Validate.
func (s *Store) Create(issue types.Issue) (*types.Issue, error) {
	if err := issue.Validate(); err != nil {
		return nil, err
	}

	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return nil, fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	openExists, closedExists := s.issueExists(issue.Slug)
	if openExists || closedExists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, issue.Slug)
	}

	for _, parent := range issue.BlockedBy {
		if po, pc := s.issueExists(parent); !po && !pc {
			return nil, fmt.Errorf("blocked_by references unknown issue %q", parent)
		}
	}
	for _, parent := range issue.DerivedFrom {
		if po, pc := s.issueExists(parent); !po && !pc {
			return nil, fmt.Errorf("derived_from references unknown issue %q", parent)
		}
	}

	dir := s.openIssueDir(issue.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating issue directory: %w", err)
	}

	issue.Status = types.StatusOpen
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}

	if err := writeIssueMeta(dir, &issue); err != nil {
		return nil, err
	}
	if err := s.linkDir(s.path(openDir, issue.Slug, blockedByDir), issue.BlockedBy); err != nil {
		return nil, err
	}
	if err := s.linkDir(s.path(openDir, issue.Slug, derivedFromDir), issue.DerivedFrom); err != nil {
		return nil, err
	}

	return &issue, nil
}
