package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/basketlab/walkdrv/internal/walklock"
)

// Block writes the blocked_by_driver marker for slug and appends
// commentBody to its comments.md. Must be called against an open
// issue; the driver's retry policy is responsible for deciding when.
func (s *Store) Block(slug, commentBody string) error {
	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring walk lock: %w", err)
	}
	dir := s.openIssueDir(slug)
	if _, err := os.Stat(dir); err != nil {
		lock.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOpen, slug)
	}
	markerErr := os.WriteFile(filepath.Join(dir, blockedByDriverFl), nil, 0o644)
	lock.Unlock()
	if markerErr != nil {
		return fmt.Errorf("writing blocked_by_driver marker: %w", markerErr)
	}
	return s.AddComment(slug, "driver", commentBody)
}

// Unblock removes the blocked_by_driver marker, re-admitting the issue
// to ready_issues(). Neither the driver nor any walk subcommand calls
// it; deleting the marker file by hand has the same effect.
func (s *Store) Unblock(slug string) error {
	err := os.Remove(filepath.Join(s.openIssueDir(slug), blockedByDriverFl))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing blocked_by_driver marker: %w", err)
	}
	return nil
}
