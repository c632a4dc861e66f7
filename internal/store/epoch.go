package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const currentEpochLink = "current"

// CurrentEpoch returns the walk's current epoch number. A walk with no
// epochs directory yet (freshly created) is epoch 0.
func (s *Store) CurrentEpoch() (int, error) {
	target, err := os.Readlink(s.path(epochsDir, currentEpochLink))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading current epoch link: %w", err)
	}
	n, err := strconv.Atoi(filepath.Base(target))
	if err != nil {
		return 0, fmt.Errorf("parsing epoch number from %q: %w", target, err)
	}
	return n, nil
}

// IncrementEpoch advances the walk to a new epoch and returns its
// number. Must be called with the walk lock held.
func (s *Store) IncrementEpoch() (int, error) {
	cur, err := s.CurrentEpoch()
	if err != nil {
		return 0, err
	}
	next := cur + 1
	dir := s.path(epochsDir, strconv.Itoa(next))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating epoch %d directory: %w", next, err)
	}

	linkPath := s.path(epochsDir, currentEpochLink)
	tmp := linkPath + ".tmp"
	_ = os.Remove(tmp)
	if err := os.Symlink(strconv.Itoa(next), tmp); err != nil {
		return 0, fmt.Errorf("staging current epoch link: %w", err)
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		return 0, fmt.Errorf("updating current epoch link: %w", err)
	}
	return next, nil
}

// recordClosureInEpoch links the now-closed issue at slug into the
// epoch index as epochs/<epoch>/<slug> -> ../../closed/<slug>. Must be
// called with the walk lock held and after the issue has been moved
// into closed/.
func (s *Store) recordClosureInEpoch(epoch int, slug string) error {
	dir := s.path(epochsDir, strconv.Itoa(epoch))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating epoch %d directory: %w", epoch, err)
	}
	linkPath := filepath.Join(dir, slug)
	target, err := filepath.Rel(dir, s.closedIssueDir(slug))
	if err != nil {
		return fmt.Errorf("computing epoch link target: %w", err)
	}
	if _, err := os.Lstat(linkPath); err == nil {
		return nil
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("linking %s into epoch %d: %w", slug, epoch, err)
	}
	return nil
}
