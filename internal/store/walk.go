package store

import (
	"fmt"
	"os"

	"github.com/basketlab/walkdrv/internal/frontmatter"
	"github.com/basketlab/walkdrv/internal/types"
)

type walkFrontmatter struct {
	Title        string       `yaml:"title"`
	Status       types.WalkStatus `yaml:"status"`
	FinishedAt   *string      `yaml:"finished_at,omitempty"`
	FinishReason string       `yaml:"finish_reason,omitempty"`
	Config       types.Config `yaml:"config,omitempty"`
}

// ReadWalk loads the walk's own metadata from _walk.md.
func (s *Store) ReadWalk() (*types.Walk, error) {
	raw, err := os.ReadFile(s.path(walkMetaFile))
	if err != nil {
		return nil, fmt.Errorf("reading walk metadata: %w", err)
	}
	var fm walkFrontmatter
	body, err := frontmatter.Decode(raw, &fm)
	if err != nil {
		return nil, fmt.Errorf("malformed walk metadata: %w", err)
	}
	walk := &types.Walk{
		Title:        fm.Title,
		Status:       fm.Status,
		Body:         body,
		FinishReason: fm.FinishReason,
		Config:       fm.Config,
	}
	if walk.Status == "" {
		walk.Status = types.WalkOpen
	}
	return walk, nil
}

// WriteWalk rewrites _walk.md. Used both at scaffolding time and by
// FinalizeWalk to record terminal status.
func (s *Store) WriteWalk(walk *types.Walk) error {
	fm := walkFrontmatter{
		Title:        walk.Title,
		Status:       walk.Status,
		FinishReason: walk.FinishReason,
		Config:       walk.Config,
	}
	data, err := frontmatter.Encode(&fm, walk.Body)
	if err != nil {
		return fmt.Errorf("encoding walk metadata: %w", err)
	}
	return os.WriteFile(s.path(walkMetaFile), data, 0o644)
}

// FinalizeWalk marks the walk terminal (completed/stalled/stopped) and
// writes summary.md. Must be called with the walk lock held.
func (s *Store) FinalizeWalk(status types.WalkStatus, reason, summary string) error {
	walk, err := s.ReadWalk()
	if err != nil {
		return err
	}
	walk.Status = status
	walk.FinishReason = reason
	if err := s.WriteWalk(walk); err != nil {
		return err
	}
	return os.WriteFile(s.path(summaryFile), []byte(summary), 0o644)
}

// RestartRequested reports whether a worker has staged a restart
// marker, and clears it if present.
func (s *Store) RestartRequested() (bool, error) {
	path := s.path(restartMarkerFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(path); err != nil {
		return true, fmt.Errorf("removing restart marker: %w", err)
	}
	return true, nil
}

// DriverLockPath returns the path of the PID file used to enforce a
// single live driver per walk.
func (s *Store) DriverLockPath() string {
	return s.path(driverPIDFile)
}

// PlanningResultPath returns the path the planner writes its
// structured result file to.
func (s *Store) PlanningResultPath() string {
	return s.path(planningResultMD)
}

// ReadPlanningResult reads and deletes the planner's result file. Fails
// with ErrNotFound if the planner never wrote one (a protocol
// violation the caller should treat as a fallback outcome).
func (s *Store) ReadPlanningResult() (string, error) {
	path := s.PlanningResultPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: planning result", ErrNotFound)
		}
		return "", fmt.Errorf("reading planning result: %w", err)
	}
	if err := os.Remove(path); err != nil {
		s.logf("removing planning result", "error", err)
	}
	return string(data), nil
}
