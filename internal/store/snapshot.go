package store

import (
	"fmt"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// Snapshot assembles a read-consistent view of the walk for the prompt
// assembler and report renderers. It performs several independent
// reads in sequence without holding the walk lock across them: writes
// racing a snapshot may leave it very slightly stale, which the prompt
// assembler and reporters tolerate by design (spec.md never requires
// snapshot linearisability, only determinism given a fixed snapshot).
func (s *Store) Snapshot(now time.Time) (*types.Snapshot, error) {
	walk, err := s.ReadWalk()
	if err != nil {
		return nil, fmt.Errorf("reading walk: %w", err)
	}
	epoch, err := s.CurrentEpoch()
	if err != nil {
		return nil, fmt.Errorf("reading epoch: %w", err)
	}
	open, err := s.List(types.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("listing open issues: %w", err)
	}
	closed, err := s.List(types.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("listing closed issues: %w", err)
	}
	ready, err := s.ReadyIssues()
	if err != nil {
		return nil, fmt.Errorf("computing ready issues: %w", err)
	}
	memories, err := s.Memories()
	if err != nil {
		return nil, fmt.Errorf("reading memories: %w", err)
	}
	proposals, err := s.Proposals()
	if err != nil {
		return nil, fmt.Errorf("reading proposals: %w", err)
	}
	expansion, err := s.ExpansionStats()
	if err != nil {
		return nil, fmt.Errorf("computing expansion stats: %w", err)
	}

	return &types.Snapshot{
		Walk:                       *walk,
		Epoch:                      epoch,
		Taken:                      now,
		Open:                       open,
		Closed:                     closed,
		Ready:                      ready,
		Memories:                   memories,
		Proposals:                  proposals,
		RecentClosedBytesThreshold: 20_000,
		ExpansionStats:             expansion,
	}, nil
}
