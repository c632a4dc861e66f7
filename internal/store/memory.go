package store

import (
	"fmt"
	"os"

	"github.com/basketlab/walkdrv/internal/types"
	"github.com/basketlab/walkdrv/internal/walklock"
)

// Memories returns the current memories.json contents. An absent file
// (fresh walk) yields an empty slice, not an error.
func (s *Store) Memories() ([]types.Memory, error) {
	var memories []types.Memory
	if err := s.readJSONFile(memoriesFile, &memories); err != nil {
		return nil, err
	}
	return memories, nil
}

// Proposals returns the current proposals.json contents.
func (s *Store) Proposals() ([]types.Proposal, error) {
	var proposals []types.Proposal
	if err := s.readJSONFile(proposalsFile, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (s *Store) readJSONFile(name string, v interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := decodeJSON(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeJSONFile(name string, v interface{}) error {
	data, err := encodeJSON(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

// ProposeMemory stages a new memory candidate for planner review. Fails
// with ErrAlreadyExists if a pending proposal with the same key exists.
func (s *Store) ProposeMemory(key, text, proposedBy string, epoch int) error {
	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	proposals, err := s.Proposals()
	if err != nil {
		return err
	}
	for _, p := range proposals {
		if p.Key == key && p.Status == types.ProposalPending {
			return fmt.Errorf("%w: pending proposal %s", ErrAlreadyExists, key)
		}
	}
	proposals = append(proposals, types.Proposal{
		Key:        key,
		Text:       text,
		ProposedBy: proposedBy,
		Epoch:      epoch,
		Status:     types.ProposalPending,
	})
	return s.writeJSONFile(proposalsFile, proposals)
}

// AcceptProposal resolves the pending proposal named by key into a live
// Memory with alive_from set to the epoch the proposal was made in, and
// removes the proposal. Fails with ErrNotFound if no pending proposal has that key.
func (s *Store) AcceptProposal(key string) (*types.Memory, error) {
	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return nil, fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	proposals, err := s.Proposals()
	if err != nil {
		return nil, err
	}
	idx, prop := findPendingProposal(proposals, key)
	if idx < 0 {
		return nil, fmt.Errorf("%w: pending proposal %s", ErrNotFound, key)
	}
	proposals = append(proposals[:idx], proposals[idx+1:]...)
	if err := s.writeJSONFile(proposalsFile, proposals); err != nil {
		return nil, err
	}

	memories, err := s.Memories()
	if err != nil {
		return nil, err
	}
	mem := types.Memory{
		Key:       prop.Key,
		Text:      prop.Text,
		AliveFrom: prop.Epoch,
		CreatedBy: prop.ProposedBy,
	}
	memories = append(memories, mem)
	if err := s.writeJSONFile(memoriesFile, memories); err != nil {
		return nil, err
	}
	return &mem, nil
}

// DiscardProposal removes the pending proposal named by key without
// creating a memory.
func (s *Store) DiscardProposal(key string) error {
	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	proposals, err := s.Proposals()
	if err != nil {
		return err
	}
	idx, _ := findPendingProposal(proposals, key)
	if idx < 0 {
		return fmt.Errorf("%w: pending proposal %s", ErrNotFound, key)
	}
	proposals = append(proposals[:idx], proposals[idx+1:]...)
	return s.writeJSONFile(proposalsFile, proposals)
}

// ForgetMemory sets alive_until on the live memory named by key to the
// given epoch, retiring it from future prompts without deleting its
// history. Fails with ErrNotFound if no live memory has that key.
func (s *Store) ForgetMemory(key string, killedBy string, epoch int) error {
	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	memories, err := s.Memories()
	if err != nil {
		return err
	}
	found := false
	for i := range memories {
		if memories[i].Key == key && memories[i].AliveUntil == nil {
			memories[i].AliveUntil = &epoch
			memories[i].KilledBy = killedBy
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: live memory %s", ErrNotFound, key)
	}
	return s.writeJSONFile(memoriesFile, memories)
}

func findPendingProposal(proposals []types.Proposal, key string) (int, types.Proposal) {
	for i, p := range proposals {
		if p.Key == key && p.Status == types.ProposalPending {
			return i, p
		}
	}
	return -1, types.Proposal{}
}
