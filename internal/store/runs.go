package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/basketlab/walkdrv/internal/types"
)

// BeginRun creates a fresh runs/<ts> directory under slug's issue
// directory (which must currently be open), disambiguating with
// -1, -2, ... if a run with the same timestamp already exists. It
// returns the directory and the run id (the directory's base name).
// Does not take the walk lock: run directories are issue-scoped and
// multiple issues' runs never collide.
func (s *Store) BeginRun(slug string, startedAt time.Time) (dir, id string, err error) {
	issueDir := s.openIssueDir(slug)
	if _, err := os.Stat(issueDir); err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrNotOpen, slug)
	}
	runsRoot := filepath.Join(issueDir, runsDir)
	if err := os.MkdirAll(runsRoot, 0o755); err != nil {
		return "", "", fmt.Errorf("creating runs directory: %w", err)
	}

	base := startedAt.UTC().Format("20060102T150405Z")
	id = base
	for i := 0; ; {
		candidate := filepath.Join(runsRoot, id)
		if err := os.Mkdir(candidate, 0o755); err == nil {
			return candidate, id, nil
		} else if !os.IsExist(err) {
			return "", "", fmt.Errorf("creating run directory: %w", err)
		}
		i++
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

// WriteRunPrompt writes the prompt file for a run directory created by
// BeginRun.
func WriteRunPrompt(runDir, prompt string) error {
	if err := os.WriteFile(filepath.Join(runDir, "prompt"), []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("writing run prompt: %w", err)
	}
	return nil
}

// WriteRunOutput writes the capture-mode output/stderr files for a run
// directory.
func WriteRunOutput(runDir, stdout, stderr string) error {
	if err := os.WriteFile(filepath.Join(runDir, "output"), []byte(stdout), 0o644); err != nil {
		return fmt.Errorf("writing run output: %w", err)
	}
	if stderr != "" {
		if err := os.WriteFile(filepath.Join(runDir, "stderr"), []byte(stderr), 0o644); err != nil {
			return fmt.Errorf("writing run stderr: %w", err)
		}
	}
	return nil
}

// WriteRunMeta writes a run's meta file (exit_code, times, cost,
// tokens) into a run directory created by BeginRun.
func WriteRunMeta(runDir string, run types.Run) error {
	m := runMetaJSON{
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		ExitCode:   run.ExitCode,
		Signalled:  run.Signalled,
		CostUSD:    run.CostUSD,
		TokenUsage: run.TokenUsage,
	}
	data, err := encodeJSON(m)
	if err != nil {
		return fmt.Errorf("encoding run meta: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "meta"), data, 0o644); err != nil {
		return fmt.Errorf("writing run meta: %w", err)
	}
	return nil
}

// RunsDirFor returns the runs/ directory for slug's current location
// (open or closed), resolving which side it is on. Used by the agent
// runner's relocation handling when the issue moved mid-run.
func (s *Store) RunsDirFor(slug string) (string, error) {
	if _, err := os.Stat(s.openIssueDir(slug)); err == nil {
		return filepath.Join(s.openIssueDir(slug), runsDir), nil
	}
	if _, err := os.Stat(s.closedIssueDir(slug)); err == nil {
		return filepath.Join(s.closedIssueDir(slug), runsDir), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// IsOpen reports whether slug currently resolves to the open side of
// the store.
func (s *Store) IsOpen(slug string) bool {
	_, err := os.Stat(s.openIssueDir(slug))
	return err == nil
}

// HasCloseArtifacts reports whether a result file is present for slug
// on whichever side it currently resolves to, and returns its first
// line — the fallback the agent runner uses when the issue wasn't moved
// to closed/ by an external close command but the worker still declared
// completion via a file. close.meta is not checked here; DeclaredClose
// reads it.
func (s *Store) HasCloseArtifacts(slug string) (resultFirstLine string, ok bool) {
	dir := s.openIssueDir(slug)
	if !s.IsOpen(slug) {
		dir = s.closedIssueDir(slug)
	}
	data, err := os.ReadFile(filepath.Join(dir, resultFile))
	if err != nil {
		return "", false
	}
	line := string(data)
	if idx := indexNewline(line); idx >= 0 {
		line = line[:idx]
	}
	return line, true
}

func indexNewline(s string) int {
	for i, c := range s {
		if c == '\n' {
			return i
		}
	}
	return -1
}
