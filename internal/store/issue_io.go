package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/basketlab/walkdrv/internal/frontmatter"
	"github.com/basketlab/walkdrv/internal/types"
)

type issueFrontmatter struct {
	Title     string    `yaml:"title"`
	Type      string    `yaml:"type"`
	Priority  int       `yaml:"priority"`
	CreatedAt time.Time `yaml:"created_at"`
}

type closeFrontmatter struct {
	Reason   string       `yaml:"reason"`
	Signal   types.Signal `yaml:"signal"`
	Epoch    int          `yaml:"epoch"`
	ClosedAt time.Time    `yaml:"closed_at"`
}

// readIssueDir loads an issue from dir (either an open or a closed
// directory). status must reflect which side of the store dir came
// from; it is not derivable from the directory contents alone.
func (s *Store) readIssueDir(dir, slug string, status types.Status) (*types.Issue, error) {
	raw, err := os.ReadFile(filepath.Join(dir, issueMetaFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", issueMetaFile, err)
	}
	var fm issueFrontmatter
	body, err := frontmatter.Decode(raw, &fm)
	if err != nil {
		return nil, fmt.Errorf("malformed issue metadata for %s: %w", slug, err)
	}

	issue := &types.Issue{
		Slug:      slug,
		Title:     fm.Title,
		Body:      body,
		Type:      fm.Type,
		Priority:  fm.Priority,
		Status:    status,
		CreatedAt: fm.CreatedAt,
	}

	issue.BlockedBy = readSymlinkDir(filepath.Join(dir, blockedByDir))
	issue.DerivedFrom = readSymlinkDir(filepath.Join(dir, derivedFromDir))

	if _, err := os.Stat(filepath.Join(dir, priorityBumpFile)); err == nil {
		issue.PriorityOverride = true
	}
	if _, err := os.Stat(filepath.Join(dir, blockedByDriverFl)); err == nil {
		issue.BlockedByDriver = true
	}

	if status == types.StatusClosed {
		cfRaw, err := os.ReadFile(filepath.Join(dir, closeMetaFile))
		if err == nil {
			var cfm closeFrontmatter
			if _, derr := frontmatter.Decode(cfRaw, &cfm); derr == nil {
				issue.CloseReason = cfm.Reason
				issue.Signal = cfm.Signal
				issue.Epoch = cfm.Epoch
				ca := cfm.ClosedAt
				issue.ClosedAt = &ca
			} else {
				s.logf("malformed close metadata", "slug", slug, "error", derr)
			}
		}
	}

	issue.Runs = s.readRuns(dir)

	return issue, nil
}

// readSymlinkDir reads the slugs named by symlinks in dir, tolerating a
// missing directory (no links of that kind) or an individual entry
// vanishing mid-scan.
func readSymlinkDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// writeIssueMeta writes (or rewrites) issue.md for the issue living at
// dir.
func writeIssueMeta(dir string, issue *types.Issue) error {
	fm := issueFrontmatter{
		Title:     issue.Title,
		Type:      issue.Type,
		Priority:  issue.Priority,
		CreatedAt: issue.CreatedAt,
	}
	data, err := frontmatter.Encode(&fm, issue.Body)
	if err != nil {
		return fmt.Errorf("encoding issue metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, issueMetaFile), data, 0o644)
}

// linkDir creates dir (if needed) and one relative symlink per slug in
// slugs, pointing at wherever that slug currently resolves (open or
// closed). The target is recomputed relative to dir so the link is
// valid no matter how deep dir sits under the walk root.
func (s *Store) linkDir(dir string, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, slug := range slugs {
		linkPath := filepath.Join(dir, slug)
		if _, err := os.Lstat(linkPath); err == nil {
			continue
		}
		openExists, closedExists := s.issueExists(slug)
		var targetDir string
		switch {
		case openExists:
			targetDir = s.openIssueDir(slug)
		case closedExists:
			targetDir = s.closedIssueDir(slug)
		default:
			return fmt.Errorf("linking %s: %q does not resolve to an issue", dir, slug)
		}
		target, err := filepath.Rel(dir, targetDir)
		if err != nil {
			return fmt.Errorf("computing relative link for %s: %w", linkPath, err)
		}
		if err := os.Symlink(target, linkPath); err != nil {
			return fmt.Errorf("linking %s -> %s: %w", linkPath, target, err)
		}
	}
	return nil
}

// readRuns loads the run records under dir/runs, tolerating a missing
// runs directory (issue never ran) and malformed per-run meta (skipped,
// logged).
func (s *Store) readRuns(dir string) []types.Run {
	runsRoot := filepath.Join(dir, runsDir)
	entries, err := os.ReadDir(runsRoot)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	runs := make([]types.Run, 0, len(names))
	for _, name := range names {
		runDir := filepath.Join(runsRoot, name)
		run, err := readRunMeta(runDir, name)
		if err != nil {
			s.logf("malformed run metadata", "dir", runDir, "error", err)
			continue
		}
		runs = append(runs, *run)
	}
	return runs
}

type runMetaJSON struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	ExitCode   *int              `json:"exit_code"`
	Signalled  bool              `json:"signalled,omitempty"`
	CostUSD    *float64          `json:"cost_usd,omitempty"`
	TokenUsage *types.TokenUsage `json:"token_usage,omitempty"`
}

func readRunMeta(runDir, id string) (*types.Run, error) {
	raw, err := os.ReadFile(filepath.Join(runDir, "meta"))
	if err != nil {
		return nil, fmt.Errorf("reading run meta: %w", err)
	}
	var m runMetaJSON
	if err := decodeJSON(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing run meta: %w", err)
	}
	return &types.Run{
		ID:         id,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		ExitCode:   m.ExitCode,
		Signalled:  m.Signalled,
		CostUSD:    m.CostUSD,
		TokenUsage: m.TokenUsage,
	}, nil
}
