package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/basketlab/walkdrv/internal/frontmatter"
	"github.com/basketlab/walkdrv/internal/types"
	"github.com/basketlab/walkdrv/internal/walklock"
)

// CloseRequest carries the fields a worker (or the driver, when a
// worker declared completion through close.meta or a result file)
// supplies when closing an issue.
type CloseRequest struct {
	Slug   string
	Reason string
	Body   string
	Signal types.Signal
}

// Close moves an open issue to closed/, writes its close metadata, and
// records the closure in the current epoch's index. It fails with
// ErrNotOpen if slug is not currently open.
func (s *Store) Close(req CloseRequest) (*types.Issue, error) {
	if req.Signal == "" {
		req.Signal = types.SignalRoutine
	}
	if !req.Signal.IsValid() {
		return nil, fmt.Errorf("invalid close signal %q", req.Signal)
	}

	lock, err := walklock.Acquire(s.lockPath())
	if err != nil {
		return nil, fmt.Errorf("acquiring walk lock: %w", err)
	}
	defer lock.Unlock()

	openDirPath := s.openIssueDir(req.Slug)
	if _, err := os.Stat(openDirPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, req.Slug)
	}

	epoch, err := s.CurrentEpoch()
	if err != nil {
		return nil, err
	}
	if epoch == 0 {
		// First closure of the walk: bootstrap epoch 1 so every closed
		// issue's epoch symlink resolves under epochs/<N>/ for N >= 1.
		epoch, err = s.IncrementEpoch()
		if err != nil {
			return nil, err
		}
	}

	closedDirPath := s.closedIssueDir(req.Slug)
	if err := os.Rename(openDirPath, closedDirPath); err != nil {
		return nil, fmt.Errorf("moving %s to closed: %w", req.Slug, err)
	}

	closedAt := time.Now()
	cfm := closeFrontmatter{
		Reason:   req.Reason,
		Signal:   req.Signal,
		Epoch:    epoch,
		ClosedAt: closedAt,
	}
	data, err := frontmatter.Encode(&cfm, req.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding close metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(closedDirPath, closeMetaFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing close metadata: %w", err)
	}

	// result mirrors the worker-facing close protocol: first line is
	// the reason, remainder (if any) is the free-text body.
	resultText := req.Reason
	if req.Body != "" {
		resultText = req.Reason + "\n\n" + req.Body
	}
	if err := os.WriteFile(filepath.Join(closedDirPath, resultFile), []byte(resultText), 0o644); err != nil {
		return nil, fmt.Errorf("writing result: %w", err)
	}

	if err := os.Remove(filepath.Join(closedDirPath, priorityBumpFile)); err != nil && !os.IsNotExist(err) {
		s.logf("removing priority override marker", "slug", req.Slug, "error", err)
	}
	if err := os.Remove(filepath.Join(closedDirPath, blockedByDriverFl)); err != nil && !os.IsNotExist(err) {
		s.logf("removing blocked-by-driver marker", "slug", req.Slug, "error", err)
	}

	if err := s.recordClosureInEpoch(epoch, req.Slug); err != nil {
		return nil, err
	}

	issue, err := s.readIssueDir(closedDirPath, req.Slug, types.StatusClosed)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// DeclaredClose reads a worker-written close.meta from slug's current
// (necessarily still-open) directory, without moving anything. Used by
// the agent runner's close-detection fallback when the worker declared
// completion via file rather than calling the close command itself.
func (s *Store) DeclaredClose(slug string) (meta *types.CloseMeta, body string, ok bool) {
	dir := s.openIssueDir(slug)
	raw, err := os.ReadFile(filepath.Join(dir, closeMetaFile))
	if err != nil {
		return nil, "", false
	}
	var m types.CloseMeta
	b, err := frontmatter.Decode(raw, &m)
	if err != nil {
		s.logf("malformed declared close.meta", "slug", slug, "error", err)
		return nil, "", false
	}
	return &m, b, true
}

// AddComment appends a timestamped section to an issue's comments.md,
// creating the file if necessary. Comments can be appended to an issue
// on either side of the store; the per-file lock on comments.md allows
// concurrent workers to comment on different issues without contending
// on .walk.lock.
func (s *Store) AddComment(slug, author, text string) error {
	openExists, closedExists := s.issueExists(slug)
	if !openExists && !closedExists {
		return fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	dir := s.openIssueDir(slug)
	if closedExists {
		dir = s.closedIssueDir(slug)
	}
	commentsPath := filepath.Join(dir, commentsFile)

	lock, err := walklock.Acquire(commentsPath + ".flock")
	if err != nil {
		return fmt.Errorf("acquiring comments lock: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(commentsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening comments file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(time.Now().Format(time.RFC3339))
	if author != "" {
		b.WriteString(" — ")
		b.WriteString(author)
	}
	b.WriteString("\n\n")
	b.WriteString(text)
	b.WriteString("\n\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("writing comment: %w", err)
	}
	return nil
}
