// Package store implements the filesystem-backed issue store: the
// single source of truth for a walk's issues, runs, epochs, memories and
// proposals. Create, Close, Block and the memory and proposal mutations
// take an exclusive advisory lock on .walk.lock; comment appends lock
// comments.md instead, and run-directory writes take no lock. Reads are
// lock-free and tolerate a directory disappearing
// mid-scan, because a concurrent worker may move an issue from open to
// closed between readdir and the child open.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	walkMetaFile      = "_walk.md"
	memoriesFile      = "memories.json"
	proposalsFile     = "proposals.json"
	lockFile          = ".walk.lock"
	summaryFile       = "summary.md"
	planningResultMD  = "_planning_result.md"
	restartMarkerFile = "_restart_requested"
	driverPIDFile     = ".driver.pid"

	openDir   = "open"
	closedDir = "closed"
	epochsDir = "epochs"

	issueMetaFile     = "issue.md"
	commentsFile      = "comments.md"
	blockedByDir      = "blocked_by"
	derivedFromDir    = "derived_from"
	runsDir           = "runs"
	blockedByDriverFl = "blocked_by_driver"
	priorityBumpFile  = ".next"
	closeMetaFile     = "close.meta"
	closeBodyFile     = "close.body"
	resultFile        = "result"
)

// Store is a handle on one walk directory. It is safe for concurrent
// use by multiple goroutines within one process; cross-process mutual
// exclusion on writes is provided by the .walk.lock file.
type Store struct {
	Dir string
	Log *slog.Logger
}

// New opens a store rooted at dir. dir must already exist (walk
// scaffolding is created externally, per spec.md §3's Walk lifecycle
// note).
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening walk directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	for _, sub := range []string{openDir, closedDir, epochsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("ensuring %s: %w", sub, err)
		}
	}
	return &Store{Dir: dir, Log: slog.Default()}, nil
}

func (s *Store) path(parts ...string) string {
	return filepath.Join(append([]string{s.Dir}, parts...)...)
}

func (s *Store) openIssueDir(slug string) string   { return s.path(openDir, slug) }
func (s *Store) closedIssueDir(slug string) string { return s.path(closedDir, slug) }

func (s *Store) lockPath() string { return s.path(lockFile) }

func (s *Store) logf(msg string, args ...any) {
	if s.Log != nil {
		s.Log.Warn(msg, args...)
	}
}

// issueExists reports, without locking, whether slug currently resolves
// to an open or closed directory.
func (s *Store) issueExists(slug string) (openExists, closedExists bool) {
	_, oerr := os.Stat(s.openIssueDir(slug))
	_, cerr := os.Stat(s.closedIssueDir(slug))
	return oerr == nil, cerr == nil
}

