// Package types defines the data model shared by the store, the prompt
// assembler, the agent runner, the planning lifecycle and the driver:
// issues, runs, walks, epochs, memories and proposals.
package types

import (
	"fmt"
	"regexp"
	"time"
)

// SlugPattern is the validity pattern for issue slugs.
var SlugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// IsValidSlug reports whether s matches SlugPattern.
func IsValidSlug(s string) bool {
	return SlugPattern.MatchString(s)
}

// Status is the lifecycle state of an Issue.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Signal annotates a closure with how noteworthy it was to the walk.
type Signal string

const (
	SignalRoutine    Signal = "routine"
	SignalSurprising Signal = "surprising"
	SignalPivotal    Signal = "pivotal"
)

// IsValid reports whether s is one of the known signal values.
func (s Signal) IsValid() bool {
	switch s {
	case SignalRoutine, SignalSurprising, SignalPivotal:
		return true
	}
	return false
}

// EpicType is the reserved issue type treated as a container, never
// eligible for dispatch by ready_issues().
const EpicType = "epic"

// Issue is one atomic unit of work tracked by a walk.
type Issue struct {
	Slug  string `yaml:"slug"`
	Title string `yaml:"title"`
	Body  string `yaml:"-"` // markdown body, stored separately from frontmatter

	Type     string `yaml:"type"`
	Priority int    `yaml:"priority"`
	Status   Status `yaml:"status"`

	BlockedBy   []string `yaml:"blocked_by,omitempty"`
	DerivedFrom []string `yaml:"derived_from,omitempty"`

	PriorityOverride bool `yaml:"priority_override,omitempty"`
	BlockedByDriver  bool `yaml:"blocked_by_driver,omitempty"`

	CloseReason string     `yaml:"close_reason,omitempty"`
	ClosedAt    *time.Time `yaml:"closed_at,omitempty"`
	Signal      Signal     `yaml:"signal,omitempty"`
	Epoch       int        `yaml:"epoch,omitempty"`

	CreatedAt time.Time `yaml:"created_at"`

	Runs []Run `yaml:"-"`
}

// Validate checks field-level invariants that the store must refuse to
// persist.
func (i *Issue) Validate() error {
	if !IsValidSlug(i.Slug) {
		return fmt.Errorf("invalid slug %q: must match %s", i.Slug, SlugPattern.String())
	}
	if i.Title == "" {
		return fmt.Errorf("title is required")
	}
	if i.Priority < 0 {
		return fmt.Errorf("priority must be non-negative (got %d)", i.Priority)
	}
	return nil
}

// IsEpic reports whether the issue's declared type is the reserved
// container type, excluded from ready_issues().
func (i *Issue) IsEpic() bool {
	return i.Type == EpicType
}

// Run is one worker invocation against one issue.
type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	ExitCode   *int       `json:"exit_code"` // nil = signalled/interrupted
	Signalled  bool       `json:"signalled,omitempty"`

	Prompt string `json:"-"` // copy, stored alongside as runs/<ts>/prompt
	Output string `json:"-"` // copy or path to the streaming log

	CostUSD     *float64    `json:"cost_usd,omitempty"`
	TokenUsage  *TokenUsage `json:"token_usage,omitempty"`
}

// TokenUsage mirrors the usage block of the worker's terminal stream
// event.
type TokenUsage struct {
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	CacheCreateTokens int `json:"cache_creation_input_tokens"`
	CacheReadTokens   int `json:"cache_read_input_tokens"`
}

// Succeeded reports whether the run's exit code indicates success.
// A nil exit code (signalled) is neither success nor failure.
func (r *Run) Succeeded() bool {
	return r.ExitCode != nil && *r.ExitCode == 0
}

// Failed reports whether the run's exit code indicates failure.
func (r *Run) Failed() bool {
	return r.ExitCode != nil && *r.ExitCode != 0
}
