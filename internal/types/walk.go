package types

import "time"

// WalkStatus is the terminal-or-not lifecycle state of a walk.
type WalkStatus string

const (
	WalkOpen      WalkStatus = "open"
	WalkCompleted WalkStatus = "completed"
	WalkStalled   WalkStatus = "stalled"
	WalkStopped   WalkStatus = "stopped"
)

// IsTerminal reports whether the status ends the walk's lifecycle.
func (s WalkStatus) IsTerminal() bool {
	return s == WalkCompleted || s == WalkStalled || s == WalkStopped
}

// Walk is a named investigation rooted at a directory.
type Walk struct {
	Title        string     `yaml:"title"`
	Status       WalkStatus `yaml:"status"`
	Body         string     `yaml:"-"`
	FinishedAt   *time.Time `yaml:"finished_at,omitempty"`
	FinishReason string     `yaml:"finish_reason,omitempty"`
	Config       Config     `yaml:"config"`
}

// Config holds the tunables a walk may override via its frontmatter
// config block. Zero values mean "use the driver default".
type Config struct {
	MaxFailures           int           `yaml:"max_failures,omitempty"`
	PlanningThresholdInit int           `yaml:"planning_threshold_init,omitempty"`
	PlanningThresholdMin  int           `yaml:"planning_threshold_min,omitempty"`
	PlanningThresholdMax  int           `yaml:"planning_threshold_max,omitempty"`
	MaxPlanningRounds     int           `yaml:"max_planning_rounds,omitempty"`
	PollInterval          time.Duration `yaml:"poll_interval,omitempty"`
	DrainTimeout          time.Duration `yaml:"drain_timeout,omitempty"`
	MaxConcurrent         int           `yaml:"max_concurrent,omitempty"`
	ClosedDigestBytes     int           `yaml:"closed_digest_bytes,omitempty"` // not read: the snapshot's recently-closed threshold is fixed at 20,000 bytes
	AgentCommand          string        `yaml:"agent_command,omitempty"`
}

// Memory is a key/text fact with an epoch lifetime, propagated into
// worker prompts by the planner.
type Memory struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	AliveFrom   int    `json:"alive_from"`
	AliveUntil  *int   `json:"alive_until,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	KilledBy    string `json:"killed_by,omitempty"`
}

// AliveAt reports whether the memory is alive at the given epoch.
func (m *Memory) AliveAt(epoch int) bool {
	if m.AliveFrom > epoch {
		return false
	}
	return m.AliveUntil == nil || epoch <= *m.AliveUntil
}

// ProposalStatus is the lifecycle state of a staged memory candidate.
type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalDiscarded ProposalStatus = "discarded"
)

// Proposal is a memory candidate staged by a worker and resolved by the
// planner into an accepted Memory or a discard.
type Proposal struct {
	Key        string         `json:"key"`
	Text       string         `json:"text"`
	ProposedBy string         `json:"proposed_by,omitempty"`
	Epoch      int            `json:"epoch"`
	Status     ProposalStatus `json:"status"`
}

// ExpansionStat aggregates the expansion ratio for one issue type (or
// overall).
type ExpansionStat struct {
	Type   string  `json:"type"`
	Count  int     `json:"count"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Total  float64 `json:"total"`
}

// NewContext is the result of new_context_since: bytes closed and
// signals raised since a point in time.
type NewContext struct {
	Bytes   int64
	Signals []Signal
	Issues  []string
}

// DiscoveryTree is the result of build_discovery_tree.
type DiscoveryTree struct {
	Roots      []string
	Children   map[string][]string
	ParentsOf  map[string][]string
	Issues     map[string]*Issue
}

// Snapshot is a read-consistent view of a walk, taken at one instant,
// for the prompt assembler and the report renderers to consume without
// re-touching the filesystem mid-render. Taken is the time the
// snapshot was produced; it stands in for time.Now() in any downstream
// pure function.
type Snapshot struct {
	Walk    Walk
	Epoch   int
	Taken   time.Time

	Open   []*Issue
	Closed []*Issue
	Ready  []*Issue

	Memories  []Memory
	Proposals []Proposal

	RecentClosedBytesThreshold int64
	ExpansionStats             []ExpansionStat
}
