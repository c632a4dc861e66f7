// Package walkconfig resolves the driver's tunables from a walk's own
// _walk.md config block, overlaid by environment variables, the way
// the teacher's internal/config package layers instance and retention
// settings: a typed struct with a Default constructor and a FromEnv
// overlay, not a generic config framework.
package walkconfig

import (
	"os"
	"strconv"
	"time"

	"github.com/basketlab/walkdrv/internal/retry"
	"github.com/basketlab/walkdrv/internal/types"
)

// Config holds every tunable spec.md calls out by name.
type Config struct {
	MaxFailures           int
	PlanningThresholdInit int64
	PlanningThresholdMin  int64
	PlanningThresholdMax  int64
	MaxPlanningRounds     int
	PollInterval          time.Duration
	DrainTimeout          time.Duration
	MaxConcurrent         int
	AgentCommand          string
}

// Default returns the driver's built-in defaults.
func Default() Config {
	return Config{
		MaxFailures:           retry.DefaultMaxFailures,
		PlanningThresholdInit: 15_000,
		PlanningThresholdMin:  5_000,
		PlanningThresholdMax:  50_000,
		MaxPlanningRounds:     3,
		PollInterval:          10 * time.Second,
		DrainTimeout:          30 * time.Second,
		MaxConcurrent:         1,
		AgentCommand:          "claude",
	}
}

// WithWalkOverrides layers a walk's own _walk.md config block over c.
// Zero fields in override mean "use whatever c already has".
func (c Config) WithWalkOverrides(override types.Config) Config {
	if override.MaxFailures > 0 {
		c.MaxFailures = override.MaxFailures
	}
	if override.PlanningThresholdInit > 0 {
		c.PlanningThresholdInit = int64(override.PlanningThresholdInit)
	}
	if override.PlanningThresholdMin > 0 {
		c.PlanningThresholdMin = int64(override.PlanningThresholdMin)
	}
	if override.PlanningThresholdMax > 0 {
		c.PlanningThresholdMax = int64(override.PlanningThresholdMax)
	}
	if override.MaxPlanningRounds > 0 {
		c.MaxPlanningRounds = override.MaxPlanningRounds
	}
	if override.PollInterval > 0 {
		c.PollInterval = override.PollInterval
	}
	if override.DrainTimeout > 0 {
		c.DrainTimeout = override.DrainTimeout
	}
	if override.MaxConcurrent > 0 {
		c.MaxConcurrent = override.MaxConcurrent
	}
	if override.AgentCommand != "" {
		c.AgentCommand = override.AgentCommand
	}
	return c
}

// FromEnv layers environment-variable overrides over c: WALK_MAX_FAILURES,
// WALK_POLL_INTERVAL, WALK_DRAIN_TIMEOUT, WALK_MAX_CONCURRENT,
// WALK_MAX_PLANNING_ROUNDS, WALK_AGENT_CMD, WALK_PLANNING_THRESHOLD_INIT/MIN/MAX.
func (c Config) FromEnv() Config {
	if v, ok := envInt("WALK_MAX_FAILURES"); ok {
		c.MaxFailures = v
	}
	if v, ok := envInt64("WALK_PLANNING_THRESHOLD_INIT"); ok {
		c.PlanningThresholdInit = v
	}
	if v, ok := envInt64("WALK_PLANNING_THRESHOLD_MIN"); ok {
		c.PlanningThresholdMin = v
	}
	if v, ok := envInt64("WALK_PLANNING_THRESHOLD_MAX"); ok {
		c.PlanningThresholdMax = v
	}
	if v, ok := envInt("WALK_MAX_PLANNING_ROUNDS"); ok {
		c.MaxPlanningRounds = v
	}
	if v, ok := envDuration("WALK_POLL_INTERVAL"); ok {
		c.PollInterval = v
	}
	if v, ok := envDuration("WALK_DRAIN_TIMEOUT"); ok {
		c.DrainTimeout = v
	}
	if v, ok := envInt("WALK_MAX_CONCURRENT"); ok {
		c.MaxConcurrent = v
	}
	if v := os.Getenv("WALK_AGENT_CMD"); v != "" {
		c.AgentCommand = v
	}
	return c
}

// Clamp clamps the planning threshold fields into their own
// [min, max] bounds, per the adaptive planning threshold's invariant.
func (c Config) Clamp(threshold int64) int64 {
	if threshold < c.PlanningThresholdMin {
		return c.PlanningThresholdMin
	}
	if threshold > c.PlanningThresholdMax {
		return c.PlanningThresholdMax
	}
	return threshold
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envInt64(key string) (int64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
