package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalkStatusIsTerminal(t *testing.T) {
	assert.False(t, WalkOpen.IsTerminal())
	assert.True(t, WalkCompleted.IsTerminal())
	assert.True(t, WalkStalled.IsTerminal())
	assert.True(t, WalkStopped.IsTerminal())
}

func TestMemoryAliveAt(t *testing.T) {
	open := Memory{AliveFrom: 2}
	assert.False(t, open.AliveAt(1))
	assert.True(t, open.AliveAt(2))
	assert.True(t, open.AliveAt(100))

	until := 5
	bounded := Memory{AliveFrom: 2, AliveUntil: &until}
	assert.False(t, bounded.AliveAt(1))
	assert.True(t, bounded.AliveAt(5))
	assert.False(t, bounded.AliveAt(6))
}

func TestPlanningOutcomeIsValid(t *testing.T) {
	assert.True(t, OutcomeCompleted.IsValid())
	assert.True(t, OutcomeCreatedIssues.IsValid())
	assert.True(t, OutcomeNoWorkFound.IsValid())
	assert.False(t, PlanningOutcome("unknown").IsValid())
}
