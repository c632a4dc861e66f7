package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("fix-thing"))
	assert.True(t, IsValidSlug("a1"))
	assert.False(t, IsValidSlug("Fix-Thing"))
	assert.False(t, IsValidSlug("-leading-dash"))
	assert.False(t, IsValidSlug(""))
}

func TestIssueValidate(t *testing.T) {
	valid := Issue{Slug: "fix-thing", Title: "Fix the thing", Priority: 1}
	assert.NoError(t, valid.Validate())

	noTitle := Issue{Slug: "fix-thing", Priority: 1}
	assert.Error(t, noTitle.Validate())

	badSlug := Issue{Slug: "Fix-Thing", Title: "Fix the thing"}
	assert.Error(t, badSlug.Validate())

	negativePriority := Issue{Slug: "fix-thing", Title: "Fix the thing", Priority: -1}
	assert.Error(t, negativePriority.Validate())
}

func TestIssueIsEpic(t *testing.T) {
	epic := Issue{Type: EpicType}
	assert.True(t, epic.IsEpic())

	fix := Issue{Type: "fix"}
	assert.False(t, fix.IsEpic())
}

func TestSignalIsValid(t *testing.T) {
	assert.True(t, SignalRoutine.IsValid())
	assert.True(t, SignalSurprising.IsValid())
	assert.True(t, SignalPivotal.IsValid())
	assert.False(t, Signal("unknown").IsValid())
}

func TestRunSucceededAndFailed(t *testing.T) {
	zero := 0
	one := 1

	success := Run{ExitCode: &zero}
	assert.True(t, success.Succeeded())
	assert.False(t, success.Failed())

	failure := Run{ExitCode: &one}
	assert.False(t, failure.Succeeded())
	assert.True(t, failure.Failed())

	signalled := Run{ExitCode: nil}
	assert.False(t, signalled.Succeeded())
	assert.False(t, signalled.Failed())
}
