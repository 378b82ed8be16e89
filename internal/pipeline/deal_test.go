package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Run("non-terminal stages move freely in both directions", func(t *testing.T) {
		assert.True(t, CanTransition(StageLeadGen, StageNegotiation))
		assert.True(t, CanTransition(StageNegotiation, StageLeadGen))
		assert.True(t, CanTransition(StageProposal, StageClosedWon))
		assert.True(t, CanTransition(StageDemo, StageClosedLost))
	})

	t.Run("terminal stages are never departed", func(t *testing.T) {
		for _, to := range Stages {
			assert.False(t, CanTransition(StageClosedWon, to), "Closed Won -> %s", to)
			assert.False(t, CanTransition(StageClosedLost, to), "Closed Lost -> %s", to)
		}
	})

	t.Run("same-stage is not a transition", func(t *testing.T) {
		for _, s := range Stages {
			assert.False(t, CanTransition(s, s))
		}
	})

	t.Run("unknown stages rejected", func(t *testing.T) {
		assert.False(t, CanTransition("Backlog", StageProposal))
		assert.False(t, CanTransition(StageProposal, "Backlog"))
	})
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StageClosedWon))
	assert.True(t, IsTerminal(StageClosedLost))
	assert.False(t, IsTerminal(StageLeadGen))
	assert.False(t, IsTerminal(StageNegotiation))
}

func TestStageByName(t *testing.T) {
	cases := map[string]Stage{
		"lead gen":      StageLeadGen,
		"LEAD-GEN":      StageLeadGen,
		"lead":          StageLeadGen,
		"qual":          StageQualification,
		"Qualification": StageQualification,
		"proposal":      StageProposal,
		"demo":          StageDemo,
		"negotiation":   StageNegotiation,
		"won":           StageClosedWon,
		"closed won":    StageClosedWon,
		"lost":          StageClosedLost,
	}
	for input, want := range cases {
		got, ok := StageByName(input)
		assert.True(t, ok, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, ok := StageByName("archived")
	assert.False(t, ok)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
