package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courtsight/courtsight/internal/domain"
)

func TestComputeHeadToHeadNoMeetings(t *testing.T) {
	summary := computeHeadToHead("lakers", "celtics", nil)

	assert.Equal(t, 0, summary.TotalGames)
	assert.Equal(t, NeutralH2HScore, summary.H2HScore)
}

func TestComputeHeadToHeadDominance(t *testing.T) {
	meetings := []domain.Game{
		completedGame("lakers", "celtics", 110, 100, 10),
		completedGame("celtics", "lakers", 95, 105, 40),
		completedGame("lakers", "celtics", 90, 100, 70),
	}

	summary := computeHeadToHead("lakers", "celtics", meetings)

	assert.Equal(t, 3, summary.TotalGames)
	assert.Equal(t, 2, summary.WinsTeamA)
	assert.Equal(t, 1, summary.WinsTeamB)
	assert.InDelta(t, 10.0*2/3, summary.H2HScore, 1e-9)
	// Margins from A's perspective: +10, +10, -10.
	assert.InDelta(t, 10.0/3, summary.AvgMargin, 1e-9)
}

func TestComputeHeadToHeadSweep(t *testing.T) {
	meetings := []domain.Game{
		completedGame("lakers", "celtics", 110, 100, 10),
		completedGame("lakers", "celtics", 120, 100, 40),
	}

	summary := computeHeadToHead("lakers", "celtics", meetings)

	assert.Equal(t, 10.0, summary.H2HScore)

	reversed := computeHeadToHead("celtics", "lakers", meetings)
	assert.Equal(t, 0.0, reversed.H2HScore)
}

func TestComputeHeadToHeadIgnoresOtherPairings(t *testing.T) {
	meetings := []domain.Game{
		completedGame("lakers", "heat", 110, 100, 10),
		completedGame("lakers", "celtics", 110, 100, 20),
	}

	summary := computeHeadToHead("lakers", "celtics", meetings)

	assert.Equal(t, 1, summary.TotalGames)
}
