package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courtsight/courtsight/internal/domain"
)

func player(id string, efficiency float64, starter bool) domain.Player {
	return domain.Player{
		ID:               id,
		TeamID:           "lakers",
		Name:             id,
		EfficiencyRating: efficiency,
		IsStarter:        starter,
	}
}

func TestComputePlayerStrengthEmptyRoster(t *testing.T) {
	strength := computePlayerStrength(nil)

	assert.Equal(t, 0, strength.PlayerCount)
	assert.Equal(t, NeutralStrengthScore, strength.StrengthScore)
}

func TestComputePlayerStrengthAverageRoster(t *testing.T) {
	roster := []domain.Player{
		player("p1", 15, true),
		player("p2", 15, true),
		player("p3", 40, false), // bench, ignored while starters exist
	}

	strength := computePlayerStrength(roster)

	assert.Equal(t, 2, strength.PlayerCount)
	assert.InDelta(t, 15.0, strength.AvgEfficiency, 1e-9)
	assert.InDelta(t, 5.0, strength.StrengthScore, 1e-9)
}

func TestComputePlayerStrengthEliteStarters(t *testing.T) {
	roster := []domain.Player{
		player("p1", 27, true),
		player("p2", 21, true),
	}

	strength := computePlayerStrength(roster)

	// avg 24 -> 5 + (24-15)/3 = 8
	assert.InDelta(t, 8.0, strength.StrengthScore, 1e-9)
}

func TestComputePlayerStrengthFallsBackToFullRoster(t *testing.T) {
	roster := []domain.Player{
		player("p1", 12, false),
		player("p2", 18, false),
	}

	strength := computePlayerStrength(roster)

	assert.Equal(t, 2, strength.PlayerCount)
	assert.InDelta(t, 5.0, strength.StrengthScore, 1e-9)
}

func TestComputePlayerStrengthBounded(t *testing.T) {
	weak := computePlayerStrength([]domain.Player{player("p1", -30, true)})
	elite := computePlayerStrength([]domain.Player{player("p2", 60, true)})

	assert.Equal(t, 0.0, weak.StrengthScore)
	assert.Equal(t, 10.0, elite.StrengthScore)
}

func TestStarterSet(t *testing.T) {
	roster := []domain.Player{
		player("p1", 15, true),
		player("p2", 15, false),
	}

	starters := starterSet(roster)

	assert.True(t, starters["p1"])
	assert.False(t, starters["p2"])
}
