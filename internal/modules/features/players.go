package features

import (
	"github.com/courtsight/courtsight/internal/domain"
)

// leagueAverageEfficiency anchors the strength scale. Efficiency ratings are
// PER-style: 15 is league average, 30 is an exceptional season.
const leagueAverageEfficiency = 15.0

// computePlayerStrength scores roster quality from starter efficiency
// ratings. The average starter rating is centered on the league average and
// mapped onto [0, 10] so an average roster scores 5.0. With no roster data
// the neutral strength (5.0) is returned.
func computePlayerStrength(players []domain.Player) PlayerStrength {
	var sum float64
	count := 0
	for _, p := range players {
		if !p.IsStarter {
			continue
		}
		sum += p.EfficiencyRating
		count++
	}

	// Fall back to the full roster when starters are not flagged.
	if count == 0 {
		for _, p := range players {
			sum += p.EfficiencyRating
			count++
		}
	}

	if count == 0 {
		return NeutralPlayerStrength()
	}

	avg := sum / float64(count)
	score := clamp(5+(avg-leagueAverageEfficiency)/3, 0, 10)

	return PlayerStrength{
		PlayerCount:   count,
		AvgEfficiency: avg,
		StrengthScore: score,
	}
}

// starterSet builds a player-ID set of a team's starters for key-player
// injury attribution.
func starterSet(players []domain.Player) map[string]bool {
	starters := make(map[string]bool, len(players))
	for _, p := range players {
		if p.IsStarter {
			starters[p.ID] = true
		}
	}
	return starters
}
