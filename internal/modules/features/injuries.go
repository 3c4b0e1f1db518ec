package features

import (
	"github.com/courtsight/courtsight/internal/domain"
)

// computeInjuryImpact sums severity weights over a team's active injuries
// (severe = 3, moderate = 2, minor = 1), capped at 10. Starters count as key
// players; their absence is what the KeyPlayersOut figure reports.
func computeInjuryImpact(injuries []domain.Injury, starters map[string]bool) InjuryImpact {
	if len(injuries) == 0 {
		return NeutralInjuryImpact()
	}

	var score float64
	keyOut := 0
	for _, inj := range injuries {
		score += inj.Severity.Weight()
		if starters[inj.PlayerID] {
			keyOut++
		}
	}

	return InjuryImpact{
		ActiveInjuryCount: len(injuries),
		KeyPlayersOut:     keyOut,
		ImpactScore:       clamp(score, 0, 10),
	}
}
