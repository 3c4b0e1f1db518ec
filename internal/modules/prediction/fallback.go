package prediction

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

// Fallback confidence band. Deliberately below the engine's ceiling so a
// fallback never outranks a genuine prediction on confidence alone.
const (
	fallbackConfidenceMin = 65.0
	fallbackConfidenceMax = 85.0
)

// fallback produces a clearly tagged placeholder prediction when the feature
// pipeline fails entirely. It favors the home side with a small randomized
// spread and carries no feature vector, so downstream accuracy accounting can
// exclude it.
func (e *Engine) fallback(matchup domain.Matchup, weightsVersion int, reason string) *GenerateResult {
	variance := e.profile.ScoreVariance

	// Small home edge with random jitter, never a blowout.
	spread := 1 + rand.Float64()*variance/2
	probability := clamp(0.5+spread/(variance*4), 0.5, 0.65)

	home := e.profile.BaselineScore + spread/2
	away := math.Max(e.profile.BaselineScore-spread/2, 0)

	confidence := fallbackConfidenceMin + rand.Float64()*(fallbackConfidenceMax-fallbackConfidenceMin)

	record := &Record{
		UUID:           uuid.New().String(),
		GameID:         matchup.GameID,
		Sport:          matchup.Sport,
		ModelVersion:   ModelVersion + "-fallback",
		IsFallback:     true,
		WeightsVersion: weightsVersion,

		PredictedWinnerID:  matchup.HomeTeamID,
		HomeWinProbability: round4(probability),
		Confidence:         round1(confidence),
		PredictedHomeScore: round1(home),
		PredictedAwayScore: round1(away),
		PredictedSpread:    round1(home - away),
		PredictedTotal:     round1(home + away),
		UpsetProbability:   round1((1 - probability) * 100),

		KeyFactors:      []KeyFactor{},
		FactorBreakdown: map[weights.Factor]float64{},
		FeatureVector:   FeatureVector{},

		CreatedAt: time.Now().UTC(),
	}

	return &GenerateResult{
		Record:         record,
		Fallback:       true,
		FallbackReason: reason,
	}
}
