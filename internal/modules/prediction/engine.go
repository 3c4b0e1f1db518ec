package prediction

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/features"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

// Differential scale bounds. The engine accumulates a home-advantage score
// on 0-100 starting from neutral 50 and clamps only after all factors are
// applied, so opposing signals can cancel before any truncation.
const (
	differentialNeutral = 50.0
	differentialMin     = 0.0
	differentialMax     = 100.0
)

// Confidence blend constants: 60% data availability, 40% prediction
// strength, clamped to the valid band.
const (
	confidenceAvailabilityWeight = 0.6
	confidenceStrengthWeight     = 0.4
	confidenceMin                = 60.0
	confidenceMax                = 95.0
)

// Upset risk constants. Feature disagreement (variance across the factor
// differentials) raises the upset probability above its baseline.
const (
	upsetDisagreementGain = 20.0
	upsetCap              = 45.0
)

// dataFactors are the signals whose availability feeds the confidence
// blend. Home court is a constant and the contextual signals default to
// neutral, so none of them say anything about data quality.
var dataFactors = []weights.Factor{
	weights.FactorForm,
	weights.FactorPlayerStrength,
	weights.FactorInjury,
	weights.FactorFatigue,
	weights.FactorHeadToHead,
	weights.FactorRest,
}

// WeightsProvider supplies the active weight set at invocation time. Weights
// are an explicit versioned input, not a module-level singleton, so re-runs
// against historical weight versions stay reproducible.
type WeightsProvider interface {
	Active() (weights.WeightSet, error)
}

// Engine combines adapter signals into a structured prediction record
type Engine struct {
	adapter *features.Adapter
	weights WeightsProvider
	profile SportProfile
	log     zerolog.Logger
}

// NewEngine creates a new prediction engine
func NewEngine(adapter *features.Adapter, provider WeightsProvider, profile SportProfile, log zerolog.Logger) *Engine {
	return &Engine{
		adapter: adapter,
		weights: provider,
		profile: profile,
		log:     log.With().Str("service", "prediction_engine").Logger(),
	}
}

// Generate produces a prediction for one matchup. The result is always a
// well-formed record: when the feature pipeline fails entirely the engine
// returns a tagged fallback instead of propagating the failure. An error is
// returned only for malformed matchups.
func (e *Engine) Generate(ctx context.Context, matchup domain.Matchup) (*GenerateResult, error) {
	if matchup.GameID == "" || matchup.HomeTeamID == "" || matchup.AwayTeamID == "" {
		return nil, fmt.Errorf("matchup requires game, home and away team ids")
	}

	ws, err := e.weights.Active()
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to load active weights, using defaults")
		ws = weights.Defaults()
	}

	signals, err := e.adapter.ForMatchup(ctx, matchup)
	if err != nil {
		e.log.Warn().
			Err(err).
			Str("game_id", matchup.GameID).
			Msg("Feature pipeline failed, producing fallback prediction")
		return e.fallback(matchup, ws.Version, err.Error()), nil
	}

	vector := e.buildFeatureVector(signals)

	// Accumulate the home-advantage differential. Inverted factors (injury,
	// fatigue) contribute away-minus-home: the away side's burden raises the
	// home score.
	differential := differentialNeutral
	breakdown := make(map[weights.Factor]float64, len(weights.AllFactors))
	for _, factor := range weights.AllFactors {
		values := vector[factor]
		diff := values.Differential()
		if e.profile.Inverted(factor) {
			diff = -diff
		}
		contribution := diff * ws.Get(factor) * e.profile.Scale(factor)
		breakdown[factor] = round2(contribution)
		differential += contribution
	}
	differential = clamp(differential, differentialMin, differentialMax)

	probability := differential / differentialMax

	winnerID := matchup.HomeTeamID
	if probability < 0.5 {
		winnerID = matchup.AwayTeamID
	}

	homeScore, awayScore := e.forecastScores(probability, vector)

	record := &Record{
		UUID:           uuid.New().String(),
		GameID:         matchup.GameID,
		Sport:          matchup.Sport,
		ModelVersion:   ModelVersion,
		WeightsVersion: ws.Version,

		PredictedWinnerID:  winnerID,
		HomeWinProbability: round4(probability),
		Confidence:         e.confidence(probability, vector),
		PredictedHomeScore: round1(homeScore),
		PredictedAwayScore: round1(awayScore),
		PredictedSpread:    round1(homeScore - awayScore),
		PredictedTotal:     round1(homeScore + awayScore),
		UpsetProbability:   e.upsetProbability(probability, vector),

		KeyFactors:      keyFactors(vector, ws),
		FactorBreakdown: breakdown,
		FeatureVector:   vector,

		CreatedAt: time.Now().UTC(),
	}

	return &GenerateResult{Record: record}, nil
}

// buildFeatureVector maps adapter signals onto bounded factor pairs.
// Contextual signals without a data source default to neutral.
func (e *Engine) buildFeatureVector(signals *features.MatchupSignals) FeatureVector {
	home, away := signals.Home, signals.Away

	neutral := FactorValues{Home: 5, Away: 5}

	return FeatureVector{
		weights.FactorForm: {
			Home:      home.Form.FormScore,
			Away:      away.Form.FormScore,
			Available: home.FormAvailable && away.FormAvailable,
		},
		weights.FactorPlayerStrength: {
			Home:      home.Players.StrengthScore,
			Away:      away.Players.StrengthScore,
			Available: home.PlayersAvailable && away.PlayersAvailable,
		},
		weights.FactorInjury: {
			Home:      home.Injury.ImpactScore,
			Away:      away.Injury.ImpactScore,
			Available: home.InjuryAvailable || away.InjuryAvailable,
		},
		weights.FactorFatigue: {
			Home:      home.Fatigue.FatigueScore,
			Away:      away.Fatigue.FatigueScore,
			Available: home.FatigueAvailable && away.FatigueAvailable,
		},
		weights.FactorHeadToHead: {
			Home:      signals.H2H.H2HScore,
			Away:      10 - signals.H2H.H2HScore,
			Available: signals.H2HAvailable,
		},
		weights.FactorHomeCourt: {
			Home:      e.profile.HomeCourtScore,
			Away:      5,
			Available: true,
		},
		weights.FactorRest: {
			Home:      restScore(home.Fatigue.DaysRest),
			Away:      restScore(away.Fatigue.DaysRest),
			Available: home.FatigueAvailable && away.FatigueAvailable,
		},
		weights.FactorWeather:   neutral,
		weights.FactorSentiment: neutral,
		weights.FactorMarket:    neutral,
	}
}

// forecastScores derives a score forecast from the win probability and the
// form, injury and fatigue differentials, using the sport's baseline and
// variance constants. Scores floor at zero.
func (e *Engine) forecastScores(probability float64, vector FeatureVector) (float64, float64) {
	variance := e.profile.ScoreVariance
	shift := (probability - 0.5) * variance * 2

	formDiff := vector[weights.FactorForm].Differential()
	injuryDiff := vector[weights.FactorInjury].Differential()
	fatigueDiff := vector[weights.FactorFatigue].Differential()

	// Form rewards the stronger side; injury and fatigue burden the side
	// carrying them.
	adjustment := formDiff*variance/5 - injuryDiff*variance/10 - fatigueDiff*variance/10

	home := e.profile.BaselineScore + shift + adjustment/2
	away := e.profile.BaselineScore - shift - adjustment/2

	return math.Max(home, 0), math.Max(away, 0)
}

// confidence blends data availability with prediction strength. A prediction
// built mostly from neutral defaults stays near the bottom of the band no
// matter how lopsided its differential looks.
func (e *Engine) confidence(probability float64, vector FeatureVector) float64 {
	available := 0
	for _, factor := range dataFactors {
		if vector[factor].Available {
			available++
		}
	}
	availability := 100 * float64(available) / float64(len(dataFactors))
	strength := math.Abs(probability-0.5) * 2 * 100

	blended := confidenceAvailabilityWeight*availability + confidenceStrengthWeight*strength
	return round1(clamp(blended, confidenceMin, confidenceMax))
}

// upsetProbability starts from the losing side's chance and adds a penalty
// for feature disagreement: when the factors point in conflicting
// directions the favorite is less safe than the probability alone suggests.
func (e *Engine) upsetProbability(probability float64, vector FeatureVector) float64 {
	base := (1 - math.Max(probability, 1-probability)) * 100

	var diffs []float64
	for _, factor := range dataFactors {
		values := vector[factor]
		if !values.Available {
			continue
		}
		diffs = append(diffs, values.Differential()/10)
	}

	disagreement := 0.0
	if len(diffs) > 1 {
		disagreement = stat.Variance(diffs, nil)
	}

	return round1(math.Min(base+disagreement*upsetDisagreementGain, upsetCap))
}

// keyFactors ranks factors by |home-away| x weight and reports the top
// three contributors.
func keyFactors(vector FeatureVector, ws weights.WeightSet) []KeyFactor {
	ranked := make([]KeyFactor, 0, len(weights.AllFactors))
	for _, factor := range weights.AllFactors {
		impact := math.Abs(vector[factor].Differential()) * ws.Get(factor)
		ranked = append(ranked, KeyFactor{Factor: factor, Impact: round2(impact)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Impact > ranked[j].Impact
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}

// restScore maps days of rest onto the 0-10 factor scale.
func restScore(daysRest int) float64 {
	return clamp(float64(daysRest), 0, 4) * 2.5
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
