package prediction

import (
	"time"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

// ModelVersion tags every record with the ensemble revision that produced
// it. Fallback records get the -fallback suffix on top of this.
const ModelVersion = "ensemble-v1"

// FactorValues holds one factor's home and away values on its 0-10 scale.
// Available is false when the value is a neutral default rather than derived
// from real records.
type FactorValues struct {
	Home      float64 `json:"home"`
	Away      float64 `json:"away"`
	Available bool    `json:"available"`
}

// Differential returns home minus away.
func (v FactorValues) Differential() float64 {
	return v.Home - v.Away
}

// FeatureVector is the complete set of normalized signals for one matchup.
// Every component is bounded to [0, 10] before combination; unavailable
// inputs carry their neutral default.
type FeatureVector map[weights.Factor]FactorValues

// KeyFactor is one ranked entry of the explainability output
type KeyFactor struct {
	Factor weights.Factor `json:"factor"`
	Impact float64        `json:"impact"`
}

// Record is one stored prediction. Core fields are immutable after
// creation; the annotation fields are written exactly once by the validator.
type Record struct {
	UUID           string       `json:"uuid"`
	GameID         string       `json:"game_id"`
	Sport          domain.Sport `json:"sport"`
	ModelVersion   string       `json:"model_version"`
	IsFallback     bool         `json:"is_fallback"`
	WeightsVersion int          `json:"weights_version"`

	PredictedWinnerID  string  `json:"predicted_winner_id"`
	HomeWinProbability float64 `json:"home_win_probability"`
	Confidence         float64 `json:"confidence"`
	PredictedHomeScore float64 `json:"predicted_home_score"`
	PredictedAwayScore float64 `json:"predicted_away_score"`
	PredictedSpread    float64 `json:"predicted_spread"`
	PredictedTotal     float64 `json:"predicted_total"`
	UpsetProbability   float64 `json:"upset_probability"`

	KeyFactors      []KeyFactor                `json:"key_factors"`
	FactorBreakdown map[weights.Factor]float64 `json:"factor_breakdown"`
	FeatureVector   FeatureVector              `json:"feature_vector"`

	CreatedAt time.Time `json:"created_at"`

	// Outcome annotations, written exactly once by the validator.
	ActualHomeScore *int       `json:"actual_home_score,omitempty"`
	ActualAwayScore *int       `json:"actual_away_score,omitempty"`
	ActualWinnerID  *string    `json:"actual_winner_id,omitempty"`
	WasCorrect      *bool      `json:"was_correct,omitempty"`
	MarginOfError   *float64   `json:"margin_of_error,omitempty"`
	ValidatedAt     *time.Time `json:"validated_at,omitempty"`
}

// IsValidated reports whether the record already carries outcome annotations.
func (r *Record) IsValidated() bool {
	return r.ValidatedAt != nil
}

// Outcome holds the annotation fields the validator writes.
type Outcome struct {
	ActualHomeScore int
	ActualAwayScore int
	ActualWinnerID  string
	WasCorrect      bool
	MarginOfError   float64
	ValidatedAt     time.Time
}

// GenerateResult is the engine's explicit result type: a well-formed record
// that is either a genuine model output or a clearly tagged fallback.
// Callers distinguish the two without parsing version strings.
type GenerateResult struct {
	Record         *Record `json:"record"`
	Fallback       bool    `json:"fallback"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
}
