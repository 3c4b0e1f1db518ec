// Package tuning retunes ensemble weights from validated prediction history.
// Each run measures how often every factor pointed at the actual winner,
// derives ideal weight shares from those accuracies, and proposes a damped
// step toward them. Proposals never self-adopt.
package tuning

import (
	"time"

	"github.com/courtsight/courtsight/internal/modules/weights"
)

// Performance tiers per factor
const (
	TierExcellent        = "excellent"
	TierGood             = "good"
	TierNeedsImprovement = "needs_improvement"
)

// Tier boundaries in accuracy percent.
const (
	tierExcellentMin = 70.0
	tierGoodMin      = 55.0
)

// FactorReport measures one factor's predictive record over the sample.
type FactorReport struct {
	Factor weights.Factor `json:"factor"`

	// Decisive counts records where the factor took a clear side; Correct
	// counts those where that side actually won.
	Decisive    int     `json:"decisive"`
	Correct     int     `json:"correct"`
	AccuracyPct float64 `json:"accuracy_pct"`
	Tier        string  `json:"tier"`

	CurrentWeight  float64 `json:"current_weight"`
	ProposedWeight float64 `json:"proposed_weight"`
}

// Report is the full result of one tuning run.
type Report struct {
	RunUUID            string         `json:"run_uuid"`
	SampleSize         int            `json:"sample_size"`
	InsufficientSample bool           `json:"insufficient_sample"`
	MinSample          int            `json:"min_sample"`
	Factors            []FactorReport `json:"factors,omitempty"`

	// ProposedVersion is the stored weight set version awaiting adoption.
	// Zero when no proposal was made.
	ProposedVersion int       `json:"proposed_version,omitempty"`
	BaseVersion     int       `json:"base_version"`
	GeneratedAt     time.Time `json:"generated_at"`
}

func tierFor(accuracyPct float64) string {
	switch {
	case accuracyPct >= tierExcellentMin:
		return TierExcellent
	case accuracyPct >= tierGoodMin:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}
