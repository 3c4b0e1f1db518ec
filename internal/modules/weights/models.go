// Package weights manages versioned ensemble weight sets. A weight set maps
// each prediction factor to its contribution weight; weights sum to 1.0 and
// each stays within [MinWeight, MaxWeight]. New versions are proposed by the
// tuner and only take effect when explicitly adopted.
package weights

import (
	"fmt"
	"math"
	"time"
)

// Factor names the weighted signals of the ensemble.
type Factor string

const (
	FactorForm           Factor = "form"
	FactorPlayerStrength Factor = "player_strength"
	FactorInjury         Factor = "injury"
	FactorFatigue        Factor = "fatigue"
	FactorHeadToHead     Factor = "head_to_head"
	FactorHomeCourt      Factor = "home_court"
	FactorRest           Factor = "rest"
	FactorWeather        Factor = "weather"
	FactorSentiment      Factor = "sentiment"
	FactorMarket         Factor = "market"
)

// AllFactors lists every weighted factor in a stable order.
var AllFactors = []Factor{
	FactorForm,
	FactorPlayerStrength,
	FactorInjury,
	FactorFatigue,
	FactorHeadToHead,
	FactorHomeCourt,
	FactorRest,
	FactorWeather,
	FactorSentiment,
	FactorMarket,
}

// Weight bounds. Every factor keeps at least a trace weight so tuning can
// recover a factor that was previously driven down, and no single factor can
// dominate the ensemble.
const (
	MinWeight = 0.02
	MaxWeight = 0.30
)

// weightSumTolerance absorbs float accumulation when checking the sum-to-one
// invariant.
const weightSumTolerance = 1e-6

// Status values for stored weight sets
const (
	StatusProposed = "proposed"
	StatusActive   = "active"
	StatusRetired  = "retired"
)

// WeightSet is one versioned factor→weight mapping
type WeightSet struct {
	Version   int                `json:"version"`
	Status    string             `json:"status"`
	Weights   map[Factor]float64 `json:"weights"`
	Source    string             `json:"source"` // "manual", "tuner", "default"
	Notes     string             `json:"notes"`
	CreatedAt time.Time          `json:"created_at"`
	AdoptedAt *time.Time         `json:"adopted_at,omitempty"`
}

// Get returns the weight for a factor, zero when absent.
func (ws *WeightSet) Get(factor Factor) float64 {
	return ws.Weights[factor]
}

// Validate checks the weight-set invariants: every factor present, each
// weight within bounds, and the total equal to 1.0.
func (ws *WeightSet) Validate() error {
	sum := 0.0
	for _, factor := range AllFactors {
		w, ok := ws.Weights[factor]
		if !ok {
			return fmt.Errorf("weight set missing factor %q", factor)
		}
		if w < MinWeight-weightSumTolerance || w > MaxWeight+weightSumTolerance {
			return fmt.Errorf("weight for %q out of bounds: %.4f not in [%.2f, %.2f]",
				factor, w, MinWeight, MaxWeight)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-3 {
		return fmt.Errorf("weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Normalize rescales all weights so they sum to 1.0. Bounds are not
// re-checked here; callers clamp before normalizing.
func Normalize(w map[Factor]float64) map[Factor]float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return Defaults().Weights
	}

	out := make(map[Factor]float64, len(w))
	for k, v := range w {
		out[k] = v / sum
	}
	return out
}

// Defaults returns the compiled-in starting weight set.
func Defaults() WeightSet {
	return WeightSet{
		Version: 0,
		Status:  StatusActive,
		Source:  "default",
		Weights: map[Factor]float64{
			FactorForm:           0.22,
			FactorPlayerStrength: 0.18,
			FactorInjury:         0.14,
			FactorFatigue:        0.10,
			FactorHeadToHead:     0.12,
			FactorHomeCourt:      0.14,
			FactorRest:           0.04,
			FactorWeather:        0.02,
			FactorSentiment:      0.02,
			FactorMarket:         0.02,
		},
	}
}
