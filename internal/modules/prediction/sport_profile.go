// Package prediction implements the weighted ensemble engine that turns
// matchup signals into win-probability and score forecasts, and the
// append-only store those forecasts live in.
package prediction

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

// SportProfile isolates every scale and gain constant for one sport so the
// combination algorithm stays data-driven and testable independent of any
// one sport's tuning.
type SportProfile struct {
	Sport domain.Sport `yaml:"sport"`

	// BaselineScore and ScoreVariance drive the score forecast: baseline is
	// an average team score, variance the typical swing around it.
	BaselineScore float64 `yaml:"baseline_score"`
	ScoreVariance float64 `yaml:"score_variance"`

	// HomeCourtScore is the home side's value for the home-court factor on
	// the 0-10 scale; the away side is pinned at neutral 5.0.
	HomeCourtScore float64 `yaml:"home_court_score"`

	// FactorScales map each factor's 0-10 domain onto the 0-100 differential
	// scale: per-factor gain = weight * scale.
	FactorScales map[weights.Factor]float64 `yaml:"factor_scales"`
}

// invertedFactors lists factors where the away side's disadvantage raises
// the home score: a hurt or tired away team helps the home team.
var invertedFactors = map[weights.Factor]bool{
	weights.FactorInjury:  true,
	weights.FactorFatigue: true,
}

// Inverted reports whether a factor's differential is applied away-minus-home.
func (p *SportProfile) Inverted(factor weights.Factor) bool {
	return invertedFactors[factor]
}

// Scale returns the differential scale constant for a factor.
func (p *SportProfile) Scale(factor weights.Factor) float64 {
	if s, ok := p.FactorScales[factor]; ok {
		return s
	}
	return 0
}

func defaultFactorScales() map[weights.Factor]float64 {
	return map[weights.Factor]float64{
		weights.FactorForm:           10,
		weights.FactorPlayerStrength: 10,
		weights.FactorInjury:         8,
		weights.FactorFatigue:        6,
		weights.FactorHeadToHead:     6,
		weights.FactorHomeCourt:      10,
		weights.FactorRest:           4,
		weights.FactorWeather:        3,
		weights.FactorSentiment:      2,
		weights.FactorMarket:         3,
	}
}

// NBAProfile returns the default basketball profile.
func NBAProfile() SportProfile {
	return SportProfile{
		Sport:          domain.SportNBA,
		BaselineScore:  110,
		ScoreVariance:  10,
		HomeCourtScore: 6.5,
		FactorScales:   defaultFactorScales(),
	}
}

// NFLProfile returns the default American football profile.
func NFLProfile() SportProfile {
	return SportProfile{
		Sport:          domain.SportNFL,
		BaselineScore:  23,
		ScoreVariance:  7,
		HomeCourtScore: 6.0,
		FactorScales:   defaultFactorScales(),
	}
}

// ProfileForSport returns the compiled-in profile for a sport, defaulting to
// the NBA profile for unknown sports.
func ProfileForSport(sport domain.Sport) SportProfile {
	switch sport {
	case domain.SportNFL:
		return NFLProfile()
	default:
		return NBAProfile()
	}
}

// LoadProfile reads a YAML profile override file. Missing scale entries fall
// back to the defaults so override files only need to name what they change.
func LoadProfile(path string) (SportProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SportProfile{}, fmt.Errorf("failed to read sport profile %s: %w", path, err)
	}

	profile := SportProfile{FactorScales: defaultFactorScales()}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return SportProfile{}, fmt.Errorf("failed to parse sport profile %s: %w", path, err)
	}

	base := ProfileForSport(profile.Sport)
	if profile.BaselineScore == 0 {
		profile.BaselineScore = base.BaselineScore
	}
	if profile.ScoreVariance == 0 {
		profile.ScoreVariance = base.ScoreVariance
	}
	if profile.HomeCourtScore == 0 {
		profile.HomeCourtScore = base.HomeCourtScore
	}
	for factor, scale := range defaultFactorScales() {
		if _, ok := profile.FactorScales[factor]; !ok {
			profile.FactorScales[factor] = scale
		}
	}

	return profile, nil
}
