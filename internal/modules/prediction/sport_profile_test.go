package prediction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

func TestProfileForSport(t *testing.T) {
	nba := ProfileForSport(domain.SportNBA)
	assert.Equal(t, 110.0, nba.BaselineScore)

	nfl := ProfileForSport(domain.SportNFL)
	assert.Equal(t, 23.0, nfl.BaselineScore)

	unknown := ProfileForSport(domain.Sport("curling"))
	assert.Equal(t, domain.SportNBA, unknown.Sport)
}

func TestProfileScaleUnknownFactorIsZero(t *testing.T) {
	profile := NBAProfile()

	assert.Equal(t, 10.0, profile.Scale(weights.FactorForm))
	assert.Equal(t, 0.0, profile.Scale(weights.Factor("made_up")))
}

func TestProfileInvertedFactors(t *testing.T) {
	profile := NBAProfile()

	assert.True(t, profile.Inverted(weights.FactorInjury))
	assert.True(t, profile.Inverted(weights.FactorFatigue))
	assert.False(t, profile.Inverted(weights.FactorForm))
	assert.False(t, profile.Inverted(weights.FactorHomeCourt))
}

func TestLoadProfileOverridesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
sport: nba
home_court_score: 7.2
factor_scales:
  form: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profile, err := LoadProfile(path)
	require.NoError(t, err)

	// Named overrides apply.
	assert.Equal(t, 7.2, profile.HomeCourtScore)
	assert.Equal(t, 12.0, profile.Scale(weights.FactorForm))

	// Everything unnamed falls back to the sport defaults.
	assert.Equal(t, 110.0, profile.BaselineScore)
	assert.Equal(t, 10.0, profile.ScoreVariance)
	assert.Equal(t, 8.0, profile.Scale(weights.FactorInjury))
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadProfileMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sport: [unterminated"), 0o644))

	_, err := LoadProfile(path)
	assert.Error(t, err)
}
