package weights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	ws := Defaults()

	assert.NoError(t, ws.Validate())
	assert.Equal(t, 0, ws.Version)
	assert.Equal(t, StatusActive, ws.Status)
	assert.Equal(t, "default", ws.Source)
}

func TestValidateMissingFactor(t *testing.T) {
	ws := Defaults()
	delete(ws.Weights, FactorMarket)

	err := ws.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing factor")
}

func TestValidateOutOfBounds(t *testing.T) {
	tooHigh := Defaults()
	tooHigh.Weights[FactorForm] = 0.5
	assert.Error(t, tooHigh.Validate())

	tooLow := Defaults()
	tooLow.Weights[FactorForm] = 0.001
	assert.Error(t, tooLow.Validate())
}

func TestValidateSumMustBeOne(t *testing.T) {
	ws := Defaults()
	// Keep every weight in bounds but break the total.
	ws.Weights[FactorForm] = 0.10
	ws.Weights[FactorPlayerStrength] = 0.10

	err := ws.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestGetAbsentFactorIsZero(t *testing.T) {
	ws := WeightSet{Weights: map[Factor]float64{FactorForm: 0.2}}

	assert.Equal(t, 0.2, ws.Get(FactorForm))
	assert.Equal(t, 0.0, ws.Get(FactorMarket))
}

func TestNormalizeRescalesToOne(t *testing.T) {
	raw := map[Factor]float64{
		FactorForm:       2,
		FactorHomeCourt:  1,
		FactorHeadToHead: 1,
	}

	normalized := Normalize(raw)

	sum := 0.0
	for _, v := range normalized {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.5, normalized[FactorForm], 1e-9)
	assert.InDelta(t, 0.25, normalized[FactorHomeCourt], 1e-9)
}

func TestNormalizeZeroSumFallsBackToDefaults(t *testing.T) {
	normalized := Normalize(map[Factor]float64{FactorForm: 0})

	assert.Equal(t, Defaults().Weights, normalized)
}

func TestAllFactorsCoverDefaults(t *testing.T) {
	ws := Defaults()

	assert.Len(t, AllFactors, len(ws.Weights))
	for _, factor := range AllFactors {
		_, ok := ws.Weights[factor]
		assert.True(t, ok, "factor %s has no default weight", factor)
	}
}
