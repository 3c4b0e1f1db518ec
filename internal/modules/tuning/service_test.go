package tuning

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/courtsight/courtsight/internal/database"
	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/prediction"
	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

var tuningAsOf = time.Date(2026, 2, 1, 5, 0, 0, 0, time.UTC)

type tuningFixture struct {
	service     *Service
	predictions *prediction.Repository
	weights     *weights.Repository
	runs        *runlog.Repository
}

func newTuningFixture(t *testing.T, opts Options) *tuningFixture {
	t.Helper()

	openDB := func(schema string) *sql.DB {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })
		_, err = db.Exec(database.Schema(schema))
		require.NoError(t, err)
		return db
	}

	predictionsDB := openDB("predictions")
	configDB := openDB("config")

	predictionRepo := prediction.NewRepository(predictionsDB, zerolog.Nop())
	weightsRepo := weights.NewRepository(configDB, zerolog.Nop())
	runs := runlog.NewRepository(predictionsDB, zerolog.Nop())

	return &tuningFixture{
		service:     NewService(predictionRepo, weightsRepo, runs, opts, zerolog.Nop()),
		predictions: predictionRepo,
		weights:     weightsRepo,
		runs:        runs,
	}
}

// seedValidated inserts one validated record where the home side won and the
// feature vector carried a decisive pro-home form signal and a decisive
// anti-home fatigue signal (home more tired, which the engine inverts).
func (f *tuningFixture) seedValidated(t *testing.T, uuid string, fallback bool) {
	t.Helper()

	record := &prediction.Record{
		UUID:               uuid,
		GameID:             "game-" + uuid,
		Sport:              domain.SportNBA,
		ModelVersion:       prediction.ModelVersion,
		IsFallback:         fallback,
		PredictedWinnerID:  "lakers",
		HomeWinProbability: 0.6,
		Confidence:         75,
		PredictedHomeScore: 110,
		PredictedAwayScore: 104,
		PredictedSpread:    6,
		PredictedTotal:     214,
		UpsetProbability:   30,
		KeyFactors:         []prediction.KeyFactor{},
		FactorBreakdown:    map[weights.Factor]float64{},
		FeatureVector: prediction.FeatureVector{
			weights.FactorForm:    {Home: 9, Away: 2, Available: true},
			weights.FactorFatigue: {Home: 8, Away: 1, Available: true},
			weights.FactorRest:    {Home: 5.2, Away: 5, Available: true}, // not decisive
		},
		CreatedAt: tuningAsOf.Add(-24 * time.Hour),
	}
	require.NoError(t, f.predictions.Insert(record))

	annotated, err := f.predictions.AnnotateOutcome(uuid, prediction.Outcome{
		ActualHomeScore: 110,
		ActualAwayScore: 100,
		ActualWinnerID:  "lakers",
		WasCorrect:      true,
		MarginOfError:   4,
		ValidatedAt:     tuningAsOf.Add(-12 * time.Hour),
	})
	require.NoError(t, err)
	require.True(t, annotated)
}

func TestTuneInsufficientSample(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 5, MinDecisive: 3})
	fixture.seedValidated(t, "p-1", false)
	fixture.seedValidated(t, "p-2", false)

	report, err := fixture.service.Tune(context.Background(), tuningAsOf)
	require.NoError(t, err)

	assert.True(t, report.InsufficientSample)
	assert.Equal(t, 2, report.SampleSize)
	assert.Equal(t, 0, report.ProposedVersion)
	assert.Empty(t, report.Factors)

	// No proposal was stored.
	history, err := fixture.weights.History(10)
	require.NoError(t, err)
	assert.Empty(t, history)

	// The skipped run is still audited.
	entries, err := fixture.runs.Recent(runlog.KindTuning, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Succeeded)
	assert.Contains(t, entries[0].Details, "insufficient_sample")
}

func TestTuneExcludesFallbacks(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 5, MinDecisive: 3})
	fixture.seedValidated(t, "p-1", false)
	fixture.seedValidated(t, "p-2", true)
	fixture.seedValidated(t, "p-3", true)

	report, err := fixture.service.Tune(context.Background(), tuningAsOf)
	require.NoError(t, err)

	assert.Equal(t, 1, report.SampleSize)
	assert.True(t, report.InsufficientSample)
}

func TestTuneProposesRetunedWeights(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 4, MinDecisive: 3})
	for _, uuid := range []string{"p-1", "p-2", "p-3", "p-4", "p-5", "p-6"} {
		fixture.seedValidated(t, uuid, false)
	}

	report, err := fixture.service.Tune(context.Background(), tuningAsOf)
	require.NoError(t, err)

	assert.False(t, report.InsufficientSample)
	assert.Equal(t, 6, report.SampleSize)
	assert.Positive(t, report.ProposedVersion)
	assert.Equal(t, 0, report.BaseVersion)

	byFactor := make(map[weights.Factor]FactorReport, len(report.Factors))
	for _, fr := range report.Factors {
		byFactor[fr.Factor] = fr
	}

	// Every seeded game was a home win: the pro-home form signal was always
	// right, the inverted fatigue signal always wrong.
	form := byFactor[weights.FactorForm]
	assert.Equal(t, 6, form.Decisive)
	assert.Equal(t, 6, form.Correct)
	assert.Equal(t, 100.0, form.AccuracyPct)
	assert.Equal(t, TierExcellent, form.Tier)
	assert.Greater(t, form.ProposedWeight, form.CurrentWeight)

	fatigue := byFactor[weights.FactorFatigue]
	assert.Equal(t, 6, fatigue.Decisive)
	assert.Equal(t, 0, fatigue.Correct)
	assert.Equal(t, TierNeedsImprovement, fatigue.Tier)
	assert.Less(t, fatigue.ProposedWeight, fatigue.CurrentWeight)

	// Rest never took a side, so it keeps its current weight.
	rest := byFactor[weights.FactorRest]
	assert.Equal(t, 0, rest.Decisive)
	assert.InDelta(t, rest.CurrentWeight, rest.ProposedWeight, 1e-6)

	// The proposal satisfies the weight invariants.
	stored, err := fixture.weights.GetVersion(report.ProposedVersion)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, stored.Validate())
	assert.Equal(t, "tuner", stored.Source)
	assert.Contains(t, stored.Notes, "sample=6")
}

func TestTuneNeverSelfAdopts(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 4, MinDecisive: 3})
	for _, uuid := range []string{"p-1", "p-2", "p-3", "p-4"} {
		fixture.seedValidated(t, uuid, false)
	}

	report, err := fixture.service.Tune(context.Background(), tuningAsOf)
	require.NoError(t, err)
	require.Positive(t, report.ProposedVersion)

	active, err := fixture.weights.Active()
	require.NoError(t, err)
	assert.Equal(t, 0, active.Version)

	stored, err := fixture.weights.GetVersion(report.ProposedVersion)
	require.NoError(t, err)
	assert.Equal(t, weights.StatusProposed, stored.Status)
}

func TestTuneRecordsAuditEntry(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 4, MinDecisive: 3})
	for _, uuid := range []string{"p-1", "p-2", "p-3", "p-4"} {
		fixture.seedValidated(t, uuid, false)
	}

	report, err := fixture.service.Tune(context.Background(), tuningAsOf)
	require.NoError(t, err)

	entries, err := fixture.runs.Recent(runlog.KindTuning, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, report.RunUUID, entries[0].RunUUID)
	assert.Equal(t, 4, entries[0].Processed)
	assert.Equal(t, 1, entries[0].Succeeded)
	require.NotNil(t, entries[0].AccuracyPct)
	assert.Equal(t, 100.0, *entries[0].AccuracyPct)
}

func TestClampAndNormalizeEnforcesInvariants(t *testing.T) {
	// A damped step can push individual weights past their bounds; start from
	// the defaults with one overshoot in each direction.
	raw := map[weights.Factor]float64{}
	for factor, v := range weights.Defaults().Weights {
		raw[factor] = v
	}
	raw[weights.FactorForm] = 0.35
	raw[weights.FactorFatigue] = 0.01

	out := clampAndNormalize(raw)

	sum := 0.0
	for _, factor := range weights.AllFactors {
		v := out[factor]
		assert.GreaterOrEqual(t, v, weights.MinWeight-1e-6, "factor %s", factor)
		assert.LessOrEqual(t, v, weights.MaxWeight+1e-6, "factor %s", factor)
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestProposeStaysBoundedUnderSkewedAccuracy(t *testing.T) {
	fixture := newTuningFixture(t, Options{MinSample: 4, MinDecisive: 3})

	// One factor measured perfect and every other factor measured worthless
	// pulls the damped step far past the cap.
	accuracies := map[weights.Factor]factorAccuracy{}
	for _, factor := range weights.AllFactors {
		accuracies[factor] = factorAccuracy{decisive: 20}
	}
	accuracies[weights.FactorForm] = factorAccuracy{decisive: 20, correct: 20}

	proposed := fixture.service.propose(weights.Defaults(), accuracies)

	ws := weights.WeightSet{Weights: proposed}
	assert.NoError(t, ws.Validate())
	assert.Equal(t, weights.MaxWeight, proposed[weights.FactorForm])
}

func TestClampAndNormalizeExtremeSkew(t *testing.T) {
	tests := []struct {
		name string
		raw  func() map[weights.Factor]float64
	}{
		{"one dominant factor", func() map[weights.Factor]float64 {
			raw := map[weights.Factor]float64{}
			for _, factor := range weights.AllFactors {
				raw[factor] = 0.001
			}
			raw[weights.FactorForm] = 0.9
			return raw
		}},
		{"everything oversized", func() map[weights.Factor]float64 {
			raw := map[weights.Factor]float64{}
			for _, factor := range weights.AllFactors {
				raw[factor] = 0.2
			}
			return raw
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := clampAndNormalize(tt.raw())

			sum := 0.0
			for _, factor := range weights.AllFactors {
				v := out[factor]
				assert.GreaterOrEqual(t, v, weights.MinWeight-1e-9, "factor %s", factor)
				assert.LessOrEqual(t, v, weights.MaxWeight+1e-9, "factor %s", factor)
				sum += v
			}
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		pct      float64
		expected string
	}{
		{82, TierExcellent},
		{70, TierExcellent},
		{60, TierGood},
		{55, TierGood},
		{54.9, TierNeedsImprovement},
		{0, TierNeedsImprovement},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tierFor(tt.pct), "pct=%.1f", tt.pct)
	}
}
