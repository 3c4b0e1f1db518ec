package prediction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtsight/courtsight/internal/domain"
	"github.com/courtsight/courtsight/internal/modules/features"
	"github.com/courtsight/courtsight/internal/modules/weights"
)

var tipoff = time.Date(2026, 1, 20, 19, 0, 0, 0, time.UTC)

type stubGames struct {
	recent   map[string][]domain.Game
	meetings []domain.Game
	err      error
}

func (s *stubGames) GetByID(string) (*domain.Game, error) { return nil, nil }

func (s *stubGames) RecentCompletedForTeam(teamID string, _ time.Time, _ int) ([]domain.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recent[teamID], nil
}

func (s *stubGames) RecentMeetings(_, _ string, _ time.Time, _ int) ([]domain.Game, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.meetings, nil
}

func (s *stubGames) ScheduledBetween(time.Time, time.Time) ([]domain.Game, error) {
	return nil, nil
}

type stubPlayers struct {
	rosters map[string][]domain.Player
}

func (s *stubPlayers) ForTeam(teamID string) ([]domain.Player, error) {
	return s.rosters[teamID], nil
}

type stubInjuries struct {
	active map[string][]domain.Injury
}

func (s *stubInjuries) ActiveForTeam(teamID string, _ time.Time) ([]domain.Injury, error) {
	return s.active[teamID], nil
}

type staticWeights struct {
	ws  weights.WeightSet
	err error
}

func (s *staticWeights) Active() (weights.WeightSet, error) {
	return s.ws, s.err
}

func finalGame(home, away string, homeScore, awayScore int, daysBefore int) domain.Game {
	h, a := homeScore, awayScore
	when := tipoff.AddDate(0, 0, -daysBefore)
	return domain.Game{
		ID:         home + "-" + away + "-" + when.Format("20060102"),
		Sport:      domain.SportNBA,
		HomeTeamID: home,
		AwayTeamID: away,
		Scheduled:  when,
		Status:     domain.GameStatusFinal,
		HomeScore:  &h,
		AwayScore:  &a,
		FinishedAt: &when,
	}
}

func newTestEngine(games *stubGames, players *stubPlayers, injuries *stubInjuries, provider WeightsProvider) *Engine {
	if players == nil {
		players = &stubPlayers{}
	}
	if injuries == nil {
		injuries = &stubInjuries{}
	}
	if provider == nil {
		provider = &staticWeights{ws: weights.Defaults()}
	}
	adapter := features.NewAdapter(games, players, injuries, nil, features.Options{}, zerolog.Nop())
	return NewEngine(adapter, provider, NBAProfile(), zerolog.Nop())
}

func testMatchup() domain.Matchup {
	return domain.Matchup{
		GameID:     "game-1",
		Sport:      domain.SportNBA,
		HomeTeamID: "lakers",
		AwayTeamID: "celtics",
		Scheduled:  tipoff,
	}
}

func TestGenerateRejectsMalformedMatchup(t *testing.T) {
	engine := newTestEngine(&stubGames{}, nil, nil, nil)

	_, err := engine.Generate(context.Background(), domain.Matchup{GameID: "game-1"})
	assert.Error(t, err)

	_, err = engine.Generate(context.Background(), domain.Matchup{HomeTeamID: "a", AwayTeamID: "b"})
	assert.Error(t, err)
}

func TestGenerateWithNoDataLeansOnHomeCourt(t *testing.T) {
	engine := newTestEngine(&stubGames{}, nil, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)
	require.False(t, result.Fallback)

	record := result.Record
	// Only the constant home-court factor moves the differential:
	// 50 + 1.5*0.14*10 = 52.1.
	assert.InDelta(t, 0.521, record.HomeWinProbability, 1e-9)
	assert.Equal(t, "lakers", record.PredictedWinnerID)

	// No data factor is available, so confidence pins to the floor.
	assert.Equal(t, confidenceMin, record.Confidence)

	// A near coin flip saturates the upset cap.
	assert.Equal(t, upsetCap, record.UpsetProbability)

	assert.Equal(t, ModelVersion, record.ModelVersion)
	assert.False(t, record.IsFallback)
	assert.Equal(t, 0, record.WeightsVersion)
}

func TestGenerateNeutralScoreForecast(t *testing.T) {
	engine := newTestEngine(&stubGames{}, nil, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	record := result.Record
	// shift = (0.521-0.5)*10*2 = 0.42, no factor adjustment.
	assert.InDelta(t, 110.4, record.PredictedHomeScore, 1e-9)
	assert.InDelta(t, 109.6, record.PredictedAwayScore, 1e-9)
	assert.InDelta(t, 0.8, record.PredictedSpread, 1e-9)
	assert.InDelta(t, 220.0, record.PredictedTotal, 1e-9)
}

func TestGenerateFavorsInFormHomeTeam(t *testing.T) {
	recent := map[string][]domain.Game{}
	for i := 1; i <= 10; i++ {
		recent["lakers"] = append(recent["lakers"], finalGame("lakers", "heat", 115, 95, i*3))
		recent["celtics"] = append(recent["celtics"], finalGame("celtics", "nets", 95, 115, i*3))
	}
	engine := newTestEngine(&stubGames{recent: recent}, nil, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	record := result.Record
	assert.Equal(t, "lakers", record.PredictedWinnerID)
	assert.Greater(t, record.HomeWinProbability, 0.6)
	assert.Greater(t, record.PredictedHomeScore, record.PredictedAwayScore)
	assert.Positive(t, record.FactorBreakdown[weights.FactorForm])
}

func TestGenerateFavorsHealthyAwayTeam(t *testing.T) {
	injuries := &stubInjuries{active: map[string][]domain.Injury{
		"lakers": {
			{ID: "i1", PlayerID: "p1", TeamID: "lakers", Severity: domain.InjurySeveritySevere, Status: "active"},
			{ID: "i2", PlayerID: "p2", TeamID: "lakers", Severity: domain.InjurySeveritySevere, Status: "active"},
			{ID: "i3", PlayerID: "p3", TeamID: "lakers", Severity: domain.InjurySeveritySevere, Status: "active"},
		},
	}}
	healthy := newTestEngine(&stubGames{}, nil, nil, nil)
	hurt := newTestEngine(&stubGames{}, nil, injuries, nil)

	baseline, err := healthy.Generate(context.Background(), testMatchup())
	require.NoError(t, err)
	burdened, err := hurt.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	// A home injury burden pulls the home win probability down.
	assert.Less(t, burdened.Record.HomeWinProbability, baseline.Record.HomeWinProbability)
	assert.Negative(t, burdened.Record.FactorBreakdown[weights.FactorInjury])
}

func TestGenerateBoundsHoldUnderExtremes(t *testing.T) {
	recent := map[string][]domain.Game{}
	for i := 1; i <= 10; i++ {
		recent["lakers"] = append(recent["lakers"], finalGame("lakers", "heat", 150, 60, i))
		recent["celtics"] = append(recent["celtics"], finalGame("celtics", "nets", 60, 150, i))
	}
	rosters := map[string][]domain.Player{
		"lakers": {{ID: "s1", TeamID: "lakers", Name: "s1", EfficiencyRating: 35, IsStarter: true}},
	}
	engine := newTestEngine(&stubGames{recent: recent}, &stubPlayers{rosters: rosters}, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	record := result.Record
	assert.GreaterOrEqual(t, record.HomeWinProbability, 0.0)
	assert.LessOrEqual(t, record.HomeWinProbability, 1.0)
	assert.GreaterOrEqual(t, record.Confidence, confidenceMin)
	assert.LessOrEqual(t, record.Confidence, confidenceMax)
	assert.LessOrEqual(t, record.UpsetProbability, upsetCap)
	assert.GreaterOrEqual(t, record.PredictedHomeScore, 0.0)
	assert.GreaterOrEqual(t, record.PredictedAwayScore, 0.0)
}

func TestGenerateReportsTopThreeKeyFactors(t *testing.T) {
	engine := newTestEngine(&stubGames{}, nil, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	require.Len(t, result.Record.KeyFactors, 3)
	// With all signals neutral, home court is the only differential.
	assert.Equal(t, weights.FactorHomeCourt, result.Record.KeyFactors[0].Factor)
	for i := 1; i < len(result.Record.KeyFactors); i++ {
		assert.GreaterOrEqual(t, result.Record.KeyFactors[i-1].Impact, result.Record.KeyFactors[i].Impact)
	}
}

func TestGenerateFallsBackToDefaultWeights(t *testing.T) {
	provider := &staticWeights{err: errors.New("weights store down")}
	engine := newTestEngine(&stubGames{}, nil, nil, provider)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	assert.False(t, result.Fallback)
	assert.Equal(t, weights.Defaults().Version, result.Record.WeightsVersion)
}

func TestGenerateTagsFallbackWhenPipelineFails(t *testing.T) {
	games := &stubGames{err: errors.New("league store down")}
	engine := newTestEngine(games, nil, nil, nil)

	result, err := engine.Generate(context.Background(), testMatchup())
	require.NoError(t, err)

	require.True(t, result.Fallback)
	assert.Contains(t, result.FallbackReason, "league store down")

	record := result.Record
	assert.True(t, record.IsFallback)
	assert.Equal(t, ModelVersion+"-fallback", record.ModelVersion)
	assert.Equal(t, "lakers", record.PredictedWinnerID)
	assert.GreaterOrEqual(t, record.HomeWinProbability, 0.5)
	assert.LessOrEqual(t, record.HomeWinProbability, 0.65)
	assert.GreaterOrEqual(t, record.Confidence, fallbackConfidenceMin)
	assert.LessOrEqual(t, record.Confidence, fallbackConfidenceMax)
	assert.Empty(t, record.KeyFactors)
	assert.Empty(t, record.FeatureVector)
}

func TestRestScore(t *testing.T) {
	tests := []struct {
		daysRest int
		expected float64
	}{
		{0, 0},
		{1, 2.5},
		{2, 5},
		{3, 7.5},
		{4, 10},
		{9, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, restScore(tt.daysRest), "daysRest=%d", tt.daysRest)
	}
}

func TestKeyFactorsRankedByWeightedImpact(t *testing.T) {
	vector := FeatureVector{}
	for _, factor := range weights.AllFactors {
		vector[factor] = FactorValues{Home: 5, Away: 5}
	}
	vector[weights.FactorForm] = FactorValues{Home: 9, Away: 2, Available: true}
	vector[weights.FactorFatigue] = FactorValues{Home: 1, Away: 8, Available: true}
	vector[weights.FactorRest] = FactorValues{Home: 10, Away: 0, Available: true}

	ws := weights.Defaults()
	ranked := keyFactors(vector, ws)

	require.Len(t, ranked, 3)
	// form: 7*0.22=1.54, fatigue: 7*0.10=0.70, rest: 10*0.04=0.40.
	assert.Equal(t, weights.FactorForm, ranked[0].Factor)
	assert.Equal(t, weights.FactorFatigue, ranked[1].Factor)
	assert.Equal(t, weights.FactorRest, ranked[2].Factor)
}
