package prediction

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
	"github.com/courtsight/courtsight/internal/modules/runlog"
)

type scheduledStubGames struct {
	stubGames
	scheduled []domain.Game
}

func (s *scheduledStubGames) ScheduledBetween(from, to time.Time) ([]domain.Game, error) {
	var inside []domain.Game
	for _, game := range s.scheduled {
		if !game.Scheduled.Before(from) && game.Scheduled.Before(to) {
			inside = append(inside, game)
		}
	}
	return inside, nil
}

func upcomingGame(id string, startsIn time.Duration) domain.Game {
	return domain.Game{
		ID:         id,
		Sport:      domain.SportNBA,
		HomeTeamID: "lakers",
		AwayTeamID: "celtics",
		Scheduled:  tipoff.Add(startsIn),
		Status:     domain.GameStatusScheduled,
	}
}

func newTestService(t *testing.T, games *scheduledStubGames) (*Service, *Repository, *runlog.Repository) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema("predictions"))
	require.NoError(t, err)

	repo := NewRepository(db, zerolog.Nop())
	runs := runlog.NewRepository(db, zerolog.Nop())
	engine := newTestEngine(&games.stubGames, nil, nil, nil)
	service := NewService(engine, repo, games, runs, 24*time.Hour, zerolog.Nop())

	return service, repo, runs
}

func TestGenerateUpcomingStoresPredictions(t *testing.T) {
	games := &scheduledStubGames{scheduled: []domain.Game{
		upcomingGame("game-1", 2*time.Hour),
		upcomingGame("game-2", 5*time.Hour),
		upcomingGame("game-later", 48*time.Hour), // outside the window
	}}
	service, repo, _ := newTestService(t, games)

	summary, err := service.GenerateUpcoming(context.Background(), tipoff)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Scanned)
	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Fallbacks)
	assert.NotEmpty(t, summary.RunUUID)

	for _, gameID := range []string{"game-1", "game-2"} {
		stored, err := repo.LatestForGame(gameID)
		require.NoError(t, err)
		require.NotNil(t, stored, "no prediction for %s", gameID)
		assert.False(t, stored.IsFallback)
	}
}

func TestGenerateUpcomingSkipsAlreadyPredicted(t *testing.T) {
	games := &scheduledStubGames{scheduled: []domain.Game{
		upcomingGame("game-1", 2 * time.Hour),
	}}
	service, _, _ := newTestService(t, games)

	first, err := service.GenerateUpcoming(context.Background(), tipoff)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Generated)

	second, err := service.GenerateUpcoming(context.Background(), tipoff)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Generated)
	assert.Equal(t, 1, second.Skipped)
}

func TestGenerateUpcomingCountsFallbacks(t *testing.T) {
	games := &scheduledStubGames{scheduled: []domain.Game{
		upcomingGame("game-1", 2 * time.Hour),
	}}
	games.stubGames.err = assert.AnError
	service, repo, _ := newTestService(t, games)

	summary, err := service.GenerateUpcoming(context.Background(), tipoff)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Generated)
	assert.Equal(t, 1, summary.Fallbacks)

	stored, err := repo.LatestForGame("game-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.IsFallback)
}

func TestGenerateUpcomingRecordsRun(t *testing.T) {
	games := &scheduledStubGames{scheduled: []domain.Game{
		upcomingGame("game-1", 2 * time.Hour),
	}}
	service, _, runs := newTestService(t, games)

	summary, err := service.GenerateUpcoming(context.Background(), tipoff)
	require.NoError(t, err)

	entries, err := runs.Recent(runlog.KindGeneration, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, summary.RunUUID, entries[0].RunUUID)
	assert.Equal(t, 1, entries[0].Processed)
	assert.Equal(t, 1, entries[0].Succeeded)
}

func TestPredictGameRejectsCompleted(t *testing.T) {
	games := &scheduledStubGames{}
	service, _, _ := newTestService(t, games)

	done := finalGame("lakers", "celtics", 100, 90, 1)
	_, err := service.PredictGame(context.Background(), done)
	assert.Error(t, err)

	_, err = service.PredictGame(context.Background(), domain.Game{})
	assert.Error(t, err)
}
