package league

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/courtsight/courtsight/internal/database"
	"github.com/courtsight/courtsight/internal/domain"
)

var seasonStart = time.Date(2026, 1, 1, 19, 0, 0, 0, time.UTC)

func newGameRepository(t *testing.T) *GameRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema("league"))
	require.NoError(t, err)

	return NewGameRepository(db, zerolog.Nop())
}

func storedFinal(id, home, away string, homeScore, awayScore, day int) domain.Game {
	h, a := homeScore, awayScore
	when := seasonStart.AddDate(0, 0, day)
	return domain.Game{
		ID:         id,
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

func storedScheduled(id, home, away string, day int) domain.Game {
	return domain.Game{
		ID:         id,
		Sport:      domain.SportNBA,
		HomeTeamID: home,
		AwayTeamID: away,
		Scheduled:  seasonStart.AddDate(0, 0, day),
		Status:     domain.GameStatusScheduled,
	}
}

func TestGameRepositoryGetByID(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedFinal("g-1", "lakers", "celtics", 110, 102, 1)))

	game, err := repo.GetByID("g-1")
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, "lakers", game.HomeTeamID)
	assert.Equal(t, domain.GameStatusFinal, game.Status)
	require.NotNil(t, game.HomeScore)
	assert.Equal(t, 110, *game.HomeScore)

	missing, err := repo.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecentCompletedForTeamNewestFirst(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedFinal("g-1", "lakers", "celtics", 110, 102, 1)))
	require.NoError(t, repo.Insert(storedFinal("g-2", "heat", "lakers", 95, 100, 3)))
	require.NoError(t, repo.Insert(storedFinal("g-other", "heat", "celtics", 90, 92, 2)))
	require.NoError(t, repo.Insert(storedScheduled("g-upcoming", "lakers", "heat", 10)))

	games, err := repo.RecentCompletedForTeam("lakers", seasonStart.AddDate(0, 0, 20), 10)
	require.NoError(t, err)

	require.Len(t, games, 2)
	assert.Equal(t, "g-2", games[0].ID)
	assert.Equal(t, "g-1", games[1].ID)
}

func TestRecentCompletedForTeamRespectsCutoffAndLimit(t *testing.T) {
	repo := newGameRepository(t)
	for day := 1; day <= 5; day++ {
		id := "g-" + string(rune('0'+day))
		require.NoError(t, repo.Insert(storedFinal(id, "lakers", "celtics", 100, 90, day)))
	}

	before, err := repo.RecentCompletedForTeam("lakers", seasonStart.AddDate(0, 0, 3), 10)
	require.NoError(t, err)
	assert.Len(t, before, 2) // days 1 and 2 only

	limited, err := repo.RecentCompletedForTeam("lakers", seasonStart.AddDate(0, 0, 20), 3)
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestRecentMeetingsEitherVenue(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedFinal("g-1", "lakers", "celtics", 110, 102, 1)))
	require.NoError(t, repo.Insert(storedFinal("g-2", "celtics", "lakers", 99, 101, 3)))
	require.NoError(t, repo.Insert(storedFinal("g-other", "lakers", "heat", 100, 90, 2)))

	meetings, err := repo.RecentMeetings("lakers", "celtics", seasonStart.AddDate(0, 0, 20), 10)
	require.NoError(t, err)

	require.Len(t, meetings, 2)
	assert.Equal(t, "g-2", meetings[0].ID)
	assert.Equal(t, "g-1", meetings[1].ID)
}

func TestScheduledBetweenWindow(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedScheduled("g-today", "lakers", "celtics", 0)))
	require.NoError(t, repo.Insert(storedScheduled("g-tomorrow", "heat", "nets", 1)))
	require.NoError(t, repo.Insert(storedScheduled("g-next-week", "bulls", "suns", 7)))
	require.NoError(t, repo.Insert(storedFinal("g-done", "lakers", "heat", 100, 90, 0)))

	games, err := repo.ScheduledBetween(seasonStart, seasonStart.AddDate(0, 0, 2))
	require.NoError(t, err)

	require.Len(t, games, 2)
	assert.Equal(t, "g-today", games[0].ID)
	assert.Equal(t, "g-tomorrow", games[1].ID)
}

func TestApplyResultMarksGameFinal(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedScheduled("g-1", "lakers", "celtics", 0)))

	finished := seasonStart.Add(3 * time.Hour)
	require.NoError(t, repo.ApplyResult("g-1", 108, 99, finished))

	game, err := repo.GetByID("g-1")
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusFinal, game.Status)
	assert.Equal(t, 108, *game.HomeScore)
	assert.Equal(t, 99, *game.AwayScore)
	require.NotNil(t, game.FinishedAt)
}

func TestApplyResultIgnoresDuplicateEvents(t *testing.T) {
	repo := newGameRepository(t)
	require.NoError(t, repo.Insert(storedScheduled("g-1", "lakers", "celtics", 0)))

	finished := seasonStart.Add(3 * time.Hour)
	require.NoError(t, repo.ApplyResult("g-1", 108, 99, finished))
	// A replayed feed event must not rewrite the recorded score.
	require.NoError(t, repo.ApplyResult("g-1", 50, 40, finished.Add(time.Hour)))

	game, err := repo.GetByID("g-1")
	require.NoError(t, err)
	assert.Equal(t, 108, *game.HomeScore)
	assert.Equal(t, 99, *game.AwayScore)
}
