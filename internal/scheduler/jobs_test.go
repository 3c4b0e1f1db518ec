package scheduler

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
	"github.com/courtsight/courtsight/internal/featurecache"
	"github.com/courtsight/courtsight/internal/modules/prediction"
	"github.com/courtsight/courtsight/internal/modules/runlog"
	"github.com/courtsight/courtsight/internal/modules/validation"
)

type emptyGames struct{}

func (emptyGames) GetByID(string) (*domain.Game, error) { return nil, nil }

func (emptyGames) RecentCompletedForTeam(string, time.Time, int) ([]domain.Game, error) {
	return nil, nil
}

func (emptyGames) RecentMeetings(string, string, time.Time, int) ([]domain.Game, error) {
	return nil, nil
}

func (emptyGames) ScheduledBetween(time.Time, time.Time) ([]domain.Game, error) { return nil, nil }

func openTestDB(t *testing.T, schema string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema(schema))
	require.NoError(t, err)

	return db
}

func TestValidatePredictionsJobRunsClean(t *testing.T) {
	db := openTestDB(t, "predictions")
	repo := prediction.NewRepository(db, zerolog.Nop())
	runs := runlog.NewRepository(db, zerolog.Nop())
	service := validation.NewService(repo, emptyGames{}, runs, validation.Options{}, zerolog.Nop())

	job := &ValidatePredictionsJob{Service: service, Log: zerolog.Nop()}

	assert.Equal(t, "validate_predictions", job.Name())
	assert.NoError(t, job.Run())

	entries, err := runs.Recent(runlog.KindValidation, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCacheCleanupJobEvictsExpired(t *testing.T) {
	cache := featurecache.NewRepository(openTestDB(t, "cache"))
	require.NoError(t, cache.Store(featurecache.KindForm, "stale", 1, -time.Minute))
	require.NoError(t, cache.Store(featurecache.KindForm, "fresh", 2, time.Minute))

	job := &CacheCleanupJob{Cache: cache, Log: zerolog.Nop()}

	assert.Equal(t, "cache_cleanup", job.Name())
	assert.NoError(t, job.Run())

	var out int
	hit, err := cache.GetIfFresh(featurecache.KindForm, "fresh", &out)
	require.NoError(t, err)
	assert.True(t, hit)
}
