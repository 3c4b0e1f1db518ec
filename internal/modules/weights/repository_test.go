package weights

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/courtsight/courtsight/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(database.Schema("config"))
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestActiveFallsBackToDefaults(t *testing.T) {
	repo := newTestRepository(t)

	active, err := repo.Active()
	require.NoError(t, err)

	assert.Equal(t, 0, active.Version)
	assert.Equal(t, "default", active.Source)
	assert.Equal(t, Defaults().Weights, active.Weights)
}

func TestProposeRejectsInvalidSet(t *testing.T) {
	repo := newTestRepository(t)

	invalid := Defaults()
	invalid.Weights[FactorForm] = 0.9

	_, err := repo.Propose(invalid)
	assert.Error(t, err)
}

func TestProposeAdoptActivateFlow(t *testing.T) {
	repo := newTestRepository(t)

	proposal := Defaults()
	proposal.Source = "tuner"
	proposal.Notes = "sample=40"

	version, err := repo.Propose(proposal)
	require.NoError(t, err)
	assert.Positive(t, version)

	// A proposal is not active until adopted.
	active, err := repo.Active()
	require.NoError(t, err)
	assert.Equal(t, 0, active.Version)

	require.NoError(t, repo.Adopt(version))

	active, err = repo.Active()
	require.NoError(t, err)
	assert.Equal(t, version, active.Version)
	assert.Equal(t, StatusActive, active.Status)
	assert.Equal(t, "tuner", active.Source)
	require.NotNil(t, active.AdoptedAt)
}

func TestAdoptRetiresPreviousActive(t *testing.T) {
	repo := newTestRepository(t)

	first, err := repo.Propose(Defaults())
	require.NoError(t, err)
	require.NoError(t, repo.Adopt(first))

	second, err := repo.Propose(Defaults())
	require.NoError(t, err)
	require.NoError(t, repo.Adopt(second))

	active, err := repo.Active()
	require.NoError(t, err)
	assert.Equal(t, second, active.Version)

	retired, err := repo.GetVersion(first)
	require.NoError(t, err)
	require.NotNil(t, retired)
	assert.Equal(t, StatusRetired, retired.Status)
}

func TestAdoptRequiresProposedStatus(t *testing.T) {
	repo := newTestRepository(t)

	version, err := repo.Propose(Defaults())
	require.NoError(t, err)
	require.NoError(t, repo.Adopt(version))

	// Unknown and already-adopted versions both refuse.
	assert.Error(t, repo.Adopt(9999))
	assert.Error(t, repo.Adopt(version))
}

func TestGetVersionMissing(t *testing.T) {
	repo := newTestRepository(t)

	ws, err := repo.GetVersion(42)
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestHistoryNewestFirst(t *testing.T) {
	repo := newTestRepository(t)

	v1, err := repo.Propose(Defaults())
	require.NoError(t, err)
	v2, err := repo.Propose(Defaults())
	require.NoError(t, err)

	history, err := repo.History(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, v2, history[0].Version)
	assert.Equal(t, v1, history[1].Version)

	limited, err := repo.History(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, v2, limited[0].Version)
}

func TestProposedWeightsRoundtrip(t *testing.T) {
	repo := newTestRepository(t)

	proposal := Defaults()
	proposal.Weights[FactorForm] = 0.24
	proposal.Weights[FactorPlayerStrength] = 0.16

	version, err := repo.Propose(proposal)
	require.NoError(t, err)

	loaded, err := repo.GetVersion(version)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.InDelta(t, 0.24, loaded.Get(FactorForm), 1e-9)
	assert.InDelta(t, 0.16, loaded.Get(FactorPlayerStrength), 1e-9)
	assert.Equal(t, StatusProposed, loaded.Status)
}
