// Package league provides repositories for the entity records the prediction
// pipeline reads: teams, players, games and injury reports. Records are
// written by external ingestion; this package is the read surface plus the
// single result-application write used by the scoreboard feed.
package league

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
)

// GameRepository handles read access to games and result application
type GameRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *sql.DB, log zerolog.Logger) *GameRepository {
	return &GameRepository{
		db:  db,
		log: log.With().Str("repository", "game").Logger(),
	}
}

const gameColumns = `id, sport, season, home_team_id, away_team_id, scheduled_at, status, home_score, away_score, finished_at`

// GetByID returns a game by identifier. Returns (nil, nil) when not found.
func (r *GameRepository) GetByID(gameID string) (*domain.Game, error) {
	row := r.db.QueryRow(`
		SELECT `+gameColumns+`
		FROM games
		WHERE id = ?
	`, gameID)

	game, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}

	return game, nil
}

// RecentCompletedForTeam returns the most recent completed games for a team
// before the given date, newest first, at most limit entries.
func (r *GameRepository) RecentCompletedForTeam(teamID string, before time.Time, limit int) ([]domain.Game, error) {
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		WHERE (home_team_id = ? OR away_team_id = ?)
		  AND status = ?
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL
		  AND scheduled_at < ?
		ORDER BY scheduled_at DESC
		LIMIT ?
	`, teamID, teamID, string(domain.GameStatusFinal), before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed games for team %s: %w", teamID, err)
	}
	defer rows.Close()

	return collectGames(rows)
}

// RecentMeetings returns the most recent completed games between two teams
// before the given date, newest first, at most limit entries.
func (r *GameRepository) RecentMeetings(teamA, teamB string, before time.Time, limit int) ([]domain.Game, error) {
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		WHERE ((home_team_id = ? AND away_team_id = ?) OR (home_team_id = ? AND away_team_id = ?))
		  AND status = ?
		  AND home_score IS NOT NULL
		  AND away_score IS NOT NULL
		  AND scheduled_at < ?
		ORDER BY scheduled_at DESC
		LIMIT ?
	`, teamA, teamB, teamB, teamA, string(domain.GameStatusFinal), before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings between %s and %s: %w", teamA, teamB, err)
	}
	defer rows.Close()

	return collectGames(rows)
}

// ScheduledBetween returns games scheduled inside [from, to).
func (r *GameRepository) ScheduledBetween(from, to time.Time) ([]domain.Game, error) {
	rows, err := r.db.Query(`
		SELECT `+gameColumns+`
		FROM games
		WHERE status = ?
		  AND scheduled_at >= ?
		  AND scheduled_at < ?
		ORDER BY scheduled_at ASC
	`, string(domain.GameStatusScheduled), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled games: %w", err)
	}
	defer rows.Close()

	return collectGames(rows)
}

// ApplyResult records a final score and marks the game terminal. A game that
// already carries a final status is left untouched so duplicate feed events
// cannot rewrite history.
func (r *GameRepository) ApplyResult(gameID string, homeScore, awayScore int, finishedAt time.Time) error {
	result, err := r.db.Exec(`
		UPDATE games
		SET status = ?,
			home_score = ?,
			away_score = ?,
			finished_at = ?
		WHERE id = ? AND status != ?
	`, string(domain.GameStatusFinal), homeScore, awayScore, finishedAt, gameID, string(domain.GameStatusFinal))
	if err != nil {
		return fmt.Errorf("failed to apply result for game %s: %w", gameID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		r.log.Debug().Str("game_id", gameID).Msg("Result already applied, skipping")
	}

	return nil
}

// Insert stores a game record. Exposed for ingestion and tests.
func (r *GameRepository) Insert(game domain.Game) error {
	_, err := r.db.Exec(`
		INSERT INTO games (`+gameColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		game.ID,
		string(game.Sport),
		game.Season,
		game.HomeTeamID,
		game.AwayTeamID,
		game.Scheduled,
		string(game.Status),
		game.HomeScore,
		game.AwayScore,
		game.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", game.ID, err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(s scanner) (*domain.Game, error) {
	var game domain.Game
	var sport, status string
	var homeScore, awayScore sql.NullInt64
	var finishedAt sql.NullTime

	err := s.Scan(
		&game.ID,
		&sport,
		&game.Season,
		&game.HomeTeamID,
		&game.AwayTeamID,
		&game.Scheduled,
		&status,
		&homeScore,
		&awayScore,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	game.Sport = domain.Sport(sport)
	game.Status = domain.GameStatus(status)
	if homeScore.Valid {
		v := int(homeScore.Int64)
		game.HomeScore = &v
	}
	if awayScore.Valid {
		v := int(awayScore.Int64)
		game.AwayScore = &v
	}
	if finishedAt.Valid {
		game.FinishedAt = &finishedAt.Time
	}

	return &game, nil
}

func collectGames(rows *sql.Rows) ([]domain.Game, error) {
	var games []domain.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}
