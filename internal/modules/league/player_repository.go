package league

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
)

// PlayerRepository handles read access to player records
type PlayerRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *sql.DB, log zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		db:  db,
		log: log.With().Str("repository", "player").Logger(),
	}
}

// ForTeam returns all rostered players for a team, starters first.
func (r *PlayerRepository) ForTeam(teamID string) ([]domain.Player, error) {
	rows, err := r.db.Query(`
		SELECT id, team_id, name, position, efficiency_rating, is_starter, created_at
		FROM players
		WHERE team_id = ?
		ORDER BY is_starter DESC, efficiency_rating DESC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		var isStarter int
		if err := rows.Scan(
			&p.ID,
			&p.TeamID,
			&p.Name,
			&p.Position,
			&p.EfficiencyRating,
			&isStarter,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		p.IsStarter = isStarter != 0
		players = append(players, p)
	}

	return players, rows.Err()
}

// Insert stores a player record. Exposed for ingestion and tests.
func (r *PlayerRepository) Insert(player domain.Player) error {
	isStarter := 0
	if player.IsStarter {
		isStarter = 1
	}

	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO players (id, team_id, name, position, efficiency_rating, is_starter)
		VALUES (?, ?, ?, ?, ?, ?)
	`, player.ID, player.TeamID, player.Name, player.Position, player.EfficiencyRating, isStarter)
	if err != nil {
		return fmt.Errorf("failed to insert player %s: %w", player.ID, err)
	}
	return nil
}
