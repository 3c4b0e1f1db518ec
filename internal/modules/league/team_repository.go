package league

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
)

// TeamRepository handles read access to team records
type TeamRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *sql.DB, log zerolog.Logger) *TeamRepository {
	return &TeamRepository{
		db:  db,
		log: log.With().Str("repository", "team").Logger(),
	}
}

// GetByID returns a team by identifier. Returns (nil, nil) when not found.
func (r *TeamRepository) GetByID(teamID string) (*domain.Team, error) {
	var team domain.Team

	err := r.db.QueryRow(`
		SELECT id, name, abbreviation, conference, division, created_at
		FROM teams
		WHERE id = ?
	`, teamID).Scan(
		&team.ID,
		&team.Name,
		&team.Abbreviation,
		&team.Conference,
		&team.Division,
		&team.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}

	return &team, nil
}

// GetAll returns all teams ordered by name
func (r *TeamRepository) GetAll() ([]domain.Team, error) {
	rows, err := r.db.Query(`
		SELECT id, name, abbreviation, conference, division, created_at
		FROM teams
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(
			&team.ID,
			&team.Name,
			&team.Abbreviation,
			&team.Conference,
			&team.Division,
			&team.CreatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// Insert stores a team record. Exposed for ingestion and tests.
func (r *TeamRepository) Insert(team domain.Team) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO teams (id, name, abbreviation, conference, division)
		VALUES (?, ?, ?, ?, ?)
	`, team.ID, team.Name, team.Abbreviation, team.Conference, team.Division)
	if err != nil {
		return fmt.Errorf("failed to insert team %s: %w", team.ID, err)
	}
	return nil
}
