package league

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/domain"
)

// InjuryRepository handles read access to injury reports
type InjuryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewInjuryRepository creates a new injury repository
func NewInjuryRepository(db *sql.DB, log zerolog.Logger) *InjuryRepository {
	return &InjuryRepository{
		db:  db,
		log: log.With().Str("repository", "injury").Logger(),
	}
}

// ActiveForTeam returns injuries that were active for a team as of the given
// date: reported on or before it and not yet resolved at that point.
func (r *InjuryRepository) ActiveForTeam(teamID string, asOf time.Time) ([]domain.Injury, error) {
	rows, err := r.db.Query(`
		SELECT id, player_id, team_id, severity, description, status, reported_at, resolved_at
		FROM injuries
		WHERE team_id = ?
		  AND reported_at <= ?
		  AND (resolved_at IS NULL OR resolved_at > ?)
		ORDER BY reported_at DESC
	`, teamID, asOf, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query injuries for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var injuries []domain.Injury
	for rows.Next() {
		var inj domain.Injury
		var severity string
		var resolvedAt sql.NullTime
		if err := rows.Scan(
			&inj.ID,
			&inj.PlayerID,
			&inj.TeamID,
			&severity,
			&inj.Description,
			&inj.Status,
			&inj.ReportedAt,
			&resolvedAt,
		); err != nil {
			return nil, err
		}
		inj.Severity = domain.InjurySeverity(severity)
		if resolvedAt.Valid {
			inj.ResolvedAt = &resolvedAt.Time
		}
		injuries = append(injuries, inj)
	}

	return injuries, rows.Err()
}

// Insert stores an injury report. Exposed for ingestion and tests.
func (r *InjuryRepository) Insert(injury domain.Injury) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO injuries (id, player_id, team_id, severity, description, status, reported_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		injury.ID,
		injury.PlayerID,
		injury.TeamID,
		string(injury.Severity),
		injury.Description,
		injury.Status,
		injury.ReportedAt,
		injury.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert injury %s: %w", injury.ID, err)
	}
	return nil
}
