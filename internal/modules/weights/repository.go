package weights

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles versioned weight set storage
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new weight set repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "weights").Logger(),
	}
}

// Active returns the currently adopted weight set. Falls back to the
// compiled-in defaults when nothing has been adopted yet.
func (r *Repository) Active() (WeightSet, error) {
	row := r.db.QueryRow(`
		SELECT version, status, weights, source, notes, created_at, adopted_at
		FROM weight_sets
		WHERE status = ?
		ORDER BY version DESC
		LIMIT 1
	`, StatusActive)

	ws, err := scanWeightSet(row)
	if err == sql.ErrNoRows {
		return Defaults(), nil
	}
	if err != nil {
		return WeightSet{}, fmt.Errorf("failed to load active weight set: %w", err)
	}

	return *ws, nil
}

// GetVersion returns a specific weight set version. Returns (nil, nil) when
// the version does not exist.
func (r *Repository) GetVersion(version int) (*WeightSet, error) {
	row := r.db.QueryRow(`
		SELECT version, status, weights, source, notes, created_at, adopted_at
		FROM weight_sets
		WHERE version = ?
	`, version)

	ws, err := scanWeightSet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load weight set version %d: %w", version, err)
	}

	return ws, nil
}

// Propose stores a new weight set version with proposed status and returns
// the assigned version number. The set must satisfy the weight invariants.
func (r *Repository) Propose(ws WeightSet) (int, error) {
	if err := ws.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to store invalid weight set: %w", err)
	}

	payload, err := json.Marshal(ws.Weights)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal weights: %w", err)
	}

	result, err := r.db.Exec(`
		INSERT INTO weight_sets (status, weights, source, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, StatusProposed, string(payload), ws.Source, ws.Notes, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert weight set: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get weight set version: %w", err)
	}

	r.log.Info().Int64("version", id).Str("source", ws.Source).Msg("Stored proposed weight set")

	return int(id), nil
}

// Adopt activates a proposed weight set version and retires the previously
// active one. Adoption is the explicit step that makes tuner output take
// effect.
func (r *Repository) Adopt(version int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin adopt transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Retire whatever is currently active.
	if _, err := tx.Exec(`
		UPDATE weight_sets SET status = ? WHERE status = ?
	`, StatusRetired, StatusActive); err != nil {
		return fmt.Errorf("failed to retire active weight set: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE weight_sets
		SET status = ?, adopted_at = ?
		WHERE version = ? AND status = ?
	`, StatusActive, time.Now().UTC(), version, StatusProposed)
	if err != nil {
		return fmt.Errorf("failed to adopt weight set %d: %w", version, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check adoption result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("weight set version %d not found or not in proposed status", version)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit adoption: %w", err)
	}

	r.log.Info().Int("version", version).Msg("Adopted weight set")

	return nil
}

// History returns stored weight sets, newest first, at most limit entries.
func (r *Repository) History(limit int) ([]WeightSet, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT version, status, weights, source, notes, created_at, adopted_at
		FROM weight_sets
		ORDER BY version DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight set history: %w", err)
	}
	defer rows.Close()

	var sets []WeightSet
	for rows.Next() {
		ws, err := scanWeightSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *ws)
	}

	return sets, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWeightSet(s scanner) (*WeightSet, error) {
	var ws WeightSet
	var payload string
	var adoptedAt sql.NullTime

	err := s.Scan(
		&ws.Version,
		&ws.Status,
		&payload,
		&ws.Source,
		&ws.Notes,
		&ws.CreatedAt,
		&adoptedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &ws.Weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights for version %d: %w", ws.Version, err)
	}
	if adoptedAt.Valid {
		ws.AdoptedAt = &adoptedAt.Time
	}

	return &ws, nil
}
