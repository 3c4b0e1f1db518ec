package prediction

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository is the append-only prediction store. Core fields are written
// once on insert; the outcome annotation columns are written exactly once by
// the validator. Nothing is ever deleted.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new prediction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "predictions").Logger(),
	}
}

// Insert stores a new prediction record.
func (r *Repository) Insert(record *Record) error {
	keyFactors, err := json.Marshal(record.KeyFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal key factors: %w", err)
	}
	breakdown, err := json.Marshal(record.FactorBreakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal factor breakdown: %w", err)
	}
	vector, err := json.Marshal(record.FeatureVector)
	if err != nil {
		return fmt.Errorf("failed to marshal feature vector: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO predictions (
			uuid, game_id, sport, model_version, is_fallback, weights_version,
			predicted_winner_id, home_win_probability, confidence,
			predicted_home_score, predicted_away_score, predicted_spread,
			predicted_total, upset_probability,
			key_factors, factor_breakdown, feature_vector, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.UUID, record.GameID, record.Sport, record.ModelVersion,
		record.IsFallback, record.WeightsVersion,
		record.PredictedWinnerID, record.HomeWinProbability, record.Confidence,
		record.PredictedHomeScore, record.PredictedAwayScore, record.PredictedSpread,
		record.PredictedTotal, record.UpsetProbability,
		string(keyFactors), string(breakdown), string(vector), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prediction %s: %w", record.UUID, err)
	}

	return nil
}

// GetByUUID returns one prediction. Returns (nil, nil) when it does not exist.
func (r *Repository) GetByUUID(id string) (*Record, error) {
	row := r.db.QueryRow(selectColumns+` FROM predictions WHERE uuid = ?`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction %s: %w", id, err)
	}
	return record, nil
}

// LatestForGame returns the newest prediction for a game, or (nil, nil) when
// none exists.
func (r *Repository) LatestForGame(gameID string) (*Record, error) {
	row := r.db.QueryRow(selectColumns+`
		FROM predictions
		WHERE game_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, gameID)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction for game %s: %w", gameID, err)
	}
	return record, nil
}

// ExistsForGame reports whether any prediction has been stored for a game.
// The generation job uses this to keep the pipeline idempotent per game.
func (r *Repository) ExistsForGame(gameID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM predictions WHERE game_id = ?`, gameID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check predictions for game %s: %w", gameID, err)
	}
	return count > 0, nil
}

// UnvalidatedSince returns unvalidated predictions created at or after the
// cutoff, oldest first, at most limit rows.
func (r *Repository) UnvalidatedSince(cutoff time.Time, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(selectColumns+`
		FROM predictions
		WHERE validated_at IS NULL AND created_at >= ?
		ORDER BY created_at ASC
		LIMIT ?
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unvalidated predictions: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ValidatedSince returns validated predictions created at or after the
// cutoff. The tuner reads these to measure per-factor accuracy.
func (r *Repository) ValidatedSince(cutoff time.Time) ([]*Record, error) {
	rows, err := r.db.Query(selectColumns+`
		FROM predictions
		WHERE validated_at IS NOT NULL AND created_at >= ?
		ORDER BY created_at ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query validated predictions: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Recent returns the newest predictions, at most limit rows.
func (r *Repository) Recent(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(selectColumns+`
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent predictions: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// AnnotateOutcome writes the outcome columns for one prediction exactly once.
// The validated_at IS NULL guard makes re-validation a no-op: a second writer
// gets affected == 0 and the original annotation stands.
func (r *Repository) AnnotateOutcome(uuid string, outcome Outcome) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE predictions
		SET actual_home_score = ?,
		    actual_away_score = ?,
		    actual_winner_id  = ?,
		    was_correct       = ?,
		    margin_of_error   = ?,
		    validated_at      = ?
		WHERE uuid = ? AND validated_at IS NULL
	`,
		outcome.ActualHomeScore, outcome.ActualAwayScore, outcome.ActualWinnerID,
		outcome.WasCorrect, outcome.MarginOfError, outcome.ValidatedAt, uuid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to annotate prediction %s: %w", uuid, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check annotation result: %w", err)
	}

	return affected > 0, nil
}

// AggregateStats summarizes validated, non-fallback predictions.
type AggregateStats struct {
	Total            int     `json:"total"`
	Correct          int     `json:"correct"`
	AccuracyPct      float64 `json:"accuracy_pct"`
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgMarginOfError float64 `json:"avg_margin_of_error"`
	UpsetsMissed     int     `json:"upsets_missed"`
}

// Stats recomputes the aggregate accuracy summary from scratch over every
// validated non-fallback prediction. Fallbacks are excluded so placeholder
// guesses never pollute model accuracy.
func (r *Repository) Stats() (*AggregateStats, error) {
	var stats AggregateStats
	var avgConfidence, avgMargin sql.NullFloat64

	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(was_correct), 0),
			AVG(confidence),
			AVG(margin_of_error),
			COALESCE(SUM(CASE WHEN was_correct = 0 AND upset_probability < 25 THEN 1 ELSE 0 END), 0)
		FROM predictions
		WHERE validated_at IS NOT NULL AND is_fallback = 0
	`).Scan(&stats.Total, &stats.Correct, &avgConfidence, &avgMargin, &stats.UpsetsMissed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute prediction stats: %w", err)
	}

	if stats.Total > 0 {
		stats.AccuracyPct = round1(100 * float64(stats.Correct) / float64(stats.Total))
	}
	if avgConfidence.Valid {
		stats.AvgConfidence = round1(avgConfidence.Float64)
	}
	if avgMargin.Valid {
		stats.AvgMarginOfError = round1(avgMargin.Float64)
	}

	return &stats, nil
}

const selectColumns = `
	SELECT uuid, game_id, sport, model_version, is_fallback, weights_version,
	       predicted_winner_id, home_win_probability, confidence,
	       predicted_home_score, predicted_away_score, predicted_spread,
	       predicted_total, upset_probability,
	       key_factors, factor_breakdown, feature_vector, created_at,
	       actual_home_score, actual_away_score, actual_winner_id,
	       was_correct, margin_of_error, validated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	var record Record
	var keyFactors, breakdown, vector string
	var actualHome, actualAway sql.NullInt64
	var actualWinner sql.NullString
	var wasCorrect sql.NullBool
	var margin sql.NullFloat64
	var validatedAt sql.NullTime

	err := s.Scan(
		&record.UUID, &record.GameID, &record.Sport, &record.ModelVersion,
		&record.IsFallback, &record.WeightsVersion,
		&record.PredictedWinnerID, &record.HomeWinProbability, &record.Confidence,
		&record.PredictedHomeScore, &record.PredictedAwayScore, &record.PredictedSpread,
		&record.PredictedTotal, &record.UpsetProbability,
		&keyFactors, &breakdown, &vector, &record.CreatedAt,
		&actualHome, &actualAway, &actualWinner,
		&wasCorrect, &margin, &validatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keyFactors), &record.KeyFactors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key factors for %s: %w", record.UUID, err)
	}
	if err := json.Unmarshal([]byte(breakdown), &record.FactorBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal factor breakdown for %s: %w", record.UUID, err)
	}
	if err := json.Unmarshal([]byte(vector), &record.FeatureVector); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feature vector for %s: %w", record.UUID, err)
	}

	if actualHome.Valid {
		v := int(actualHome.Int64)
		record.ActualHomeScore = &v
	}
	if actualAway.Valid {
		v := int(actualAway.Int64)
		record.ActualAwayScore = &v
	}
	if actualWinner.Valid {
		record.ActualWinnerID = &actualWinner.String
	}
	if wasCorrect.Valid {
		record.WasCorrect = &wasCorrect.Bool
	}
	if margin.Valid {
		record.MarginOfError = &margin.Float64
	}
	if validatedAt.Valid {
		record.ValidatedAt = &validatedAt.Time
	}

	return &record, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
