// Package runlog records one row per pipeline run (generation, validation,
// tuning) so operators can audit what ran, when, and with what result.
package runlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Run kinds
const (
	KindGeneration = "generation"
	KindValidation = "validation"
	KindTuning     = "tuning"
)

// Entry is one recorded pipeline run.
type Entry struct {
	ID          int64      `json:"id"`
	RunUUID     string     `json:"run_uuid"`
	Kind        string     `json:"kind"`
	StartedAt   time.Time  `json:"started_at"`
	DurationMS  int64      `json:"duration_ms"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	AccuracyPct *float64   `json:"accuracy_pct,omitempty"`
	Details     string     `json:"details"`
}

// Repository appends and reads run log entries.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new run log repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "run_log").Logger(),
	}
}

// Append stores one run entry and returns its run UUID.
func (r *Repository) Append(entry Entry) (string, error) {
	if entry.RunUUID == "" {
		entry.RunUUID = uuid.New().String()
	}

	_, err := r.db.Exec(`
		INSERT INTO run_log (run_uuid, kind, started_at, duration_ms, processed, succeeded, failed, accuracy_pct, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.RunUUID, entry.Kind, entry.StartedAt, entry.DurationMS,
		entry.Processed, entry.Succeeded, entry.Failed, entry.AccuracyPct, entry.Details)
	if err != nil {
		return "", fmt.Errorf("failed to append run log entry: %w", err)
	}

	return entry.RunUUID, nil
}

// Recent returns the newest entries for one kind, or all kinds when kind is
// empty, at most limit rows.
func (r *Repository) Recent(kind string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, run_uuid, kind, started_at, duration_ms, processed, succeeded, failed, accuracy_pct, details
		FROM run_log`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var accuracy sql.NullFloat64
		if err := rows.Scan(
			&entry.ID, &entry.RunUUID, &entry.Kind, &entry.StartedAt,
			&entry.DurationMS, &entry.Processed, &entry.Succeeded, &entry.Failed,
			&accuracy, &entry.Details,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run log entry: %w", err)
		}
		if accuracy.Valid {
			entry.AccuracyPct = &accuracy.Float64
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
