// Package featurecache provides short-TTL persistent caching for derived
// feature snapshots. Snapshots are stored as msgpack blobs with expiration
// timestamps; the adapter reads cache-first and recomputes on miss.
package featurecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Kinds of cached snapshots. Kept in a fixed list so cache keys stay
// enumerable for cleanup and inspection.
const (
	KindForm       = "form"
	KindFatigue    = "fatigue"
	KindHeadToHead = "head_to_head"
	KindInjury     = "injury"
	KindPlayer     = "player"
)

var validKinds = map[string]bool{
	KindForm:       true,
	KindFatigue:    true,
	KindHeadToHead: true,
	KindInjury:     true,
	KindPlayer:     true,
}

// Repository provides cache operations for feature snapshots.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new feature cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func validateKind(kind string) error {
	if !validKinds[kind] {
		return fmt.Errorf("invalid snapshot kind: %s", kind)
	}
	return nil
}

// Store saves a snapshot with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert data.
func (r *Repository) Store(kind, key string, value interface{}, ttl time.Duration) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO feature_snapshots (kind, cache_key, data, expires_at)
		VALUES (?, ?, ?, ?)
	`, kind, key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", kind, err)
	}

	return nil
}

// GetIfFresh decodes a snapshot into out only if it has not expired.
// Returns false when the key is missing or stale; stale entries are left for
// the cleanup job.
func (r *Repository) GetIfFresh(kind, key string, out interface{}) (bool, error) {
	if err := validateKind(kind); err != nil {
		return false, err
	}

	var data []byte
	err := r.db.QueryRow(`
		SELECT data FROM feature_snapshots
		WHERE kind = ? AND cache_key = ? AND expires_at > ?
	`, kind, key, time.Now().Unix()).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot: %w", kind, err)
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		// A decode failure means the cached shape changed; treat as a miss.
		return false, nil
	}

	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(kind, key string) error {
	if err := validateKind(kind); err != nil {
		return err
	}

	_, err := r.db.Exec(`DELETE FROM feature_snapshots WHERE kind = ? AND cache_key = ?`, kind, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s snapshot: %w", kind, err)
	}

	return nil
}

// DeleteExpired removes all rows past their expiration.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM feature_snapshots WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
