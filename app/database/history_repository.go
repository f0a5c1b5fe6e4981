package database

import (
	"fmt"
	"time"
)

// Rebroadcast is one recorded rerun. The embedded document state remains
// the source of truth for scheduling; these rows are an append-only audit
// trail.
type Rebroadcast struct {
	ID              int64
	FeedName        string
	EntryGUID       string
	EntryTitle      string
	OriginalPubDate *time.Time
	RebroadcastAt   time.Time
}

// HistoryRepository handles database operations for the rerun history
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record appends one rerun to the history
func (r *HistoryRepository) Record(feedName, entryGUID, entryTitle string, originalPubDate, rebroadcastAt time.Time) error {
	var original *time.Time
	if !originalPubDate.IsZero() {
		original = &originalPubDate
	}

	_, err := r.db.Exec(`
		INSERT INTO rebroadcasts (feed_name, entry_guid, entry_title, original_pubdate, rebroadcast_at)
		VALUES (?, ?, ?, ?, ?)`,
		feedName, entryGUID, entryTitle, original, rebroadcastAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record rebroadcast: %w", err)
	}
	return nil
}

// Count returns the total number of recorded reruns for a feed
func (r *HistoryRepository) Count(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM rebroadcasts WHERE feed_name = ?`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rebroadcasts: %w", err)
	}
	return count, nil
}

// Recent returns the most recent reruns for a feed, newest first
func (r *HistoryRepository) Recent(feedName string, limit int) ([]Rebroadcast, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_name, entry_guid, entry_title, original_pubdate, rebroadcast_at
		FROM rebroadcasts
		WHERE feed_name = ?
		ORDER BY rebroadcast_at DESC, id DESC
		LIMIT ?`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rebroadcasts: %w", err)
	}
	defer rows.Close()

	var history []Rebroadcast
	for rows.Next() {
		var rb Rebroadcast
		if err := rows.Scan(&rb.ID, &rb.FeedName, &rb.EntryGUID, &rb.EntryTitle,
			&rb.OriginalPubDate, &rb.RebroadcastAt); err != nil {
			return nil, fmt.Errorf("failed to scan rebroadcast: %w", err)
		}
		history = append(history, rb)
	}
	return history, rows.Err()
}
