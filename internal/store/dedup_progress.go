package store

import (
	"database/sql"
	"fmt"

	"github.com/picccassso/nuptune/internal/dedup"
)

// GetDedupProgress returns the saved checkpoint, or nil if there is none
// (no dedup pass has run, or the last one finished and cleared it).
// Satisfies dedup.ProgressStore.
func (s *Store) GetDedupProgress() (*dedup.Checkpoint, error) {
	var p dedup.Checkpoint
	err := s.db.QueryRow(`
		SELECT total_songs, processed_songs, groups_json
		FROM dedup_progress WHERE id = 1
	`).Scan(&p.TotalSongs, &p.ProcessedSongs, &p.GroupsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get dedup progress: %w", err)
	}
	return &p, nil
}

// SaveDedupProgress upserts the checkpoint for the in-progress pass.
func (s *Store) SaveDedupProgress(p dedup.Checkpoint) error {
	_, err := s.db.Exec(`
		INSERT INTO dedup_progress (id, total_songs, processed_songs, groups_json, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			total_songs = excluded.total_songs,
			processed_songs = excluded.processed_songs,
			groups_json = excluded.groups_json,
			updated_at = CURRENT_TIMESTAMP
	`, p.TotalSongs, p.ProcessedSongs, p.GroupsJSON)
	if err != nil {
		return fmt.Errorf("store: save dedup progress: %w", err)
	}
	return nil
}

// ClearDedupProgress removes the checkpoint after a pass completes.
func (s *Store) ClearDedupProgress() error {
	_, err := s.db.Exec(`DELETE FROM dedup_progress WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("store: clear dedup progress: %w", err)
	}
	return nil
}
