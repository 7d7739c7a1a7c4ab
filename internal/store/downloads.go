package store

import (
	"database/sql"
	"fmt"
)

// Download status values used in download_tasks.status.
const (
	DownloadQueued    = "queued"
	DownloadActive    = "active"
	DownloadPaused    = "paused"
	DownloadDone      = "done"
	DownloadFailed    = "failed"
	DownloadCancelled = "cancelled"
)

// EnqueueDownload inserts a new queued download task.
func (s *Store) EnqueueDownload(t DownloadTask) error {
	_, err := s.db.Exec(`
		INSERT INTO download_tasks (id, song_id, song_path, dest_path, status, priority, attempt, bytes_total, bytes_done)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SongID, t.SongPath, t.DestPath, DownloadQueued, t.Priority, 0, t.BytesTotal, 0)
	if err != nil {
		return fmt.Errorf("store: enqueue download %s: %w", t.ID, err)
	}
	return nil
}

// UpdateDownloadProgress records bytes transferred so far for a task.
func (s *Store) UpdateDownloadProgress(id string, bytesDone int64) error {
	_, err := s.db.Exec(`UPDATE download_tasks SET bytes_done = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, bytesDone, id)
	return err
}

// SetDownloadStatus transitions a task's status, optionally recording an
// error message (pass "" to clear it).
func (s *Store) SetDownloadStatus(id, status, errMsg string) error {
	_, err := s.db.Exec(`
		UPDATE download_tasks SET status = ?, error = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, errMsg, id)
	return err
}

// IncrementDownloadAttempt bumps the retry counter for a task.
func (s *Store) IncrementDownloadAttempt(id string) error {
	_, err := s.db.Exec(`UPDATE download_tasks SET attempt = attempt + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// RemoveDownload deletes a task outright (used on cancel-and-forget).
func (s *Store) RemoveDownload(id string) error {
	_, err := s.db.Exec(`DELETE FROM download_tasks WHERE id = ?`, id)
	return err
}

// ListDownloads returns every task ordered by queued_at, oldest first, so
// the scheduler can rebuild its queue on startup.
func (s *Store) ListDownloads() ([]DownloadTask, error) {
	rows, err := s.db.Query(`
		SELECT id, song_id, song_path, dest_path, status, priority, attempt,
		       COALESCE(bytes_total, 0), bytes_done, COALESCE(error, ''), queued_at, updated_at
		FROM download_tasks ORDER BY queued_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list downloads: %w", err)
	}
	defer rows.Close()

	var tasks []DownloadTask
	for rows.Next() {
		var t DownloadTask
		if err := rows.Scan(&t.ID, &t.SongID, &t.SongPath, &t.DestPath, &t.Status, &t.Priority,
			&t.Attempt, &t.BytesTotal, &t.BytesDone, &t.Error, &t.QueuedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan download task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetDownload returns a single task by ID, or sql.ErrNoRows if absent.
func (s *Store) GetDownload(id string) (DownloadTask, error) {
	var t DownloadTask
	err := s.db.QueryRow(`
		SELECT id, song_id, song_path, dest_path, status, priority, attempt,
		       COALESCE(bytes_total, 0), bytes_done, COALESCE(error, ''), queued_at, updated_at
		FROM download_tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.SongID, &t.SongPath, &t.DestPath, &t.Status, &t.Priority,
			&t.Attempt, &t.BytesTotal, &t.BytesDone, &t.Error, &t.QueuedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return t, err
	}
	if err != nil {
		return t, fmt.Errorf("store: get download %s: %w", id, err)
	}
	return t, nil
}
