package store

import (
	"database/sql"
	"fmt"
)

// PutCacheEntry inserts or replaces a transcoded-artifact record.
func (s *Store) PutCacheEntry(e CacheEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO cache_entries (cache_key, song_path, quality, artifact_path, size_bytes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			artifact_path = excluded.artifact_path,
			size_bytes = excluded.size_bytes,
			last_read_at = CURRENT_TIMESTAMP`,
		e.CacheKey, e.SongPath, e.Quality, e.ArtifactPath, e.SizeBytes)
	if err != nil {
		return fmt.Errorf("store: put cache entry %s: %w", e.CacheKey, err)
	}
	return nil
}

// TouchCacheEntry updates last_read_at to now, keeping the LRU ordering
// current for a cache hit.
func (s *Store) TouchCacheEntry(key string) error {
	_, err := s.db.Exec(`UPDATE cache_entries SET last_read_at = CURRENT_TIMESTAMP WHERE cache_key = ?`, key)
	return err
}

// GetCacheEntry looks up a single artifact by key, or sql.ErrNoRows if
// absent.
func (s *Store) GetCacheEntry(key string) (CacheEntry, error) {
	var e CacheEntry
	err := s.db.QueryRow(`
		SELECT cache_key, song_path, quality, artifact_path, size_bytes, created_at, last_read_at
		FROM cache_entries WHERE cache_key = ?`, key).
		Scan(&e.CacheKey, &e.SongPath, &e.Quality, &e.ArtifactPath, &e.SizeBytes, &e.CreatedAt, &e.LastReadAt)
	if err == sql.ErrNoRows {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("store: get cache entry %s: %w", key, err)
	}
	return e, nil
}

// RemoveCacheEntry deletes an artifact's row (the caller is responsible
// for deleting the underlying file).
func (s *Store) RemoveCacheEntry(key string) error {
	_, err := s.db.Exec(`DELETE FROM cache_entries WHERE cache_key = ?`, key)
	return err
}

// TotalCacheBytes sums size_bytes across every tracked artifact.
func (s *Store) TotalCacheBytes() (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(size_bytes) FROM cache_entries`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("store: total cache bytes: %w", err)
	}
	return total.Int64, nil
}

// LeastRecentlyReadEntries returns up to limit entries ordered oldest
// last_read_at first, for the eviction sweep to consider.
func (s *Store) LeastRecentlyReadEntries(limit int) ([]CacheEntry, error) {
	rows, err := s.db.Query(`
		SELECT cache_key, song_path, quality, artifact_path, size_bytes, created_at, last_read_at
		FROM cache_entries ORDER BY last_read_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: least recently read entries: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.CacheKey, &e.SongPath, &e.Quality, &e.ArtifactPath, &e.SizeBytes, &e.CreatedAt, &e.LastReadAt); err != nil {
			return nil, fmt.Errorf("store: scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
