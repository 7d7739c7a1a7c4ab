package store

// schemaV1 is the persistent schema for the download scheduler's queue
// and the transcoding cache's on-disk index (4.K, 4.J). The in-memory
// catalogue itself is never stored here — it is rebuilt by the scanner
// on startup and mirrored to the JSON metadata cache instead.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per queued/active/finished download request.
CREATE TABLE IF NOT EXISTS download_tasks (
  id TEXT PRIMARY KEY,
  song_id TEXT NOT NULL,
  song_path TEXT NOT NULL,
  dest_path TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'queued',
  priority INTEGER NOT NULL DEFAULT 0,
  attempt INTEGER NOT NULL DEFAULT 0,
  bytes_total INTEGER,
  bytes_done INTEGER NOT NULL DEFAULT 0,
  error TEXT,
  queued_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_download_tasks_status ON download_tasks(status);
CREATE INDEX IF NOT EXISTS idx_download_tasks_queued_at ON download_tasks(queued_at);

-- One row per cached transcoded artifact, enough to enforce the disk
-- budget with LRU eviction without re-stating the bytes on disk.
CREATE TABLE IF NOT EXISTS cache_entries (
  cache_key TEXT PRIMARY KEY,
  song_path TEXT NOT NULL,
  quality TEXT NOT NULL,
  artifact_path TEXT NOT NULL,
  size_bytes INTEGER NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_read_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_last_read_at ON cache_entries(last_read_at);
`

// schemaV2 adds the duplicate detector's resumable-progress checkpoint
// (4.E supplement): a single row holding the partial grouping state of
// an in-progress dedup pass, so a scan interrupted partway through a
// very large library's duplicate detection can resume instead of
// restarting the whole pass.
const schemaV2 = `
CREATE TABLE IF NOT EXISTS dedup_progress (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  total_songs INTEGER NOT NULL,
  processed_songs INTEGER NOT NULL,
  groups_json TEXT NOT NULL,
  started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
