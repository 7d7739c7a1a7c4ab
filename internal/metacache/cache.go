// Package metacache implements the persistent, content-validated metadata
// cache: a single JSON document mapping file path to the (mtime, size,
// metadata) tuple last extracted for it, saved atomically via
// write-to-temp-then-rename.
package metacache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/util"
)

// schemaVersion is stamped into the saved document so future rewrites can
// tell old and new shapes apart. Fields of a loaded document that Entry and
// document do not declare are not kept: the next Save drops them.
const schemaVersion = 1

// Entry is one cache row: the file stat fingerprint the metadata was
// extracted under, plus the metadata itself.
type Entry struct {
	MtimeMs  int64                  `json:"mtime_ms"`
	SizeBytes int64                 `json:"size_bytes"`
	Metadata *catalog.SongMetadata  `json:"metadata"`
}

type document struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

// Cache is the in-memory view of the persistent metadata cache, guarded by
// a mutex since the scan orchestrator's batch workers update it
// concurrently.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]Entry
}

// New returns an empty cache bound to path; call Load to populate it from
// disk.
func New(path string) *Cache {
	return &Cache{path: path, entries: make(map[string]Entry)}
}

// Load reads the cache document from disk. A missing file is not an
// error — the cache simply starts empty. A corrupt file is logged once
// and the cache also starts empty (the CacheCorrupt error kind).
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("metacache: read %s: %w", c.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		util.WarnLog("%v", fmt.Errorf("metacache: %s: %w: %v", c.path, apperr.ErrCacheCorrupt, err))
		c.mu.Lock()
		c.entries = make(map[string]Entry)
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.entries = doc.Entries
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	c.mu.Unlock()
	return nil
}

// Save writes the cache document atomically: it's written to a temp file
// in the same directory, then renamed over the target path.
func (c *Cache) Save() error {
	c.mu.RLock()
	doc := document{Version: schemaVersion, Entries: c.entries}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("metacache: marshal: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".metadata_cache-*.tmp")
	if err != nil {
		return fmt.Errorf("metacache: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("metacache: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metacache: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("metacache: rename into place: %w", err)
	}
	return nil
}

// Lookup returns the cached entry for path and whether it is present.
func (c *Cache) Lookup(path string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Fresh reports whether the cached entry for path matches the current
// file stat fingerprint, meaning extraction can be skipped.
func (c *Cache) Fresh(path string, mtimeMs, sizeBytes int64) bool {
	e, ok := c.Lookup(path)
	if !ok {
		return false
	}
	return e.MtimeMs == mtimeMs && e.SizeBytes == sizeBytes
}

// Update records a fresh extraction result for path.
func (c *Cache) Update(path string, mtimeMs, sizeBytes int64, meta *catalog.SongMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = Entry{MtimeMs: mtimeMs, SizeBytes: sizeBytes, Metadata: meta}
}

// UpdateDuration patches just the duration of an already-cached entry,
// used by the duration warm-up path so it doesn't have to re-extract tags.
func (c *Cache) UpdateDuration(path string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok || e.Metadata == nil {
		return
	}
	e.Metadata.Duration = seconds
	c.entries[path] = e
}

// Remove deletes the cached entry for path, if any.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear empties the cache in memory (callers decide whether to also Save).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a shallow copy of all cached entries, used by the
// orchestrator to fold batch results back into one map before saving.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
