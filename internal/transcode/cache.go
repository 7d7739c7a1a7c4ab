package transcode

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/picccassso/nuptune/internal/report"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/util"
)

// DefaultBudgetBytes is the default on-disk artifact budget (4.J).
const DefaultBudgetBytes int64 = 2 * 1024 * 1024 * 1024

// ArtifactKey computes the cache key for a (songPath, quality) pair:
// hash(song_path) + "-" + quality + ".m4a".
func ArtifactKey(songPath string, q Quality) string {
	sum := md5.Sum([]byte(songPath))
	return hex.EncodeToString(sum[:]) + "-" + string(q) + ".m4a"
}

// Cache resolves (song_path, quality) requests to a readable artifact
// path, transcoding on demand, deduplicating concurrent requests for the
// same key, and evicting least-recently-read artifacts to stay under a
// disk budget. Eviction never touches an artifact with an active reader.
type Cache struct {
	dir    string
	store  *store.Store
	budget int64

	// Logger receives a LogTranscode event per encode attempt. Nil by
	// default; set directly after New.
	Logger *report.EventLogger

	mu       sync.Mutex
	inflight map[string]*flight
	refcount map[string]int
}

type flight struct {
	done chan struct{}
	path string
	err  error
}

// New returns a Cache rooted at dir, backed by st for its LRU index.
// budgetBytes <= 0 uses DefaultBudgetBytes.
func New(dir string, st *store.Store, budgetBytes int64) *Cache {
	if budgetBytes <= 0 {
		budgetBytes = DefaultBudgetBytes
	}
	return &Cache{
		dir:      dir,
		store:    st,
		budget:   budgetBytes,
		inflight: make(map[string]*flight),
		refcount: make(map[string]int),
	}
}

// Resolve returns a path to an artifact satisfying (songPath, quality).
// high always returns songPath itself. For medium/low it returns the
// cached artifact if present, otherwise transcodes, deduplicating
// concurrent callers for the same key via single-flight. If the encoder
// is unavailable it silently degrades to high.
//
// release must be called when the caller is done reading the returned
// path, so eviction knows the artifact is no longer in use.
func (c *Cache) Resolve(ctx context.Context, songPath string, q Quality) (path string, release func(), err error) {
	if q == High || !CheckEncoderAvailable() {
		return songPath, func() {}, nil
	}

	key := ArtifactKey(songPath, q)
	artifactPath := filepath.Join(c.dir, key)

	if entry, err := c.store.GetCacheEntry(key); err == nil {
		if _, statErr := os.Stat(entry.ArtifactPath); statErr == nil {
			_ = c.store.TouchCacheEntry(key)
			return c.acquire(key, entry.ArtifactPath), c.releaseFunc(key), nil
		}
		// Artifact row exists but the file is gone; fall through to
		// re-encode and overwrite the stale row.
		_ = c.store.RemoveCacheEntry(key)
	}

	if err := c.runSingleFlight(ctx, key, songPath, artifactPath, q); err != nil {
		return "", nil, err
	}
	return c.acquire(key, artifactPath), c.releaseFunc(key), nil
}

// acquire bumps the in-use refcount for key and returns path unchanged.
func (c *Cache) acquire(key, path string) string {
	c.mu.Lock()
	c.refcount[key]++
	c.mu.Unlock()
	return path
}

func (c *Cache) releaseFunc(key string) func() {
	return func() {
		c.mu.Lock()
		c.refcount[key]--
		if c.refcount[key] <= 0 {
			delete(c.refcount, key)
		}
		c.mu.Unlock()
	}
}

// runSingleFlight ensures at most one ffmpeg invocation is in progress
// for key at a time; concurrent callers wait on the same flight.
func (c *Cache) runSingleFlight(ctx context.Context, key, songPath, artifactPath string, q Quality) error {
	c.mu.Lock()
	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-f.done
		return f.err
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	encodeStart := time.Now()
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		f.err = fmt.Errorf("transcode: create cache dir: %w", err)
	} else if err := encode(ctx, songPath, artifactPath, q); err != nil {
		f.err = err
		c.Logger.LogTranscode(key, string(q), time.Since(encodeStart), err)
	} else {
		c.Logger.LogTranscode(key, string(q), time.Since(encodeStart), nil)
		info, statErr := os.Stat(artifactPath)
		var size int64
		if statErr == nil {
			size = info.Size()
		}
		f.err = c.store.PutCacheEntry(store.CacheEntry{
			CacheKey:     key,
			SongPath:     songPath,
			Quality:      string(q),
			ArtifactPath: artifactPath,
			SizeBytes:    size,
		})
		c.evictIfOverBudget()
	}

	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(f.done)
	return f.err
}

// evictIfOverBudget removes least-recently-read artifacts until the
// tracked total is back under budget, skipping any artifact with an
// active reader.
func (c *Cache) evictIfOverBudget() {
	total, err := c.store.TotalCacheBytes()
	if err != nil || total <= c.budget {
		return
	}

	candidates, err := c.store.LeastRecentlyReadEntries(64)
	if err != nil {
		util.WarnLog("transcode: listing eviction candidates: %v", err)
		return
	}

	for _, e := range candidates {
		if total <= c.budget {
			return
		}
		c.mu.Lock()
		inUse := c.refcount[e.CacheKey] > 0
		c.mu.Unlock()
		if inUse {
			continue
		}
		if err := os.Remove(e.ArtifactPath); err != nil && !os.IsNotExist(err) {
			util.WarnLog("transcode: evicting %s: %v", e.ArtifactPath, err)
			continue
		}
		if err := c.store.RemoveCacheEntry(e.CacheKey); err != nil {
			util.WarnLog("transcode: removing cache row %s: %v", e.CacheKey, err)
			continue
		}
		total -= e.SizeBytes
	}
}
