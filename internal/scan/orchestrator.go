// Orchestrator.go implements the scan orchestrator (4.G): it drives the
// two-pass walk, a CPU-sized batch worker pool for metadata extraction
// consulting the metadata cache, in-memory dedup, and album grouping,
// emitting progress events along the way. Grounded on the teacher's
// original scanner pipeline, which sized its worker pool the same way
// (detected CPU count buckets) and reported progress through a callback
// rather than a channel.
package scan

import (
	"context"
	"runtime"
	"sync"

	"github.com/picccassso/nuptune/internal/album"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/dedup"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/util"
)

// Stage names used in ProgressEvent.
const (
	StageCollecting = "collecting"
	StageMetadata   = "metadata"
	StageDuplicates = "duplicates"
	StageAlbums     = "albums"
)

// ProgressEvent reports scan progress. Percentage is 0-100 across the
// whole run, spanning the per-stage windows: collecting 0-10, metadata
// 10-70, duplicates 70-85, albums 85-100.
type ProgressEvent struct {
	Stage      string
	Current    int
	Total      int
	Percentage int
	Message    string
}

// Options tunes a scan run.
type Options struct {
	// ExtractOpts is passed through to the extractor for every cache miss.
	ExtractOpts meta.Options
	// OnProgress, if set, receives progress events. It must return
	// quickly; the orchestrator does not buffer events.
	OnProgress func(ProgressEvent)
	// DedupProgress, if set, checkpoints the duplicate-detection pass so
	// it can resume after an interruption instead of re-grouping every
	// song from scratch. Nil runs a plain, non-resumable dedup pass.
	DedupProgress dedup.ProgressStore
}

// Result is the outcome of a full scan: the rebuilt library, the updated
// cache snapshot to persist, and cache hit/miss counts.
type Result struct {
	Library *catalog.Library
	Cache   map[string]metacache.Entry
	Hits    int
	Misses  int
}

// batchSize buckets the worker-pool size by detected CPU count, per
// spec.md 4.G.
func batchSize() int {
	n := runtime.NumCPU()
	switch {
	case n <= 2:
		return 8
	case n <= 4:
		return 15
	case n <= 8:
		return 25
	default:
		return 35
	}
}

// Run performs a full scan of root: walk, batched metadata extraction
// against the cache, dedup, and album grouping.
func Run(ctx context.Context, root string, cache *metacache.Cache, opts Options) (*Result, error) {
	emit := opts.OnProgress
	if emit == nil {
		emit = func(ProgressEvent) {}
	}

	emit(ProgressEvent{Stage: StageCollecting, Percentage: 0, Message: "walking " + root})
	walked, err := Walk(root)
	if err != nil {
		return nil, err
	}
	emit(ProgressEvent{Stage: StageCollecting, Current: len(walked.AudioPaths), Total: len(walked.AudioPaths), Percentage: 10, Message: "walk complete"})

	retryCfg := util.DefaultRetryConfig()
	if info, err := util.DetectNetworkFilesystem(root); err == nil && info.IsNetwork {
		util.InfoLog("scan: %s is on a %s mount, using NAS-tuned retry backoff", root, info.Protocol)
		retryCfg = util.NASRetryConfig()
	}

	songs, hits, misses := extractAll(ctx, walked.AudioPaths, cache, opts.ExtractOpts, retryCfg, emit)

	emit(ProgressEvent{Stage: StageDuplicates, Percentage: 70, Message: "removing duplicates"})
	deduped, err := dedup.DedupResumable(ctx, songs, opts.DedupProgress)
	if err != nil {
		return nil, err
	}
	emit(ProgressEvent{Stage: StageDuplicates, Current: len(deduped), Total: len(songs), Percentage: 85, Message: "duplicates removed"})

	emit(ProgressEvent{Stage: StageAlbums, Percentage: 85, Message: "grouping albums"})
	albums, standalone := album.Build(deduped)
	emit(ProgressEvent{Stage: StageAlbums, Current: len(albums), Total: len(deduped), Percentage: 100, Message: "albums grouped"})

	lib := catalog.NewLibrary()
	lib.Albums = albums
	lib.Standalone = standalone
	lib.Playlists = attachPlaylists(walked, deduped)

	return &Result{
		Library: lib,
		Cache:   cache.Snapshot(),
		Hits:    hits,
		Misses:  misses,
	}, nil
}

// attachPlaylists rebuilds FolderPlaylist.SongIDs against the post-dedup
// song set, since a duplicate loser dropped by dedup must not leave a
// dangling song ID in a playlist.
func attachPlaylists(walked *WalkResult, deduped []*catalog.SongMetadata) []*catalog.FolderPlaylist {
	survivingIDs := make(map[string]bool, len(deduped))
	for _, s := range deduped {
		survivingIDs[s.ID] = true
	}

	playlists := make([]*catalog.FolderPlaylist, 0, len(walked.Playlists))
	for _, p := range walked.Playlists {
		kept := p.SongIDs[:0]
		for _, id := range p.SongIDs {
			if survivingIDs[id] {
				kept = append(kept, id)
			}
		}
		p.SongIDs = kept
		playlists = append(playlists, p)
	}
	return playlists
}

// extractAll runs metadata extraction over every path in CPU-sized
// batches, consulting the cache first and falling back to the extractor
// on a miss.
func extractAll(ctx context.Context, paths []string, cache *metacache.Cache, extractOpts meta.Options, retryCfg *util.RetryConfig, emit func(ProgressEvent)) ([]*catalog.SongMetadata, int, int) {
	size := batchSize()
	total := len(paths)
	songs := make([]*catalog.SongMetadata, 0, total)

	var hits, misses int
	var mu sync.Mutex
	processed := 0

	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		batch := paths[start:end]

		var wg sync.WaitGroup
		results := make([]*catalog.SongMetadata, len(batch))
		for i, p := range batch {
			wg.Add(1)
			go func(i int, path string) {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				m, hit := extractOne(path, cache, extractOpts, retryCfg)
				mu.Lock()
				if hit {
					hits++
				} else {
					misses++
				}
				mu.Unlock()
				results[i] = m
			}(i, p)
		}
		wg.Wait()

		for _, m := range results {
			if m != nil {
				songs = append(songs, m)
			}
		}
		processed = end
		pct := 10 + (processed*60)/max(total, 1)
		emit(ProgressEvent{Stage: StageMetadata, Current: processed, Total: total, Percentage: pct, Message: "extracting metadata"})
	}

	return songs, hits, misses
}

// extractOne consults the cache for path, falling back to the
// extractor on a miss; the returned bool reports whether it was a hit.
// stat and extraction both go through retryCfg, so a transient NAS
// hiccup (ECONNRESET, EIO, a timeout) gets retried with backoff instead
// of silently dropping the file from the scan.
func extractOne(path string, cache *metacache.Cache, opts meta.Options, retryCfg *util.RetryConfig) (*catalog.SongMetadata, bool) {
	stat, err := util.RetryableStat(path, retryCfg)
	if err != nil {
		util.WarnLog("scan: stat failed for %s: %v", path, err)
		return nil, false
	}
	mtimeMs := stat.ModTime().UnixMilli()
	sizeBytes := stat.Size()

	if cache.Fresh(path, mtimeMs, sizeBytes) {
		if entry, ok := cache.Lookup(path); ok {
			return entry.Metadata, true
		}
	}

	m, err := util.RetryWithBackoff(retryCfg, func() (*catalog.SongMetadata, error) {
		return meta.Extract(path, opts)
	}, "extract("+path+")")
	if err != nil {
		util.WarnLog("scan: extraction failed for %s: %v", path, err)
		return nil, false
	}
	cache.Update(path, mtimeMs, sizeBytes, m)
	return m, false
}

