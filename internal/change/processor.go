// Package change implements the change processor (4.I): it turns a
// batch of file-system changes into a LibraryUpdate and, via
// ApplyUpdate, a rebuilt Library. A reverse index path -> album ID is
// recomputed once per batch so individual change lookups stay O(1).
package change

import (
	"sync"

	"github.com/picccassso/nuptune/internal/album"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/dedup"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/util"
)

// expand normalizes a raw change batch: a Renamed entry becomes a
// Removed for OldPath followed by an Added for Path, per spec.md 4.I.
func expand(changes []catalog.FileChange) []catalog.FileChange {
	out := make([]catalog.FileChange, 0, len(changes))
	for _, c := range changes {
		if c.Kind == catalog.Renamed {
			out = append(out,
				catalog.FileChange{Kind: catalog.Removed, Path: c.OldPath, AtUnix: c.AtUnix},
				catalog.FileChange{Kind: catalog.Added, Path: c.Path, AtUnix: c.AtUnix},
			)
			continue
		}
		out = append(out, c)
	}
	return out
}

// reverseIndex maps a song path to the album ID it currently belongs to,
// built once per ProcessBatch call in O(total songs).
func reverseIndex(lib *catalog.Library) map[string]string {
	idx := make(map[string]string, len(lib.Albums)*8)
	for albumID, a := range lib.Albums {
		for _, s := range a.Songs {
			idx[s.Path] = albumID
		}
	}
	return idx
}

// BatchResult bundles the LibraryUpdate a batch produces together with
// the metadata ProcessBatch already extracted for it, so ApplyUpdate
// never has to re-extract.
type BatchResult struct {
	Update   *catalog.LibraryUpdate
	Added    []*catalog.SongMetadata
	Modified []*catalog.SongMetadata
}

// ProcessBatch turns changes into a LibraryUpdate against the current
// library snapshot. Metadata for added/modified paths is extracted in
// parallel; extraction failures are logged and simply omitted from the
// delta rather than failing the whole batch.
func ProcessBatch(changes []catalog.FileChange, lib *catalog.Library, extractOpts meta.Options, atUnix int64) *BatchResult {
	changes = expand(changes)
	pathToAlbum := reverseIndex(lib)

	update := &catalog.LibraryUpdate{AtUnix: atUnix}
	result := &BatchResult{Update: update}
	affectedAlbums := make(map[string]bool)

	var toExtract []string
	for _, c := range changes {
		switch c.Kind {
		case catalog.Removed:
			if s := lib.FindSongByPath(c.Path); s != nil {
				update.RemovedSongIDs = append(update.RemovedSongIDs, s.ID)
			}
			if albumID, ok := pathToAlbum[c.Path]; ok {
				affectedAlbums[albumID] = true
			}
		case catalog.Added, catalog.Modified:
			toExtract = append(toExtract, c.Path)
		}
	}

	extracted := extractParallel(toExtract, extractOpts)
	for i, path := range toExtract {
		m := extracted[i]
		if m == nil {
			continue
		}
		if changeKindFor(changes, path) == catalog.Added {
			update.AddedSongIDs = append(update.AddedSongIDs, m.ID)
			result.Added = append(result.Added, m)
		} else {
			update.ModifiedSongIDs = append(update.ModifiedSongIDs, m.ID)
			result.Modified = append(result.Modified, m)
		}
		if albumID, ok := pathToAlbum[path]; ok {
			affectedAlbums[albumID] = true
		}
	}

	for albumID := range affectedAlbums {
		update.AffectedAlbums = append(update.AffectedAlbums, albumID)
	}
	return result
}

func changeKindFor(changes []catalog.FileChange, path string) catalog.ChangeKind {
	for _, c := range changes {
		if c.Path == path {
			return c.Kind
		}
	}
	return catalog.Modified
}

// extractParallel extracts metadata for every path concurrently,
// preserving input order; a failed extraction leaves a nil slot.
func extractParallel(paths []string, opts meta.Options) []*catalog.SongMetadata {
	results := make([]*catalog.SongMetadata, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			m, err := meta.Extract(path, opts)
			if err != nil {
				util.WarnLog("change: extraction failed for %s: %v", path, err)
				return
			}
			results[i] = m
		}(i, p)
	}
	wg.Wait()
	return results
}

// ApplyUpdate rebuilds lib from a BatchResult: it removes the songs named
// in the update's removed/modified sets, folds in the already-extracted
// added and modified songs, and re-runs the album builder and dedup over
// the resulting set.
func ApplyUpdate(lib *catalog.Library, result *BatchResult) *catalog.Library {
	update := result.Update
	cancelled := make(map[string]bool, len(update.RemovedSongIDs)+len(update.ModifiedSongIDs))
	for _, id := range update.RemovedSongIDs {
		cancelled[id] = true
	}
	for _, id := range update.ModifiedSongIDs {
		cancelled[id] = true
	}

	songs := make([]*catalog.SongMetadata, 0, len(lib.AllSongs()))
	for _, s := range lib.AllSongs() {
		if !cancelled[s.ID] {
			songs = append(songs, s)
		}
	}
	songs = append(songs, result.Added...)
	songs = append(songs, result.Modified...)

	deduped := dedup.Dedup(songs)
	albums, standalone := album.Build(deduped)

	next := catalog.NewLibrary()
	next.Albums = albums
	next.Standalone = standalone
	next.Playlists = lib.Playlists
	next.LastUpdated = lib.LastUpdated
	return next
}
