// Package library implements the library manager (4.H): the single
// in-process owner of the catalogue and its bounded artwork/duration
// caches. All mutation goes through Manager so readers always see a
// complete pre- or post-scan snapshot, never a partially built one.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/meta"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/scan"
	"github.com/picccassso/nuptune/internal/util"
)

// LRU cache sizes (entry count), per spec.md 4.H.
const (
	artworkCacheSize     = 50
	songArtworkCacheSize = 100
	durationCacheSize    = 2000
)

// EventKind enumerates the listener event kinds: scan complete, warm-up
// complete, and EventChangeApplied (declared below).
type EventKind int

const (
	EventScanComplete EventKind = iota
	EventWarmupComplete
)

// Listener receives library lifecycle events. payload is nil for
// EventScanComplete and EventChangeApplied, and an int (songs updated) for
// EventWarmupComplete.
type Listener func(kind EventKind, payload any)

// artworkResult caches a lazy artwork lookup, including negative
// results (nil Data, found false) so a broken file is never re-probed.
type artworkResult struct {
	data  []byte
	found bool
}

// durationResult mirrors artworkResult for lazy duration lookups.
type durationResult struct {
	seconds int
	found   bool
}

// Manager owns the current Library snapshot plus the bounded LRU caches
// layered on top of it.
type Manager struct {
	mu        sync.RWMutex
	lib       *catalog.Library
	cache     *metacache.Cache
	isScanning atomic.Bool

	artworkLRU     *lru.Cache[string, artworkResult]
	songArtworkLRU *lru.Cache[string, artworkResult]
	durationLRU    *lru.Cache[string, durationResult]

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextListenerID int
}

// New returns an empty Manager backed by the given metadata cache.
func New(cache *metacache.Cache) *Manager {
	artworkLRU, _ := lru.New[string, artworkResult](artworkCacheSize)
	songArtworkLRU, _ := lru.New[string, artworkResult](songArtworkCacheSize)
	durationLRU, _ := lru.New[string, durationResult](durationCacheSize)

	return &Manager{
		lib:            catalog.NewLibrary(),
		cache:          cache,
		artworkLRU:     artworkLRU,
		songArtworkLRU: songArtworkLRU,
		durationLRU:    durationLRU,
		listeners:      make(map[int]Listener),
	}
}

// Scan runs a full scan of folder and swaps it in atomically. A scan
// already in progress makes this call a no-op that returns the current
// snapshot (spec.md 4.H: "guarded by an is_scanning flag").
func (m *Manager) Scan(ctx context.Context, folder string, opts scan.Options) (*catalog.Library, error) {
	if !m.isScanning.CompareAndSwap(false, true) {
		return m.CurrentLibrary(), nil
	}
	defer m.isScanning.Store(false)

	result, err := scan.Run(ctx, folder, m.cache, opts)
	if err != nil {
		return nil, fmt.Errorf("library: scan %s: %w", folder, err)
	}

	if err := m.cache.Save(); err != nil {
		util.WarnLog("library: failed to save metadata cache: %v", err)
	}

	result.Library.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	m.mu.Lock()
	m.lib = result.Library
	m.mu.Unlock()

	m.clearLookupCaches()
	m.notify(EventScanComplete, nil)

	go m.StartDurationWarmup(false)

	return result.Library, nil
}

// EventChangeApplied fires after an incremental update from the change
// processor has been swapped in, mirroring EventScanComplete but for a
// partial rescan instead of a full one.
const EventChangeApplied EventKind = 2

// ApplyChangeBatch swaps in a library already rebuilt by the change
// processor's ApplyUpdate, clearing the lookup caches and notifying
// listeners the same way a full Scan does.
func (m *Manager) ApplyChangeBatch(next *catalog.Library) {
	next.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	m.mu.Lock()
	m.lib = next
	m.mu.Unlock()

	m.clearLookupCaches()
	m.notify(EventChangeApplied, nil)
}

// CurrentLibrary returns the current snapshot, or an empty library if
// no scan has completed yet.
func (m *Manager) CurrentLibrary() *catalog.Library {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lib
}

// GetSongPath returns the absolute path of songID, if known.
func (m *Manager) GetSongPath(songID string) (string, bool) {
	s := m.findSong(songID)
	if s == nil {
		return "", false
	}
	return s.Path, true
}

// FindSongByPath looks up a song by its file path.
func (m *Manager) FindSongByPath(path string) *catalog.SongMetadata {
	return m.CurrentLibrary().FindSongByPath(path)
}

func (m *Manager) findSong(songID string) *catalog.SongMetadata {
	lib := m.CurrentLibrary()
	if s, ok := lib.Standalone[songID]; ok {
		return s
	}
	for _, a := range lib.Albums {
		for _, s := range a.Songs {
			if s.ID == songID {
				return s
			}
		}
	}
	return nil
}

// GetAlbumArtwork returns the decoded artwork bytes for albumID, lazily
// extracting from the first member with embedded art on a cache miss.
// A nil, false result is itself cached to avoid re-probing a broken
// file.
func (m *Manager) GetAlbumArtwork(albumID string) ([]byte, bool) {
	if cached, ok := m.artworkLRU.Get(albumID); ok {
		return cached.data, cached.found
	}

	lib := m.CurrentLibrary()
	album, ok := lib.Albums[albumID]
	if !ok || album.ArtworkPath == "" {
		m.artworkLRU.Add(albumID, artworkResult{})
		return nil, false
	}

	data, err := meta.ExtractArtwork(album.ArtworkPath)
	if err != nil {
		util.DebugLog("library: artwork extraction failed for album %s: %v", albumID, err)
		m.artworkLRU.Add(albumID, artworkResult{})
		return nil, false
	}
	m.artworkLRU.Add(albumID, artworkResult{data: data, found: true})
	return data, true
}

// GetSongArtwork is GetAlbumArtwork's per-song equivalent, for songs
// that carry their own embedded art independent of their album.
func (m *Manager) GetSongArtwork(songID string) ([]byte, bool) {
	if cached, ok := m.songArtworkLRU.Get(songID); ok {
		return cached.data, cached.found
	}

	s := m.findSong(songID)
	if s == nil || !s.HasArtwork {
		m.songArtworkLRU.Add(songID, artworkResult{})
		return nil, false
	}

	data, err := meta.ExtractArtwork(s.Path)
	if err != nil {
		util.DebugLog("library: artwork extraction failed for song %s: %v", songID, err)
		m.songArtworkLRU.Add(songID, artworkResult{})
		return nil, false
	}
	m.songArtworkLRU.Add(songID, artworkResult{data: data, found: true})
	return data, true
}

// GetSongDuration returns songID's duration in seconds, lazily
// extracting on a miss and persisting the result to the in-memory song
// record and the metadata cache.
func (m *Manager) GetSongDuration(songID string) (int, bool) {
	if cached, ok := m.durationLRU.Get(songID); ok {
		return cached.seconds, cached.found
	}

	s := m.findSong(songID)
	if s == nil {
		m.durationLRU.Add(songID, durationResult{})
		return 0, false
	}
	if s.Duration >= 0 {
		m.durationLRU.Add(songID, durationResult{seconds: s.Duration, found: true})
		return s.Duration, true
	}

	seconds, ok := extractDurationOnly(s.Path)
	if !ok {
		m.durationLRU.Add(songID, durationResult{})
		return 0, false
	}

	s.Duration = seconds
	m.cache.UpdateDuration(s.Path, seconds)
	m.durationLRU.Add(songID, durationResult{seconds: seconds, found: true})
	return seconds, true
}

func extractDurationOnly(path string) (int, bool) {
	m, err := meta.Extract(path, meta.Options{UseFFprobe: true})
	if err != nil || m.Duration < 0 {
		return 0, false
	}
	return m.Duration, true
}

// StartDurationWarmup iterates every song with an unknown duration,
// extracting and persisting it, and notifies listeners on completion.
// force re-runs warm-up even if it believes every duration is already
// known.
func (m *Manager) StartDurationWarmup(force bool) {
	lib := m.CurrentLibrary()
	songs := lib.AllSongs()

	updated := 0
	for _, s := range songs {
		if s.Duration >= 0 && !force {
			continue
		}
		seconds, ok := extractDurationOnly(s.Path)
		if !ok {
			continue
		}
		m.mu.Lock()
		s.Duration = seconds
		m.mu.Unlock()
		m.cache.UpdateDuration(s.Path, seconds)
		m.durationLRU.Remove(s.ID)
		updated++
	}

	if updated > 0 {
		if err := m.cache.Save(); err != nil {
			util.WarnLog("library: failed to save metadata cache after warm-up: %v", err)
		}
	}
	m.notify(EventWarmupComplete, updated)
}

// Clear resets the manager to an empty library and empties every cache.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.lib = catalog.NewLibrary()
	m.mu.Unlock()
	m.clearLookupCaches()
}

func (m *Manager) clearLookupCaches() {
	m.artworkLRU.Purge()
	m.songArtworkLRU.Purge()
	m.durationLRU.Purge()
}

// AddListener registers a listener and returns an ID for Unregister.
func (m *Manager) AddListener(l Listener) int {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	id := m.nextListenerID
	m.nextListenerID++
	m.listeners[id] = l
	return id
}

// RemoveListener unregisters a listener previously returned by
// AddListener.
func (m *Manager) RemoveListener(id int) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	delete(m.listeners, id)
}

func (m *Manager) notify(kind EventKind, payload any) {
	m.listenersMu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listenersMu.Unlock()

	for _, l := range listeners {
		l(kind, payload)
	}
}

// songJSON is one entry in the library/album JSON shapes (§6).
type songJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumID     string `json:"albumId,omitempty"`
	Duration    int    `json:"duration"`
	TrackNumber int    `json:"trackNumber,omitempty"`
}

type albumJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CoverArt  string `json:"coverArt,omitempty"`
	SongCount int    `json:"songCount"`
	Duration  int    `json:"duration"`
}

type playlistJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SongIDs []string `json:"songIds"`
}

type librarySnapshotJSON struct {
	Albums         []albumJSON    `json:"albums"`
	Songs          []songJSON     `json:"songs"`
	Playlists      []playlistJSON `json:"playlists"`
	DurationsReady bool           `json:"durationsReady"`
	LastUpdated    string         `json:"lastUpdated"`
}

// ToAPIJSON renders the current snapshot using only already-known
// durations (no lazy extraction), setting durationsReady=false if any
// song lacks one.
func (m *Manager) ToAPIJSON(baseURL string) ([]byte, error) {
	return m.renderJSON(baseURL, false)
}

// ToAPIJSONWithDurations is ToAPIJSON but triggers lazy extraction per
// song missing a duration.
func (m *Manager) ToAPIJSONWithDurations(baseURL string) ([]byte, error) {
	return m.renderJSON(baseURL, true)
}

func (m *Manager) renderJSON(baseURL string, withDurations bool) ([]byte, error) {
	lib := m.CurrentLibrary()
	durationsReady := true

	songDuration := func(s *catalog.SongMetadata) int {
		if s.Duration >= 0 {
			return s.Duration
		}
		if withDurations {
			if d, ok := m.GetSongDuration(s.ID); ok {
				return d
			}
		}
		durationsReady = false
		return 0
	}

	snapshot := librarySnapshotJSON{LastUpdated: lib.LastUpdated}

	for _, a := range lib.Albums {
		total := 0
		for _, s := range a.Songs {
			d := songDuration(s)
			total += d
			snapshot.Songs = append(snapshot.Songs, songJSON{
				ID: s.ID, Title: s.Title, Artist: s.Artist, AlbumID: a.ID,
				Duration: d, TrackNumber: s.Track,
			})
		}
		coverArt := ""
		if a.ArtworkPath != "" {
			coverArt = baseURL + "/artwork/" + a.ID
		}
		snapshot.Albums = append(snapshot.Albums, albumJSON{
			ID: a.ID, Title: a.Title, Artist: a.Artist, CoverArt: coverArt,
			SongCount: len(a.Songs), Duration: total,
		})
	}
	for _, s := range lib.Standalone {
		d := songDuration(s)
		snapshot.Songs = append(snapshot.Songs, songJSON{
			ID: s.ID, Title: s.Title, Artist: s.Artist, Duration: d, TrackNumber: s.Track,
		})
	}
	for _, p := range lib.Playlists {
		snapshot.Playlists = append(snapshot.Playlists, playlistJSON{ID: p.ID, Name: p.Name, SongIDs: p.SongIDs})
	}

	snapshot.DurationsReady = durationsReady
	return json.Marshal(snapshot)
}

// GetAlbumDetail returns album songs with durations as a JSON document
// matching §6's album-detail shape.
func (m *Manager) GetAlbumDetail(albumID, baseURL string) ([]byte, bool, error) {
	lib := m.CurrentLibrary()
	a, ok := lib.Albums[albumID]
	if !ok {
		return nil, false, nil
	}

	type detail struct {
		ID       string     `json:"id"`
		Title    string     `json:"title"`
		Artist   string     `json:"artist"`
		Year     string     `json:"year,omitempty"`
		CoverArt string     `json:"coverArt,omitempty"`
		Songs    []songJSON `json:"songs"`
	}

	d := detail{ID: a.ID, Title: a.Title, Artist: a.Artist, Year: a.Year}
	if a.ArtworkPath != "" {
		d.CoverArt = baseURL + "/artwork/" + a.ID
	}
	for _, s := range a.Songs {
		seconds := s.Duration
		if seconds < 0 {
			seconds, _ = m.GetSongDuration(s.ID)
		}
		d.Songs = append(d.Songs, songJSON{ID: s.ID, Title: s.Title, Artist: s.Artist, AlbumID: a.ID, Duration: seconds, TrackNumber: s.Track})
	}

	data, err := json.Marshal(d)
	return data, true, err
}
