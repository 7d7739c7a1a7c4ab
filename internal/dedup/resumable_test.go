package dedup

import (
	"context"
	"sort"
	"testing"

	"github.com/picccassso/nuptune/internal/catalog"
)

// memStore is a minimal in-memory ProgressStore for exercising
// DedupResumable without a real database.
type memStore struct {
	saved   *Checkpoint
	cleared bool
}

func (m *memStore) GetDedupProgress() (*Checkpoint, error) {
	return m.saved, nil
}

func (m *memStore) SaveDedupProgress(cp Checkpoint) error {
	m.saved = &cp
	m.cleared = false
	return nil
}

func (m *memStore) ClearDedupProgress() error {
	m.saved = nil
	m.cleared = true
	return nil
}

func samePaths(t *testing.T, got []*catalog.SongMetadata, want []string) {
	t.Helper()
	gotPaths := make([]string, len(got))
	for i, s := range got {
		gotPaths[i] = s.Path
	}
	sort.Strings(gotPaths)
	sort.Strings(want)
	if len(gotPaths) != len(want) {
		t.Fatalf("got %d songs %v, want %d %v", len(gotPaths), gotPaths, len(want), want)
	}
	for i := range gotPaths {
		if gotPaths[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, gotPaths[i], want[i])
		}
	}
}

func TestDedupResumableNilStoreMatchesDedup(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/low.mp3", Title: "Song", Artist: "Band", Album: "LP", Duration: 200, Bitrate: 128, SizeBytes: 1000},
		{Path: "/a/high.mp3", Title: "song", Artist: "band", Album: "lp", Duration: 200, Bitrate: 320, SizeBytes: 5000},
	}

	got, err := DedupResumable(context.Background(), songs, nil)
	if err != nil {
		t.Fatalf("DedupResumable() error = %v", err)
	}
	samePaths(t, got, []string{"/a/high.mp3"})
}

func TestDedupResumableClearsCheckpointOnCompletion(t *testing.T) {
	store := &memStore{}
	songs := []*catalog.SongMetadata{
		{Path: "/a/one.mp3", Title: "One", Artist: "Band", Album: "LP"},
		{Path: "/a/two.mp3", Title: "Two", Artist: "Band", Album: "LP"},
	}

	got, err := DedupResumable(context.Background(), songs, store)
	if err != nil {
		t.Fatalf("DedupResumable() error = %v", err)
	}
	samePaths(t, got, []string{"/a/one.mp3", "/a/two.mp3"})

	if store.saved != nil {
		t.Errorf("checkpoint not cleared after completion: %+v", store.saved)
	}
	if !store.cleared {
		t.Error("ClearDedupProgress was never called")
	}
}

func TestDedupResumableResumesFromCheckpoint(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/alpha.mp3", Title: "Alpha", Artist: "Band", Album: "LP"},
		{Path: "/a/beta.mp3", Title: "Beta", Artist: "Band", Album: "LP"},
		{Path: "/a/gamma.mp3", Title: "Gamma", Artist: "Band", Album: "LP"},
	}

	store := &memStore{saved: &Checkpoint{
		TotalSongs:     3,
		ProcessedSongs: 2,
		GroupsJSON:     `{"order":["alpha|band|lp","beta|band|lp"],"groups":{"alpha|band|lp":["/a/alpha.mp3"],"beta|band|lp":["/a/beta.mp3"]}}`,
	}}

	got, err := DedupResumable(context.Background(), songs, store)
	if err != nil {
		t.Fatalf("DedupResumable() error = %v", err)
	}
	samePaths(t, got, []string{"/a/alpha.mp3", "/a/beta.mp3", "/a/gamma.mp3"})

	if store.saved != nil {
		t.Errorf("checkpoint not cleared after completion: %+v", store.saved)
	}
}

func TestDedupResumableMismatchedTotalIgnoresStaleCheckpoint(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/one.mp3", Title: "One", Artist: "Band", Album: "LP"},
		{Path: "/a/two.mp3", Title: "Two", Artist: "Band", Album: "LP"},
	}

	// Stale checkpoint from a differently-sized library; must be ignored
	// rather than applied against the wrong song set.
	store := &memStore{saved: &Checkpoint{
		TotalSongs:     99,
		ProcessedSongs: 50,
		GroupsJSON:     `{"order":[],"groups":{}}`,
	}}

	got, err := DedupResumable(context.Background(), songs, store)
	if err != nil {
		t.Fatalf("DedupResumable() error = %v", err)
	}
	samePaths(t, got, []string{"/a/one.mp3", "/a/two.mp3"})
}
