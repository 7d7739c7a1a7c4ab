package dedup

import (
	"testing"

	"github.com/picccassso/nuptune/internal/catalog"
)

func TestDedupKeepsHighestBitrate(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/low.mp3", Title: "Song", Artist: "Band", Album: "LP", Duration: 200, Bitrate: 128, SizeBytes: 1000},
		{Path: "/a/high.mp3", Title: "song", Artist: "band", Album: "lp", Duration: 200, Bitrate: 320, SizeBytes: 5000},
	}

	got := Dedup(songs)
	if len(got) != 1 {
		t.Fatalf("Dedup() returned %d songs, want 1", len(got))
	}
	if got[0].Path != "/a/high.mp3" {
		t.Errorf("winner = %q, want %q", got[0].Path, "/a/high.mp3")
	}
}

func TestDedupTieBreaksBySizeThenPath(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/z/a.mp3", Title: "Song", Artist: "Band", Album: "LP", Bitrate: 256, SizeBytes: 4000, Duration: -1},
		{Path: "/a/b.mp3", Title: "Song", Artist: "Band", Album: "LP", Bitrate: 256, SizeBytes: 4000, Duration: -1},
	}

	got := Dedup(songs)
	if len(got) != 1 {
		t.Fatalf("Dedup() returned %d songs, want 1", len(got))
	}
	if got[0].Path != "/a/b.mp3" {
		t.Errorf("winner = %q, want lexicographically smaller path %q", got[0].Path, "/a/b.mp3")
	}
}

func TestDedupSplitsOnDurationMismatch(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/radio-edit.mp3", Title: "Song", Artist: "Band", Album: "LP", Duration: 180, Bitrate: 320, SizeBytes: 1000},
		{Path: "/a/extended.mp3", Title: "Song", Artist: "Band", Album: "LP", Duration: 400, Bitrate: 320, SizeBytes: 1000},
	}

	got := Dedup(songs)
	if len(got) != 2 {
		t.Fatalf("Dedup() returned %d songs, want 2 (durations differ beyond tolerance)", len(got))
	}
}

func TestDedupLeavesDistinctSongsAlone(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{Path: "/a/one.mp3", Title: "One", Artist: "Band", Album: "LP"},
		{Path: "/a/two.mp3", Title: "Two", Artist: "Band", Album: "LP"},
	}

	got := Dedup(songs)
	if len(got) != 2 {
		t.Errorf("Dedup() returned %d songs, want 2", len(got))
	}
}
