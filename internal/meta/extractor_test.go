package meta

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractFallsBackToFilenameOnUntaggedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "05 - Test Artist - A Great Song.mp3")
	if err := os.WriteFile(path, []byte("not a real mp3"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	m, err := Extract(path, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if m.Title != "A Great Song" {
		t.Errorf("Title = %q, want %q", m.Title, "A Great Song")
	}
	if m.Artist != "Test Artist" {
		t.Errorf("Artist = %q, want %q", m.Artist, "Test Artist")
	}
	if m.Track != 5 {
		t.Errorf("Track = %d, want 5", m.Track)
	}
	if m.Duration != -1 {
		t.Errorf("Duration = %d, want -1 (unknown)", m.Duration)
	}
}

func TestExtractStrictModeFailsOnUnreadableTags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	if _, err := Extract(path, Options{Strict: true}); err == nil {
		t.Errorf("expected strict-mode extraction to fail on unreadable tags")
	}
}

func TestExtractIDIsStableForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "song.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	m1, err := Extract(path, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	m2, err := Extract(path, Options{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if m1.ID != m2.ID {
		t.Errorf("ID not stable across calls: %q vs %q", m1.ID, m2.ID)
	}
}
