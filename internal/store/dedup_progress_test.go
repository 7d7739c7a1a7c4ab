package store

import (
	"testing"

	"github.com/picccassso/nuptune/internal/dedup"
)

func TestDedupProgressLifecycle(t *testing.T) {
	s := openTestStore(t)

	if cp, err := s.GetDedupProgress(); err != nil || cp != nil {
		t.Fatalf("GetDedupProgress() on empty store = %+v, %v, want nil, nil", cp, err)
	}

	want := dedup.Checkpoint{TotalSongs: 10, ProcessedSongs: 5, GroupsJSON: `{"order":[],"groups":{}}`}
	if err := s.SaveDedupProgress(want); err != nil {
		t.Fatalf("SaveDedupProgress() error = %v", err)
	}

	got, err := s.GetDedupProgress()
	if err != nil {
		t.Fatalf("GetDedupProgress() error = %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("GetDedupProgress() = %+v, want %+v", got, want)
	}

	want.ProcessedSongs = 9
	if err := s.SaveDedupProgress(want); err != nil {
		t.Fatalf("SaveDedupProgress() update error = %v", err)
	}
	got, err = s.GetDedupProgress()
	if err != nil {
		t.Fatalf("GetDedupProgress() after update error = %v", err)
	}
	if got == nil || got.ProcessedSongs != 9 {
		t.Errorf("GetDedupProgress() after update = %+v, want ProcessedSongs 9", got)
	}

	if err := s.ClearDedupProgress(); err != nil {
		t.Fatalf("ClearDedupProgress() error = %v", err)
	}
	if cp, err := s.GetDedupProgress(); err != nil || cp != nil {
		t.Errorf("GetDedupProgress() after clear = %+v, %v, want nil, nil", cp, err)
	}
}
