package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/picccassso/nuptune/internal/catalog"
)

// chunkSize bounds how many songs are folded into the in-memory grouping
// map between progress checkpoints.
const chunkSize = 500

// ProgressStore is the subset of store.Store a resumable dedup pass
// needs. Satisfied by *store.Store; narrowed here so this package does
// not import internal/store.
type ProgressStore interface {
	GetDedupProgress() (*Checkpoint, error)
	SaveDedupProgress(Checkpoint) error
	ClearDedupProgress() error
}

// Checkpoint is the saved state of an interrupted pass. It lives here so
// internal/store can persist it (store.Store satisfies ProgressStore)
// without this package depending on internal/store.
type Checkpoint struct {
	TotalSongs     int
	ProcessedSongs int
	GroupsJSON     string
}

// groupState is the JSON payload persisted inside Checkpoint.GroupsJSON:
// the equivalence groups built so far, keyed the same way Dedup groups
// them, recording member paths in encounter order.
type groupState struct {
	Order  []string            `json:"order"`
	Groups map[string][]string `json:"groups"`
}

// DedupResumable behaves like Dedup, but checkpoints its grouping pass
// to store every chunkSize songs so a crash partway through a very
// large library's duplicate detection can resume from the last
// checkpoint instead of re-grouping every song from scratch. Songs are
// processed in a path-sorted order so a checkpoint's ProcessedSongs
// index is stable across runs of the same song set.
//
// store may be nil, in which case this degrades to a plain non-resumable
// Dedup pass with no persistence overhead.
func DedupResumable(ctx context.Context, songs []*catalog.SongMetadata, store ProgressStore) ([]*catalog.SongMetadata, error) {
	if store == nil {
		return Dedup(songs), nil
	}

	sorted := make([]*catalog.SongMetadata, len(songs))
	copy(sorted, songs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	byPath := make(map[string]*catalog.SongMetadata, len(sorted))
	for _, s := range sorted {
		byPath[s.Path] = s
	}

	state := groupState{Groups: make(map[string][]string)}
	startAt := 0

	if cp, err := store.GetDedupProgress(); err == nil && cp != nil && cp.TotalSongs == len(sorted) {
		if err := json.Unmarshal([]byte(cp.GroupsJSON), &state); err == nil {
			startAt = cp.ProcessedSongs
		}
	}

	for i := startAt; i < len(sorted); i++ {
		if ctx.Err() != nil {
			if err := checkpoint(store, len(sorted), i, state); err != nil {
				return nil, fmt.Errorf("dedup: checkpoint after cancellation: %w", err)
			}
			return nil, ctx.Err()
		}

		key := titleArtistAlbumKey(sorted[i])
		if _, ok := state.Groups[key]; !ok {
			state.Order = append(state.Order, key)
		}
		state.Groups[key] = append(state.Groups[key], sorted[i].Path)

		if (i+1)%chunkSize == 0 {
			if err := checkpoint(store, len(sorted), i+1, state); err != nil {
				return nil, fmt.Errorf("dedup: checkpoint: %w", err)
			}
		}
	}

	result := make([]*catalog.SongMetadata, 0, len(state.Order))
	for _, key := range state.Order {
		members := make([]*catalog.SongMetadata, 0, len(state.Groups[key]))
		for _, path := range state.Groups[key] {
			if s, ok := byPath[path]; ok {
				members = append(members, s)
			}
		}
		for _, cluster := range splitByDuration(members) {
			result = append(result, chooseWinner(cluster))
		}
	}

	if err := store.ClearDedupProgress(); err != nil {
		return nil, fmt.Errorf("dedup: clear checkpoint: %w", err)
	}
	return result, nil
}

func checkpoint(store ProgressStore, total, processed int, state groupState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return store.SaveDedupProgress(Checkpoint{
		TotalSongs:     total,
		ProcessedSongs: processed,
		GroupsJSON:     string(data),
	})
}
