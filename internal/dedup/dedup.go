// Package dedup implements the duplicate detector (4.E): songs are
// grouped by a lowercased, trimmed (title, artist, album) key with a
// duration tolerance, and each group is collapsed to a single winner.
// The equivalence grouping and winner tie-break are grounded in the
// teacher's clustering/scoring pipeline, adapted from a multi-stage
// SQLite clustering pass into a single in-memory pass over already
// extracted SongMetadata.
package dedup

import (
	"sort"
	"strings"

	"github.com/picccassso/nuptune/internal/catalog"
)

// durationToleranceSec is the maximum absolute difference in known
// durations for two songs to still be considered equivalent.
const durationToleranceSec = 2

// Dedup groups equivalent songs and keeps one winner per group. Equivalence
// is lowercased trimmed (title, artist, album) plus a duration check: when
// both durations are known they must be within durationToleranceSec of
// each other; when either is unknown, duration is not a disqualifier.
//
// Dedup is idempotent: Dedup(Dedup(xs)) == Dedup(xs), since every
// equivalence class in the output is already a singleton.
func Dedup(songs []*catalog.SongMetadata) []*catalog.SongMetadata {
	groups := make(map[string][]*catalog.SongMetadata)
	var order []string

	for _, s := range songs {
		key := titleArtistAlbumKey(s)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	result := make([]*catalog.SongMetadata, 0, len(order))
	for _, key := range order {
		for _, cluster := range splitByDuration(groups[key]) {
			result = append(result, chooseWinner(cluster))
		}
	}
	return result
}

// titleArtistAlbumKey is the lowercased, trimmed (title, artist, album)
// part of the equivalence relation.
func titleArtistAlbumKey(s *catalog.SongMetadata) string {
	title := strings.ToLower(strings.TrimSpace(s.Title))
	artist := strings.ToLower(strings.TrimSpace(s.Artist))
	album := strings.ToLower(strings.TrimSpace(s.Album))
	return title + "\x00" + artist + "\x00" + album
}

// splitByDuration further partitions a same-key bucket so that members
// whose known durations differ by more than durationToleranceSec end up
// in separate clusters. A song with an unknown duration (-1) joins the
// first cluster it's compared against, since an unknown duration never
// disqualifies a match.
func splitByDuration(songs []*catalog.SongMetadata) [][]*catalog.SongMetadata {
	var clusters [][]*catalog.SongMetadata
	for _, s := range songs {
		placed := false
		for i, cluster := range clusters {
			if durationsCompatible(s, cluster[0]) {
				clusters[i] = append(cluster, s)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []*catalog.SongMetadata{s})
		}
	}
	return clusters
}

func durationsCompatible(a, b *catalog.SongMetadata) bool {
	if a.Duration < 0 || b.Duration < 0 {
		return true
	}
	diff := a.Duration - b.Duration
	if diff < 0 {
		diff = -diff
	}
	return diff <= durationToleranceSec
}

// chooseWinner picks the best song from an equivalence class: highest
// bitrate, tie-break by larger file size, tie-break by lexicographically
// smaller path. Grounded in the teacher's selectWinner (score/scorer.go),
// whose tie-break order (score, then size, then path) this mirrors with
// spec.md's pinned fields (bitrate instead of a composite quality score).
func chooseWinner(group []*catalog.SongMetadata) *catalog.SongMetadata {
	winner := group[0]
	for _, candidate := range group[1:] {
		if candidate.Bitrate != winner.Bitrate {
			if candidate.Bitrate > winner.Bitrate {
				winner = candidate
			}
			continue
		}
		if candidate.SizeBytes != winner.SizeBytes {
			if candidate.SizeBytes > winner.SizeBytes {
				winner = candidate
			}
			continue
		}
		if candidate.Path < winner.Path {
			winner = candidate
		}
	}
	return winner
}

// SortStable is a helper for deterministic test/log output: it orders
// songs by path.
func SortStable(songs []*catalog.SongMetadata) {
	sort.Slice(songs, func(i, j int) bool { return songs[i].Path < songs[j].Path })
}
