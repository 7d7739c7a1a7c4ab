// Package album implements the album builder (4.F): songs sharing an
// album key are grouped into an Album; groups with fewer than two
// members are demoted to standalone songs instead of becoming
// single-song albums.
package album

import (
	"strings"

	"github.com/picccassso/nuptune/internal/catalog"
)

// Build groups songs into albums and standalone entries. A group is only
// promoted to an Album when it has two or more members; everything else
// is returned as standalone. Songs with no album tag never group with
// each other, even when they share an artist, and go straight to
// standalone (4.F).
func Build(songs []*catalog.SongMetadata) (albums map[string]*catalog.Album, standalone map[string]*catalog.SongMetadata) {
	groups := make(map[string][]*catalog.SongMetadata)
	var order []string

	albums = make(map[string]*catalog.Album)
	standalone = make(map[string]*catalog.SongMetadata)

	for _, s := range songs {
		if strings.TrimSpace(s.Album) == "" {
			standalone[s.ID] = s
			continue
		}
		key := catalog.AlbumKey(s.Album, s.AlbumArtist, s.Artist)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], s)
	}

	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			for _, s := range members {
				standalone[s.ID] = s
			}
			continue
		}

		catalog.SortSongs(members)
		a := &catalog.Album{
			ID:          catalog.AlbumID(key),
			Title:       members[0].Album,
			Artist:      albumArtist(members[0]),
			Year:        earliestYear(members),
			Songs:       members,
			ArtworkPath: firstArtworkPath(members),
		}
		albums[a.ID] = a
	}

	return albums, standalone
}

func albumArtist(s *catalog.SongMetadata) string {
	if s.AlbumArtist != "" {
		return s.AlbumArtist
	}
	if s.Artist != "" {
		return s.Artist
	}
	return "Unknown Artist"
}

// earliestYear returns the smallest non-empty Year string among members,
// comparing lexicographically (years are 4-digit strings so this matches
// numeric ordering).
func earliestYear(members []*catalog.SongMetadata) string {
	year := ""
	for _, s := range members {
		if s.Year == "" {
			continue
		}
		if year == "" || s.Year < year {
			year = s.Year
		}
	}
	return year
}

// firstArtworkPath returns the path of the first member flagged as having
// embedded artwork, so the library manager has something to decode
// lazily when serving album art.
func firstArtworkPath(members []*catalog.SongMetadata) string {
	for _, s := range members {
		if s.HasArtwork {
			return s.Path
		}
	}
	return ""
}
