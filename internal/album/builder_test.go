package album

import (
	"testing"

	"github.com/picccassso/nuptune/internal/catalog"
)

func TestBuildGroupsMultiSongAlbum(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{ID: "1", Path: "/a/1.mp3", Album: "Great LP", Artist: "Band", Track: 2, Year: "2021"},
		{ID: "2", Path: "/a/2.mp3", Album: "Great LP", Artist: "Band", Track: 1, Year: "2020"},
	}

	albums, standalone := Build(songs)
	if len(albums) != 1 {
		t.Fatalf("albums = %d, want 1", len(albums))
	}
	if len(standalone) != 0 {
		t.Fatalf("standalone = %d, want 0", len(standalone))
	}
	for _, a := range albums {
		if a.Songs[0].Track != 1 {
			t.Errorf("Songs[0].Track = %d, want 1 (sorted)", a.Songs[0].Track)
		}
		if a.Year != "2020" {
			t.Errorf("Year = %q, want earliest %q", a.Year, "2020")
		}
	}
}

func TestBuildDemotesSingleSongGroupToStandalone(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{ID: "1", Path: "/a/1.mp3", Album: "Lone Track Album", Artist: "Solo"},
	}

	albums, standalone := Build(songs)
	if len(albums) != 0 {
		t.Errorf("albums = %d, want 0", len(albums))
	}
	if len(standalone) != 1 {
		t.Errorf("standalone = %d, want 1", len(standalone))
	}
}

func TestBuildSendsEmptyAlbumSongsToStandaloneNeverGrouped(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{ID: "1", Path: "/a/1.mp3", Album: "", Artist: "Same Band"},
		{ID: "2", Path: "/a/2.mp3", Album: "", Artist: "Same Band"},
		{ID: "3", Path: "/a/3.mp3", Album: "  ", Artist: "Same Band"},
	}

	albums, standalone := Build(songs)
	if len(albums) != 0 {
		t.Errorf("albums = %d, want 0 (no album tag never groups, even sharing an artist)", len(albums))
	}
	if len(standalone) != 3 {
		t.Errorf("standalone = %d, want 3", len(standalone))
	}
}

func TestBuildUsesAlbumArtistOverArtistForGrouping(t *testing.T) {
	songs := []*catalog.SongMetadata{
		{ID: "1", Path: "/a/1.mp3", Album: "Compilation", AlbumArtist: "Various Artists", Artist: "Artist A"},
		{ID: "2", Path: "/a/2.mp3", Album: "Compilation", AlbumArtist: "Various Artists", Artist: "Artist B"},
	}

	albums, _ := Build(songs)
	if len(albums) != 1 {
		t.Fatalf("albums = %d, want 1", len(albums))
	}
	for _, a := range albums {
		if a.Artist != "Various Artists" {
			t.Errorf("Artist = %q, want %q", a.Artist, "Various Artists")
		}
	}
}
