// Package catalog defines the core data model shared by the scanner,
// duplicate detector, album builder, library manager, and change
// processor: songs, albums, the in-memory library structure, folder
// playlists, and file-system change deltas.
package catalog

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// SongMetadata describes one audio file on disk.
type SongMetadata struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	AlbumArtist string `json:"albumArtist,omitempty"`
	Album       string `json:"album,omitempty"`
	Year        string `json:"year,omitempty"`
	Track       int    `json:"track,omitempty"`
	Disc        int    `json:"disc,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Comment     string `json:"comment,omitempty"`
	// Duration is in whole seconds; -1 means unknown (0 is a valid but
	// unusual duration, so it is not overloaded as "unset").
	Duration   int    `json:"duration"`
	Bitrate    int    `json:"bitrate,omitempty"`
	HasArtwork bool   `json:"hasArtwork,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
	ModTimeMs  int64  `json:"modTimeMs"`
}

// SongID computes the stable song identity: the first 12 hex characters of
// MD5(absolute file path).
func SongID(absPath string) string {
	sum := md5.Sum([]byte(absPath))
	return hex.EncodeToString(sum[:])[:12]
}

// AlbumKey builds the album grouping key: lower(trim(album)) + "|||" +
// lower(trim(album_artist ?? artist ?? "Unknown Artist")).
func AlbumKey(album, albumArtist, artist string) string {
	a := strings.ToLower(strings.TrimSpace(album))
	owner := albumArtist
	if strings.TrimSpace(owner) == "" {
		owner = artist
	}
	if strings.TrimSpace(owner) == "" {
		owner = "Unknown Artist"
	}
	owner = strings.ToLower(strings.TrimSpace(owner))
	return a + "|||" + owner
}

// AlbumID computes an album's stable identity: the first 12 hex characters
// of MD5(album key).
func AlbumID(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

// Album is a group of two or more songs sharing an album key.
type Album struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Artist      string          `json:"artist"`
	Year        string          `json:"year,omitempty"`
	Songs       []*SongMetadata `json:"songs"`
	ArtworkPath string          `json:"-"`
}

// Valid reports whether the album has enough members to appear in public
// views (the isValid rule from the album builder).
func (a *Album) Valid() bool {
	return len(a.Songs) >= 2
}

// SortSongs orders songs by (disc#, track#, title), defaulting missing
// disc numbers to 1 and missing track numbers to 9999.
func SortSongs(songs []*SongMetadata) {
	sort.SliceStable(songs, func(i, j int) bool {
		di, dj := discOrDefault(songs[i]), discOrDefault(songs[j])
		if di != dj {
			return di < dj
		}
		ti, tj := trackOrDefault(songs[i]), trackOrDefault(songs[j])
		if ti != tj {
			return ti < tj
		}
		return songs[i].Title < songs[j].Title
	})
}

func discOrDefault(s *SongMetadata) int {
	if s.Disc <= 0 {
		return 1
	}
	return s.Disc
}

func trackOrDefault(s *SongMetadata) int {
	if s.Track <= 0 {
		return 9999
	}
	return s.Track
}

// FolderPlaylistMarker is the substring that marks a directory as a
// playlist folder.
const FolderPlaylistMarker = "[PLAYLIST]"

// FolderPlaylistID computes a playlist's stable identity: the full,
// untruncated MD5 hex digest of its absolute folder path. Unlike SongID
// and AlbumID this is not truncated, since folder paths collide far less
// than tag text and the full digest costs nothing extra here.
func FolderPlaylistID(absPath string) string {
	sum := md5.Sum([]byte(absPath))
	return hex.EncodeToString(sum[:])
}

// FolderPlaylist is a folder-derived playlist: the folder's display name
// (marker stripped) plus the ordered song IDs discovered inside it.
type FolderPlaylist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"-"`
	SongIDs  []string `json:"songIds"`
}

// Library is the full in-memory catalogue snapshot owned by the library
// manager. Every song appears in exactly one of Albums or Standalone.
type Library struct {
	Albums      map[string]*Album          `json:"-"`
	Standalone  map[string]*SongMetadata   `json:"-"`
	Playlists   []*FolderPlaylist          `json:"-"`
	LastUpdated string                     `json:"-"`
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{
		Albums:     make(map[string]*Album),
		Standalone: make(map[string]*SongMetadata),
	}
}

// AllSongs returns every song in the library, album members and
// standalone songs alike, in no particular order.
func (l *Library) AllSongs() []*SongMetadata {
	songs := make([]*SongMetadata, 0, len(l.Standalone))
	for _, s := range l.Standalone {
		songs = append(songs, s)
	}
	for _, a := range l.Albums {
		songs = append(songs, a.Songs...)
	}
	return songs
}

// FindSongByPath does a linear search over the library for a song whose
// Path matches. Callers needing repeated lookups should build their own
// index (see the change processor's reverse index).
func (l *Library) FindSongByPath(path string) *SongMetadata {
	for _, s := range l.Standalone {
		if s.Path == path {
			return s
		}
	}
	for _, a := range l.Albums {
		for _, s := range a.Songs {
			if s.Path == path {
				return s
			}
		}
	}
	return nil
}

// ChangeKind enumerates the kinds of file-system change the change
// processor consumes.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
	Renamed
)

// FileChange is one file-system event destined for the change processor.
type FileChange struct {
	Kind    ChangeKind
	Path    string
	OldPath string // only set when Kind == Renamed
	AtUnix  int64
}

// LibraryUpdate is the delta the change processor produces from a batch of
// FileChanges: disjoint sets of affected song/album IDs.
type LibraryUpdate struct {
	AddedSongIDs    []string
	RemovedSongIDs  []string
	ModifiedSongIDs []string
	AffectedAlbums  []string
	AtUnix          int64
}
