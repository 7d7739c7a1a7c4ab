// Package scan implements the file scanner (4.D): a two-pass recursive
// walk of the music folder that finds playlist-marked directories first,
// then collects audio files and assigns each to the deepest
// non-nested playlist folder that contains it.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/picccassso/nuptune/internal/catalog"
)

// SupportedExtensions is the set of file extensions the scanner treats as
// audio.
var SupportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".aac":  true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".aiff": true,
}

// WalkResult is the output of Walk: every audio file path found, plus the
// playlist directories discovered and the files assigned to each.
type WalkResult struct {
	AudioPaths []string
	Playlists  []*catalog.FolderPlaylist
	// PlaylistOf maps an audio path to the playlist ID it belongs to, if
	// any.
	PlaylistOf map[string]string
}

// Walk performs the two-pass scan rooted at dir. Symlinks are never
// followed.
func Walk(root string) (*WalkResult, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	// Pass 1: find playlist directories, skipping any nested inside an
	// already-registered playlist directory.
	var playlistDirs []string
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort: skip unreadable entries
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && isNestedInAny(path, playlistDirs) {
			return filepath.SkipDir
		}
		if strings.Contains(d.Name(), catalog.FolderPlaylistMarker) {
			playlistDirs = append(playlistDirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(playlistDirs)

	playlists := make([]*catalog.FolderPlaylist, 0, len(playlistDirs))
	playlistByDir := make(map[string]*catalog.FolderPlaylist, len(playlistDirs))
	for _, dir := range playlistDirs {
		name := strings.TrimSpace(strings.ReplaceAll(filepath.Base(dir), catalog.FolderPlaylistMarker, ""))
		p := &catalog.FolderPlaylist{
			ID:   catalog.FolderPlaylistID(dir),
			Name: name,
			Path: dir,
		}
		playlists = append(playlists, p)
		playlistByDir[dir] = p
	}

	// Pass 2: collect audio files, assigning each to the playlist whose
	// directory prefixes its path (non-nesting means at most one match).
	res := &WalkResult{PlaylistOf: make(map[string]string)}
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !SupportedExtensions[ext] {
			return nil
		}
		res.AudioPaths = append(res.AudioPaths, path)
		if pl := playlistFor(path, playlistDirs, playlistByDir); pl != nil {
			pl.SongIDs = append(pl.SongIDs, catalog.SongID(path))
			res.PlaylistOf[path] = pl.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Playlists = playlists
	return res, nil
}

func isNestedInAny(path string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func playlistFor(path string, dirs []string, byDir map[string]*catalog.FolderPlaylist) *catalog.FolderPlaylist {
	dir := filepath.Dir(path)
	for _, d := range dirs {
		if dir == d || strings.HasPrefix(dir, d+string(filepath.Separator)) {
			return byDir[d]
		}
	}
	return nil
}
