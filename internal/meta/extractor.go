// Package meta extracts SongMetadata from a single audio file: tag
// container parsing via dhowden/tag, duration/bitrate recovery for MP3 via
// the pure-bytes mpegaudio parser (and, optionally, ffprobe for other
// containers dhowden/tag leaves blank), filename/path fallback when tags
// are missing, and light cleanup of messy tag text.
package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/catalog"
	"github.com/picccassso/nuptune/internal/mpegaudio"
	"github.com/picccassso/nuptune/internal/util"
)

// Options tunes extraction behavior.
type Options struct {
	// Strict, when true, makes tag-read failures return an error instead
	// of a soft-fail minimal record (spec.md 4.B: "fails with
	// ExtractionError only propagates when caller explicitly requests
	// strict mode").
	Strict bool
	// UseFFprobe enables shelling out to ffprobe for duration/bitrate on
	// containers the pure-bytes parser doesn't cover (anything but MP3).
	// Off by default since it's an optional external dependency.
	UseFFprobe bool
}

// ErrExtraction is returned by Extract in strict mode when tag reading
// fails outright.
var ErrExtraction = apperr.ErrExtractionFailed

// Extract reads path and returns its SongMetadata. On a tag-read failure
// with Strict unset, it falls back to filename/path heuristics and still
// returns a minimal, non-nil record.
func Extract(path string, opts Options) (*catalog.SongMetadata, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("meta: stat %s: %w", path, err)
	}

	m := &catalog.SongMetadata{
		ID:        catalog.SongID(absPath),
		Path:      absPath,
		Duration:  -1,
		SizeBytes: stat.Size(),
		ModTimeMs: stat.ModTime().UnixMilli(),
	}

	if tagErr := extractWithTag(path, m); tagErr != nil {
		if opts.Strict {
			return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, path, tagErr)
		}
		util.DebugLog("tag read failed for %s, falling back to filename heuristics: %v", path, tagErr)
	}
	EnrichMetadata(m, path)

	extractDuration(path, m, opts)

	ApplyPatternCleaning(m, path)

	return m, nil
}

// extractWithTag populates m from the file's tag container using
// dhowden/tag, which covers ID3v1/v2, FLAC, MP4/M4A, OGG/Vorbis, and
// APEv2.
func extractWithTag(path string, m *catalog.SongMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	md, err := tag.ReadFrom(f)
	if err != nil {
		return err
	}

	m.Title = md.Title()
	m.Artist = md.Artist()
	m.AlbumArtist = md.AlbumArtist()
	m.Album = md.Album()
	if y := md.Year(); y != 0 {
		m.Year = strconv.Itoa(y)
	}
	m.Genre = md.Genre()
	m.Comment = md.Comment()

	track, _ := md.Track()
	m.Track = track
	disc, _ := md.Disc()
	m.Disc = disc

	if pic := md.Picture(); pic != nil && len(pic.Data) > 0 {
		m.HasArtwork = true
	}

	return nil
}

// extractDuration fills in Duration/Bitrate. MP3s use the pure-bytes
// mpegaudio parser from 4.A; everything else falls back to ffprobe when
// enabled, and is left "unknown" (-1) otherwise — dhowden/tag itself never
// reports duration.
func extractDuration(path string, m *catalog.SongMetadata, opts Options) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".mp3" {
		info, err := mpegaudio.AnalyzeFile(path)
		if err != nil {
			util.DebugLog("mp3 duration parse failed for %s: %v", path, err)
			return
		}
		m.Duration = info.DurationMs / 1000
		m.Bitrate = info.BitrateKbps
		return
	}

	if !opts.UseFFprobe || !CheckFFprobeAvailable() {
		return
	}
	info, err := RunFFprobe(path)
	if err != nil || info.Format == nil {
		return
	}
	if d, err := strconv.ParseFloat(info.Format.Duration, 64); err == nil && d > 0 {
		m.Duration = int(d)
	}
	if br, err := strconv.Atoi(info.Format.BitRate); err == nil && br > 0 {
		m.Bitrate = br / 1000
	}
}
