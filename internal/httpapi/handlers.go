package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/picccassso/nuptune/internal/apperr"
	"github.com/picccassso/nuptune/internal/transcode"
	"github.com/picccassso/nuptune/internal/util"
)

// handleStream serves a song's audio bytes with Range support. The
// optional quality query selects a transcoded variant via the
// transcoding cache; omitted or "high" passes the original file
// through untouched.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	path, ok := s.lib.GetSongPath(songID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	quality := transcode.Quality(r.URL.Query().Get("quality"))
	if quality == "" {
		quality = transcode.High
	}
	if !quality.Valid() {
		http.Error(w, "invalid quality", http.StatusBadRequest)
		return
	}

	artifactPath, release, err := s.transcode.Resolve(r.Context(), path, quality)
	if err != nil {
		http.Error(w, "transcode failed", http.StatusInternalServerError)
		return
	}
	defer release()

	f, err := os.Open(artifactPath)
	if err != nil {
		util.WarnLog("stream: %s: %v", songID, fmt.Errorf("%w: %s", apperr.ErrArtifactMissing, path))
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=3600")
	s.Logger.LogStream(songID, string(quality), info.Size())
	http.ServeContent(w, r, artifactPath, info.ModTime(), f)
}

// handleAlbumArtwork serves an album's embedded cover art.
func (s *Server) handleAlbumArtwork(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")
	data, ok := s.lib.GetAlbumArtwork(albumID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	serveImage(w, data)
}

// handleSongArtwork serves a single song's embedded cover art.
func (s *Server) handleSongArtwork(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	data, ok := s.lib.GetSongArtwork(songID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	serveImage(w, data)
}

func serveImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// handleDownload serves a song's original, untranscoded bytes, for the
// client-side download scheduler to fetch.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	songID := chi.URLParam(r, "songID")
	path, ok := s.lib.GetSongPath(songID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		util.WarnLog("download: %s: %v", songID, fmt.Errorf("%w: %s", apperr.ErrArtifactMissing, path))
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "stat failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", "attachment")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	s.Logger.LogStream(songID, "original", info.Size())
	_, _ = io.Copy(w, f)
}
