// Package httpapi wires the streaming/artwork HTTP contract (4.L): the
// library manager, transcoding cache, and download scheduler exposed as
// a chi-routed HTTP server.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/picccassso/nuptune/internal/download"
	"github.com/picccassso/nuptune/internal/library"
	"github.com/picccassso/nuptune/internal/report"
	"github.com/picccassso/nuptune/internal/transcode"
)

// Server holds everything the HTTP layer needs to serve requests.
type Server struct {
	lib       *library.Manager
	transcode *transcode.Cache
	downloads *download.Scheduler
	baseURL   string

	// Logger receives a LogStream event per streamed/downloaded song.
	// Nil by default; set directly after New.
	Logger *report.EventLogger
}

// New returns a Server. baseURL is prefixed onto artwork URLs embedded
// in JSON responses (e.g. "http://host:port").
func New(lib *library.Manager, tc *transcode.Cache, dl *download.Scheduler, baseURL string) *Server {
	return &Server{lib: lib, transcode: tc, downloads: dl, baseURL: baseURL}
}

// Router builds the chi router exposing 4.L's contract.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", handleHealthz)

	r.Get("/stream/{songID}", s.handleStream)
	r.Get("/artwork/{albumID}", s.handleAlbumArtwork)
	r.Get("/song-artwork/{songID}", s.handleSongArtwork)
	r.Get("/download/{songID}", s.handleDownload)

	r.Get("/api/library", s.handleAPILibrary)
	r.Get("/api/album/{albumID}", s.handleAPIAlbum)
	r.Get("/api/playlists", s.handleAPIPlaylists)

	return r
}
