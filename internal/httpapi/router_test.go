package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/picccassso/nuptune/internal/download"
	"github.com/picccassso/nuptune/internal/library"
	"github.com/picccassso/nuptune/internal/metacache"
	"github.com/picccassso/nuptune/internal/scan"
	"github.com/picccassso/nuptune/internal/store"
	"github.com/picccassso/nuptune/internal/transcode"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	songPath := filepath.Join(root, "track.mp3")
	if err := os.WriteFile(songPath, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write song: %v", err)
	}

	cache := metacache.New(filepath.Join(t.TempDir(), "cache.json"))
	lib := library.New(cache)
	if _, err := lib.Scan(context.Background(), root, scan.Options{}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	st, err := store.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	tc := transcode.New(t.TempDir(), st, 0)
	dl := download.New(st, func(context.Context, string) (io.ReadCloser, int64, error) {
		return io.NopCloser(nil), 0, nil
	})

	return New(lib, tc, dl, "http://example.test"), songPath
}

func findSongID(t *testing.T, s *Server) string {
	t.Helper()
	lib := s.lib.CurrentLibrary()
	for _, song := range lib.Standalone {
		return song.ID
	}
	for _, a := range lib.Albums {
		for _, song := range a.Songs {
			return song.ID
		}
	}
	t.Fatal("no songs found in test library")
	return ""
}

func TestHandleStreamServesOriginalFileAtHighQuality(t *testing.T) {
	s, songPath := newTestServer(t)
	songID := findSongID(t, s)

	req := httptest.NewRequest(http.MethodGet, "/stream/"+songID, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want, _ := os.ReadFile(songPath)
	if rec.Body.String() != string(want) {
		t.Errorf("body mismatch: got %q want %q", rec.Body.String(), want)
	}
}

func TestHandleStreamUnknownSongReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/stream/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleAPILibraryReturnsJSONWithLastUpdated(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := body["lastUpdated"]; !ok {
		t.Error(`response missing "lastUpdated"`)
	}
	if _, ok := body["durationsReady"]; !ok {
		t.Error(`response missing "durationsReady"`)
	}
}

func TestHandleAPIAlbumUnknownReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/album/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
