package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleAPILibrary serves the full library snapshot. A durations=1 query
// parameter triggers lazy duration extraction for any song missing one;
// otherwise the response reflects only already-known durations.
func (s *Server) handleAPILibrary(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var err error
	if r.URL.Query().Get("durations") == "1" {
		data, err = s.lib.ToAPIJSONWithDurations(s.baseURL)
	} else {
		data, err = s.lib.ToAPIJSON(s.baseURL)
	}
	if err != nil {
		http.Error(w, "rendering library failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

// handleAPIAlbum serves one album's detail view.
func (s *Server) handleAPIAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")
	data, found, err := s.lib.GetAlbumDetail(albumID, s.baseURL)
	if err != nil {
		http.Error(w, "rendering album failed", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, data)
}

// handleAPIPlaylists serves the folder playlists discovered by the
// scanner, pulled straight out of the same snapshot the library
// endpoint renders.
func (s *Server) handleAPIPlaylists(w http.ResponseWriter, r *http.Request) {
	lib := s.lib.CurrentLibrary()

	type playlistJSON struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		SongIDs []string `json:"songIds"`
	}
	resp := struct {
		Playlists   []playlistJSON `json:"playlists"`
		LastUpdated string         `json:"lastUpdated"`
	}{LastUpdated: lib.LastUpdated}

	for _, p := range lib.Playlists {
		resp.Playlists = append(resp.Playlists, playlistJSON{ID: p.ID, Name: p.Name, SongIDs: p.SongIDs})
	}

	data, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "rendering playlists failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, data)
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleHealthz is the liveness endpoint the CLI's status/stop commands
// probe to find a running server.
func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
