package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

const (
	FakeClientID     = "test-client-id"
	FakeClientSecret = "test-client-secret"
)

// FakeSpotify is an httptest server that answers the Spotify endpoints Blendify calls.
//
// Users are keyed by access token. Authorization codes map to access tokens through [FakeSpotify.SetCode].
type FakeSpotify struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[string]models.User
	tracks    map[string][]models.Track
	codes     map[string]string
	failures  map[string]int
	playlists map[string]models.PlaylistRequest
	added     map[string][]string
	exchanges int
	requests  []string
}

// NewFakeSpotify starts a fake provider that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		users:     make(map[string]models.User),
		tracks:    make(map[string][]models.Track),
		codes:     make(map[string]string),
		failures:  make(map[string]int),
		playlists: make(map[string]models.PlaylistRequest),
		added:     make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.token)
	mux.HandleFunc("GET /v1/me", f.me)
	mux.HandleFunc("GET /v1/me/top/tracks", f.topTracks)
	mux.HandleFunc("POST /v1/users/{id}/playlists", f.createPlaylist)
	mux.HandleFunc("POST /v1/playlists/{id}/tracks", f.addTracks)

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		status, fail := f.failures[r.URL.Path]
		f.mu.Unlock()

		if fail {
			writeError(w, status, "forced failure")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns provider settings pointing at the fake.
func (f *FakeSpotify) Config() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:     FakeClientID,
		ClientSecret: FakeClientSecret,
		RedirectURI:  "http://127.0.0.1:8888/callback",
		APIURL:       f.Server.URL + "/v1",
		AuthURL:      f.Server.URL + "/authorize",
		TokenURL:     f.Server.URL + "/api/token",
	}
}

// SetUser registers an account reachable with token.
func (f *FakeSpotify) SetUser(token string, user models.User, tracks []models.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[token] = user
	f.tracks[token] = tracks
}

// SetCode makes the token endpoint trade code for token.
func (f *FakeSpotify) SetCode(code, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = token
}

// Fail makes every request to path answer with status.
func (f *FakeSpotify) Fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = status
}

// Exchanges returns how many token exchanges were attempted.
func (f *FakeSpotify) Exchanges() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges
}

// Requests returns "METHOD /path?query" for every request received.
func (f *FakeSpotify) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Playlist returns the creation request and added URIs of playlistID.
func (f *FakeSpotify) Playlist(playlistID string) (models.PlaylistRequest, []string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.playlists[playlistID]
	return req, append([]string(nil), f.added[playlistID]...), ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": msg}})
}

func (f *FakeSpotify) bearer(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, known := f.users[token]
	return token, known
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.exchanges++
	f.mu.Unlock()

	id, secret, ok := r.BasicAuth()
	if !ok || id != FakeClientID || secret != FakeClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	f.mu.Lock()
	token, ok := f.codes[r.PostForm.Get("code")]
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  token,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": "refresh-" + token,
		"scope":         "user-top-read",
	})
}

func (f *FakeSpotify) me(w http.ResponseWriter, r *http.Request) {
	token, ok := f.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	f.mu.Lock()
	user := f.users[token]
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (f *FakeSpotify) topTracks(w http.ResponseWriter, r *http.Request) {
	token, ok := f.bearer(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}
	f.mu.Lock()
	tracks := f.tracks[token]
	f.mu.Unlock()
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tracks})
}

func (f *FakeSpotify) createPlaylist(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.bearer(r); !ok {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	var req models.PlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}

	f.mu.Lock()
	id := fmt.Sprintf("pl%d", len(f.playlists)+1)
	f.playlists[id] = req
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, models.Playlist{
		ID:           id,
		Name:         req.Name,
		URI:          "spotify:playlist:" + id,
		ExternalURLs: models.ExternalURLs{Spotify: "https://open.spotify.com/playlist/" + id},
	})
}

func (f *FakeSpotify) addTracks(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.bearer(r); !ok {
		writeError(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.URIs) > 100 {
		writeError(w, http.StatusBadRequest, "bad body")
		return
	}

	id := r.PathValue("id")
	f.mu.Lock()
	_, ok := f.playlists[id]
	if ok {
		f.added[id] = append(f.added[id], body.URIs...)
	}
	f.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": "snap"})
}

// Tracks builds tracks with the given ids, each with one artist and a playable URI.
func Tracks(ids ...string) []models.Track {
	out := make([]models.Track, len(ids))
	for i, id := range ids {
		out[i] = models.Track{
			ID:         id,
			Name:       "Song " + strings.ToUpper(id),
			Artists:    []models.Artist{{ID: "artist-" + id, Name: "Artist " + strings.ToUpper(id)}},
			Album:      models.Album{ID: "album-" + id, Name: "Album " + strings.ToUpper(id)},
			DurationMS: 180000,
			URI:        "spotify:track:" + id,
		}
	}
	return out
}
