package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	tu "github.com/desertthunder/blendify/internal/testing"
)

func newTestService(t *testing.T, fake *tu.FakeSpotify) *SpotifyService {
	t.Helper()

	up := shared.DefaultConfig().Upstream
	up.RateLimit = 0
	srv, err := NewSpotifyService(SpotifyOpts{Credentials: fake.Config(), Upstream: up})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewSpotifyService(SpotifyOpts{Credentials: shared.SpotifyConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
				RedirectURI:  "http://127.0.0.1:8888/callback",
			}})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.apiURL != spotifyBaseURL {
				t.Errorf("expected default API URL, got %s", srv.apiURL)
			}
			if srv.topLimit != 15 || srv.timeRange != "medium_term" {
				t.Errorf("unexpected top track defaults: %d %s", srv.topLimit, srv.timeRange)
			}
		})

		tt := []struct {
			name  string
			creds shared.SpotifyConfig
		}{
			{name: "Missing Client ID", creds: shared.SpotifyConfig{ClientSecret: "s"}},
			{name: "Missing Client Secret", creds: shared.SpotifyConfig{ClientID: "c"}},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewSpotifyService(SpotifyOpts{Credentials: tc.creds})
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(SpotifyOpts{Credentials: shared.SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
			RedirectURI:  "http://127.0.0.1:8888/callback",
		}})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		u, err := url.Parse(srv.AuthURL("abc--xyz123"))
		if err != nil {
			t.Fatalf("auth URL does not parse: %v", err)
		}
		if u.Host != "accounts.spotify.com" {
			t.Errorf("auth URL should point at Spotify, got %s", u.Host)
		}

		q := u.Query()
		want := map[string]string{
			"response_type": "code",
			"client_id":     "test_client_id",
			"redirect_uri":  "http://127.0.0.1:8888/callback",
			"state":         "abc--xyz123",
			"scope":         "user-read-private user-read-email user-top-read playlist-modify-private",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("expected %s=%q, got %q", k, v, q.Get(k))
			}
		}
	})

	t.Run("Exchange", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetCode("good-code", "token-1")
		srv := newTestService(t, fake)

		t.Run("Success", func(t *testing.T) {
			token, err := srv.Exchange(context.Background(), "good-code")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "token-1" || token.RefreshToken != "refresh-token-1" {
				t.Errorf("unexpected token: %+v", token)
			}
			if token.Expiry.IsZero() {
				t.Error("expected expiry from expires_in")
			}
		})

		t.Run("Invalid Code", func(t *testing.T) {
			_, err := srv.Exchange(context.Background(), "bad-code")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("TopTracks", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetUser("token-1", models.User{ID: "u1"}, tu.Tracks("a", "b"))
		fake.SetUser("token-2", models.User{ID: "u2"}, nil)
		srv := newTestService(t, fake)

		t.Run("Returns Items In Order", func(t *testing.T) {
			tracks, err := srv.TopTracks(context.Background(), "token-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(tracks) != 2 || tracks[0].ID != "a" || tracks[1].ID != "b" {
				t.Errorf("unexpected tracks: %+v", tracks)
			}
			if tracks[0].Artists[0].Name != "Artist A" || tracks[0].URI != "spotify:track:a" {
				t.Errorf("track fields not passed through: %+v", tracks[0])
			}
		})

		t.Run("Sends Range And Limit", func(t *testing.T) {
			found := false
			for _, r := range fake.Requests() {
				if strings.HasPrefix(r, "GET /v1/me/top/tracks?") &&
					strings.Contains(r, "limit=15") && strings.Contains(r, "time_range=medium_term") {
					found = true
				}
			}
			if !found {
				t.Errorf("expected top tracks request with limit and range, got %v", fake.Requests())
			}
		})

		t.Run("Empty Items", func(t *testing.T) {
			tracks, err := srv.TopTracks(context.Background(), "token-2")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if tracks == nil || len(tracks) != 0 {
				t.Errorf("expected empty non-nil list, got %#v", tracks)
			}
		})

		t.Run("Invalid Token", func(t *testing.T) {
			_, err := srv.TopTracks(context.Background(), "nope")
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 APIError, got %v", err)
			}
			if apiErr.Message != "Invalid access token" {
				t.Errorf("expected provider message, got %q", apiErr.Message)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("APIError should match ErrAPIRequest")
			}
		})

		t.Run("Missing Token", func(t *testing.T) {
			_, err := srv.TopTracks(context.Background(), "")
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("CurrentUser", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetUser("token-1", models.User{ID: "u1", DisplayName: "One"}, nil)
		srv := newTestService(t, fake)

		user, err := srv.CurrentUser(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != "u1" || user.DisplayName != "One" {
			t.Errorf("unexpected user: %+v", user)
		}
	})

	t.Run("CreatePlaylist And AddTracks", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetUser("token-1", models.User{ID: "user one"}, nil)
		srv := newTestService(t, fake)
		ctx := context.Background()

		pl, err := srv.CreatePlaylist(ctx, "token-1", "user one", models.PlaylistRequest{Name: "Blendify Mix"})
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if pl.ExternalURLs.Spotify == "" {
			t.Error("expected external url")
		}

		uris := make([]string, 250)
		for i := range uris {
			uris[i] = fmt.Sprintf("spotify:track:%03d", i)
		}
		if err := srv.AddTracks(ctx, "token-1", pl.ID, uris); err != nil {
			t.Fatalf("failed to add tracks: %v", err)
		}

		req, added, ok := fake.Playlist(pl.ID)
		if !ok || req.Name != "Blendify Mix" {
			t.Fatalf("playlist not recorded: %+v", req)
		}
		if len(added) != 250 || added[0] != uris[0] || added[249] != uris[249] {
			t.Errorf("tracks added out of order or incomplete: %d", len(added))
		}

		calls := 0
		for _, r := range fake.Requests() {
			if r == "POST /v1/playlists/"+pl.ID+"/tracks" {
				calls++
			}
		}
		if calls != 3 {
			t.Errorf("expected 3 chunked requests, got %d", calls)
		}

		escaped := false
		for _, r := range fake.Requests() {
			if r == "POST /v1/users/user%20one/playlists" {
				escaped = true
			}
		}
		if !escaped {
			t.Errorf("expected path-escaped user id, got %v", fake.Requests())
		}
	})

	t.Run("AddTracks Failure", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetUser("token-1", models.User{ID: "u1"}, nil)
		fake.Fail("/v1/playlists/pl1/tracks", http.StatusBadGateway)
		srv := newTestService(t, fake)

		err := srv.AddTracks(context.Background(), "token-1", "pl1", []string{"spotify:track:a"})
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
			t.Errorf("expected 502 APIError, got %v", err)
		}
	})

	t.Run("Transport Errors", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
		srv, err := NewSpotifyService(SpotifyOpts{
			Credentials: shared.SpotifyConfig{ClientID: "c", ClientSecret: "s"},
			HTTPClient:  client,
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.CurrentUser(context.Background(), "token"); err == nil || !strings.Contains(err.Error(), "network down") {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("Decode Errors", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(tu.NewFailingBodyResponse(), nil)}
		srv, err := NewSpotifyService(SpotifyOpts{
			Credentials: shared.SpotifyConfig{ClientID: "c", ClientSecret: "s"},
			HTTPClient:  client,
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.TopTracks(context.Background(), "token"); err == nil || !strings.Contains(err.Error(), "decode") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("Rate Limited Context", func(t *testing.T) {
		fake := tu.NewFakeSpotify(t)
		fake.SetUser("token-1", models.User{ID: "u1"}, nil)

		up := shared.DefaultConfig().Upstream
		up.RateLimit = 0.001
		up.Burst = 1
		srv, err := NewSpotifyService(SpotifyOpts{Credentials: fake.Config(), Upstream: up})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.CurrentUser(context.Background(), "token-1"); err != nil {
			t.Fatalf("first call should use the burst: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if _, err := srv.CurrentUser(ctx, "token-1"); err == nil {
			t.Error("expected limiter to reject the second call within the deadline")
		}
	})
}
