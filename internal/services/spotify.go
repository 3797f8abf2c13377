// Spotify API implementation of [OAuthService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxTracksPerRequest is the provider's limit on URIs per add-tracks call.
	maxTracksPerRequest = 100
)

// Scopes requested at login.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"playlist-modify-private",
}

type topTracksResponse struct {
	Items []models.Track `json:"items"`
}

type spotifyErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	Credentials shared.SpotifyConfig
	Upstream    shared.UpstreamConfig
	// HTTPClient defaults to [http.DefaultClient].
	HTTPClient *http.Client
}

// SpotifyService implements [OAuthService] for the Spotify Web API.
// Uses [oauth2] for the authorization-code flow and a [rate.Limiter] for outbound calls.
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	topLimit   int
	timeRange  string
}

// NewSpotifyService creates a new Spotify service with the given credentials and upstream settings.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	creds := opts.Credentials
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	authURL := valueOr(creds.AuthURL, spotifyAuthURL)
	tokenURL := valueOr(creds.TokenURL, spotifyTokenURL)
	apiURL := strings.TrimRight(valueOr(creds.APIURL, spotifyBaseURL), "/")

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	up := opts.Upstream
	limit := rate.Inf
	if up.RateLimit > 0 {
		limit = rate.Limit(up.RateLimit)
	}
	burst := up.Burst
	if burst <= 0 {
		burst = 1
	}

	topLimit := up.TopTracksLimit
	if topLimit <= 0 {
		topLimit = 15
	}

	return &SpotifyService{
		config:     config,
		apiURL:     apiURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
		timeout:    up.Timeout.Duration,
		topLimit:   topLimit,
		timeRange:  valueOr(up.TimeRange, "medium_term"),
	}, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token. Client credentials are sent with HTTP Basic auth.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// doRequest performs an authenticated request against the Web API and decodes a JSON result.
//
// endpoint is appended to the API base URL and must already be escaped.
func (s *SpotifyService) doRequest(ctx context.Context, token, method, endpoint string, body, result any) error {
	if token == "" {
		return shared.ErrNotAuthenticated
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody spotifyErrorBody
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil && json.Unmarshal(data, &errBody) == nil {
			apiErr.Message = errBody.Error.Message
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the profile of the token's owner.
func (s *SpotifyService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := s.doRequest(ctx, token, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopTracks retrieves the user's top tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, token string) ([]models.Track, error) {
	q := url.Values{}
	q.Set("time_range", s.timeRange)
	q.Set("limit", fmt.Sprint(s.topLimit))

	var response topTracksResponse
	if err := s.doRequest(ctx, token, http.MethodGet, "/me/top/tracks?"+q.Encode(), nil, &response); err != nil {
		return nil, err
	}

	if response.Items == nil {
		return []models.Track{}, nil
	}
	return response.Items, nil
}

// CreatePlaylist creates a playlist on userID's account.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, token, userID string, req models.PlaylistRequest) (*models.Playlist, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))

	var playlist models.Playlist
	if err := s.doRequest(ctx, token, http.MethodPost, endpoint, req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracks adds uris to a playlist in chunks of at most 100, preserving order.
func (s *SpotifyService) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(uris))
		body := map[string][]string{"uris": uris[start:end]}
		if err := s.doRequest(ctx, token, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start, end, err)
		}
	}
	return nil
}
