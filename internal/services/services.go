// package services defines the provider interfaces used by the blend engine and the HTTP layer
package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	"golang.org/x/oauth2"
)

// Service defines the provider operations the blend flow performs on behalf of a user.
//
// token is a provider access token. It is passed through unverified.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// TopTracks returns the user's top tracks for the configured time range.
	TopTracks(ctx context.Context, token string) ([]models.Track, error)

	// CurrentUser returns the account the token belongs to.
	CurrentUser(ctx context.Context, token string) (*models.User, error)

	// CreatePlaylist creates a playlist owned by userID.
	CreatePlaylist(ctx context.Context, token, userID string, req models.PlaylistRequest) (*models.Playlist, error)

	// AddTracks appends uris to a playlist, in order.
	AddTracks(ctx context.Context, token, playlistID string, uris []string) error
}

// OAuthService extends [Service] for providers using the authorization-code flow.
type OAuthService interface {
	Service

	// AuthURL returns the provider authorization URL carrying state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// APIError is a non-2xx response from an upstream API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

// Unwrap lets callers match any upstream failure with errors.Is(err, shared.ErrAPIRequest).
func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// NotFound reports whether the upstream answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
