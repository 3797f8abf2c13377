// Client for a running Blendify server
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// DefaultAPIURL is where a local `blendify serve` listens with the example config.
const DefaultAPIURL = "http://127.0.0.1:8888"

// APIService provides methods for reading from a Blendify server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// errorBody is the server's JSON error shape.
type errorBody struct {
	Error string `json:"error"`
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// Session fetches a blend session. Returns [shared.ErrSessionNotFound] when the server answers 404.
func (a *APIService) Session(ctx context.Context, id string) (*models.Session, error) {
	resp, err := a.Get(ctx, "/session/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body errorBody
		if json.Unmarshal(resp.Body, &body) == nil {
			apiErr.Message = body.Error
		}
		if apiErr.NotFound() {
			return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
		}
		return nil, apiErr
	}

	var session models.Session
	if err := json.Unmarshal(resp.Body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

// Health reports whether the server answers its health endpoint.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return errors.Join(shared.ErrServiceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return nil
}
