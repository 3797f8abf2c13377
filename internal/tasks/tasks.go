// package tasks implements blend operations between the provider and the session store.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/shared"
)

const (
	DefaultPlaylistName        = "Blendify Mix"
	DefaultPlaylistDescription = "A blended playlist created by Blendify."
	defaultIDAttempts          = 5
	defaultSessionTTL          = 24 * time.Hour
)

// EngineOpts configures a [BlendEngine]. Zero values fall back to defaults.
type EngineOpts struct {
	SessionTTL          time.Duration
	IDAttempts          int
	PlaylistName        string
	PlaylistDescription string
	Logger              *log.Logger
}

// BlendEngine implements create, join, read and save for blend sessions.
type BlendEngine struct {
	svc      services.Service
	sessions models.SessionStore
	opts     EngineOpts
	logger   *log.Logger
	newID    func() (string, error)
	now      func() time.Time
}

// NewBlendEngine creates a [BlendEngine] backed by svc and sessions.
func NewBlendEngine(svc services.Service, sessions models.SessionStore, opts EngineOpts) *BlendEngine {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.IDAttempts <= 0 {
		opts.IDAttempts = defaultIDAttempts
	}
	if opts.PlaylistName == "" {
		opts.PlaylistName = DefaultPlaylistName
	}
	if opts.PlaylistDescription == "" {
		opts.PlaylistDescription = DefaultPlaylistDescription
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &BlendEngine{
		svc:      svc,
		sessions: sessions,
		opts:     opts,
		logger:   logger.With("component", "engine"),
		newID:    shared.GenerateSessionID,
		now:      time.Now,
	}
}

// CreateBlend fetches the first participant's top tracks and stores them under a new session id.
func (e *BlendEngine) CreateBlend(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	tracks, err := e.svc.TopTracks(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top tracks: %w", err)
	}

	for attempt := 1; attempt <= e.opts.IDAttempts; attempt++ {
		id, err := e.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session id: %w", err)
		}

		session := models.NewSession(id, tracks, e.now(), e.opts.SessionTTL)
		err = e.sessions.Create(ctx, session)
		if err == nil {
			e.logger.Info("blend created", "session", id, "tracks", len(tracks))
			return session, nil
		}
		if !errors.Is(err, shared.ErrSessionExists) {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
		e.logger.Warn("session id collision", "session", id, "attempt", attempt)
	}

	return nil, fmt.Errorf("%w: no free id after %d attempts", shared.ErrSessionExists, e.opts.IDAttempts)
}

// JoinBlend fetches the second participant's top tracks and attaches them to sessionID.
//
// The merged list is stored as the session's recommendations in the same update.
// A later join replaces the previous second participant.
func (e *BlendEngine) JoinBlend(ctx context.Context, sessionID, token string) (*models.Session, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	if _, err := e.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	tracks, err := e.svc.TopTracks(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top tracks: %w", err)
	}
	if tracks == nil {
		tracks = []models.Track{}
	}

	session, err := e.sessions.Update(ctx, sessionID, func(s *models.Session) error {
		if s.HasPeer() {
			e.logger.Warn("replacing second participant", "session", sessionID)
		}
		s.User2Tracks = tracks
		s.Recommendations = s.Merged()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("blend joined", "session", sessionID, "tracks", len(tracks))
	return session, nil
}

// Session returns the session with id.
func (e *BlendEngine) Session(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", shared.ErrInvalidInput)
	}
	return e.sessions.Get(ctx, id)
}

// SavePlaylist creates a private playlist on the token owner's account holding the session's recommendations.
func (e *BlendEngine) SavePlaylist(ctx context.Context, token, sessionID string) (*models.Playlist, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	session, err := e.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Recommendations == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoRecommendations, sessionID)
	}

	user, err := e.svc.CurrentUser(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	playlist, err := e.svc.CreatePlaylist(ctx, token, user.ID, models.PlaylistRequest{
		Name:        e.opts.PlaylistName,
		Description: e.opts.PlaylistDescription,
		Public:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	if err := e.svc.AddTracks(ctx, token, playlist.ID, models.URIs(session.Recommendations)); err != nil {
		return nil, fmt.Errorf("failed to add tracks: %w", err)
	}

	e.logger.Info("playlist saved", "session", sessionID, "playlist", playlist.ID, "tracks", len(session.Recommendations))
	return playlist, nil
}
