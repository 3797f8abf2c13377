// package models defines the data model for the blend web service
package models

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Artist is a provider artist reference as embedded in a track.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri,omitempty"`
}

// Album is a provider album reference as embedded in a track.
type Album struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is a playable item as returned by the provider. Fields are passed through without validation.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
	URI        string   `json:"uri"`
	Popularity int      `json:"popularity"`
}

// PrimaryArtist returns the first artist's name, or "Unknown Artist".
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 || t.Artists[0].Name == "" {
		return "Unknown Artist"
	}
	return t.Artists[0].Name
}

// Merge concatenates first and second into a new slice, preserving the order of each.
func Merge(first, second []Track) []Track {
	merged := make([]Track, 0, len(first)+len(second))
	merged = append(merged, first...)
	return append(merged, second...)
}

// URIs returns the playable URI of every track, skipping tracks without one.
func URIs(tracks []Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		}
	}
	return uris
}

// Session correlates two participants' top tracks under one shareable identifier.
//
// A nil User2Tracks means the peer has not joined; an empty non-nil slice means they joined with no tracks.
type Session struct {
	ID              string    `json:"sessionId"`
	User1Tracks     []Track   `json:"user1Tracks"`
	User2Tracks     []Track   `json:"user2Tracks"`
	Recommendations []Track   `json:"recommendations"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

// NewSession creates a session for the first participant expiring ttl after now.
func NewSession(id string, tracks []Track, now time.Time, ttl time.Duration) *Session {
	if tracks == nil {
		tracks = []Track{}
	}
	return &Session{
		ID:          id,
		User1Tracks: tracks,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// HasPeer reports whether the second participant's tracks are present.
func (s *Session) HasPeer() bool {
	return s.User2Tracks != nil
}

// Merged returns the blend: the first participant's tracks followed by the second's.
func (s *Session) Merged() []Track {
	return Merge(s.User1Tracks, s.User2Tracks)
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so store implementations never share slices with callers.
func (s *Session) Clone() *Session {
	c := *s
	c.User1Tracks = cloneTracks(s.User1Tracks)
	c.User2Tracks = cloneTracks(s.User2Tracks)
	c.Recommendations = cloneTracks(s.Recommendations)
	return &c
}

func cloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		t.Artists = append([]Artist(nil), t.Artists...)
		out[i] = t
	}
	return out
}

// Credential holds a provider token server-side. Browsers only see the ID.
type Credential struct {
	ID        string
	Token     *oauth2.Token
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewCredential wraps token in a credential expiring ttl after now.
func NewCredential(id string, token *oauth2.Token, now time.Time, ttl time.Duration) *Credential {
	return &Credential{ID: id, Token: token, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// Expired reports whether the credential is no longer valid at now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// User is the provider account acting on a request.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ExternalURLs holds the provider's public links for a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Playlist is a playlist created on the provider.
type Playlist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URI          string       `json:"uri"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// PlaylistRequest describes a playlist to create.
type PlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// Evictor removes entries that expired at or before now and reports how many were removed.
type Evictor interface {
	Evict(ctx context.Context, now time.Time) (int, error)
}

// SessionStore defines persistence operations for blend sessions.
type SessionStore interface {
	Evictor
	// Create stores a new session. Returns shared.ErrSessionExists if the id is taken.
	Create(ctx context.Context, s *Session) error
	// Get returns a session by id. Returns shared.ErrSessionNotFound if absent or expired.
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the stored session atomically and returns the result.
	// If fn returns an error the session is left unchanged.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	// Delete removes a session. Returns shared.ErrSessionNotFound if absent.
	Delete(ctx context.Context, id string) error
}

// CredentialStore defines persistence operations for server-side provider tokens.
type CredentialStore interface {
	Evictor
	// Create stores a new credential.
	Create(ctx context.Context, c *Credential) error
	// Get returns a credential by id. Returns shared.ErrCredentialNotFound if absent or expired.
	Get(ctx context.Context, id string) (*Credential, error)
	// Delete removes a credential. Returns shared.ErrCredentialNotFound if absent.
	Delete(ctx context.Context, id string) error
}
