package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// Stores bundles the session and credential stores selected by configuration.
type Stores struct {
	Sessions    models.SessionStore
	Credentials models.CredentialStore
	closer      io.Closer
}

// Close releases the underlying database, if any.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open builds the stores described by cfg. The sqlite backend opens and migrates the configured database.
func Open(cfg *shared.Config) (*Stores, error) {
	switch strings.ToLower(cfg.Sessions.Store) {
	case shared.StoreMemory, "":
		return &Stores{Sessions: NewMemorySessionStore(), Credentials: NewMemoryCredentialStore()}, nil
	case shared.StoreSQLite:
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Sessions:    NewSessionRepository(db),
			Credentials: NewCredentialRepository(db),
			closer:      db,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown session store %q", shared.ErrInvalidConfig, cfg.Sessions.Store)
	}
}

// encodeTracks serializes tracks for a TEXT column. A nil slice is stored as NULL.
func encodeTracks(tracks []models.Track) (sql.NullString, error) {
	if tracks == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tracks)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode tracks: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// decodeTracks is the inverse of [encodeTracks].
func decodeTracks(col sql.NullString) ([]models.Track, error) {
	if !col.Valid {
		return nil, nil
	}
	tracks := []models.Track{}
	if err := json.Unmarshal([]byte(col.String), &tracks); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	return tracks, nil
}

// utc normalizes times before they are written so stored values compare lexically.
func utc(t time.Time) time.Time {
	return t.UTC()
}
