package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// SessionRepository implements [models.SessionStore] on the sessions table.
//
// Track lists are stored as JSON text. A NULL user2_tracks column means the peer has not joined.
type SessionRepository struct {
	db  *sql.DB
	mu  sync.Mutex // serializes read-modify-write in Update
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Create inserts s. A row left behind by an expired session with the same id is overwritten.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	user1, err := encodeTracks(s.User1Tracks)
	if err != nil {
		return err
	}
	if !user1.Valid {
		user1 = sql.NullString{String: "[]", Valid: true}
	}
	user2, err := encodeTracks(s.User2Tracks)
	if err != nil {
		return err
	}
	recs, err := encodeTracks(s.Recommendations)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, user1_tracks, user2_tracks, recommendations, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user1_tracks = excluded.user1_tracks,
			user2_tracks = excluded.user2_tracks,
			recommendations = excluded.recommendations,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
		WHERE sessions.expires_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID, user1, user2, recs, utc(s.CreatedAt), utc(s.UpdatedAt), utc(s.ExpiresAt), utc(r.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionExists, s.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s                    models.Session
		user1, user2, recs   sql.NullString
		created, updated, ex time.Time
	)

	if err := row.Scan(&s.ID, &user1, &user2, &recs, &created, &updated, &ex); err != nil {
		return nil, err
	}

	var err error
	if s.User1Tracks, err = decodeTracks(user1); err != nil {
		return nil, err
	}
	if s.User2Tracks, err = decodeTracks(user2); err != nil {
		return nil, err
	}
	if s.Recommendations, err = decodeTracks(recs); err != nil {
		return nil, err
	}

	s.CreatedAt, s.UpdatedAt, s.ExpiresAt = created, updated, ex
	return &s, nil
}

const selectSession = `
	SELECT id, user1_tracks, user2_tracks, recommendations, created_at, updated_at, expires_at
	FROM sessions
	WHERE id = ? AND expires_at > ?
`

// Get retrieves a live session by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, selectSession, id, utc(r.now())))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

// Update reads the session, applies fn and writes it back in one transaction.
func (r *SessionRepository) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now()
	s, err := scanSession(tx.QueryRowContext(ctx, selectSession, id, utc(now)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	s.ID = id
	s.UpdatedAt = now

	user1, err := encodeTracks(s.User1Tracks)
	if err != nil {
		return nil, err
	}
	if !user1.Valid {
		user1 = sql.NullString{String: "[]", Valid: true}
	}
	user2, err := encodeTracks(s.User2Tracks)
	if err != nil {
		return nil, err
	}
	recs, err := encodeTracks(s.Recommendations)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE sessions
		SET user1_tracks = ?, user2_tracks = ?, recommendations = ?, updated_at = ?, expires_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query, user1, user2, recs, utc(now), utc(s.ExpiresAt), id); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session update: %w", err)
	}
	return s, nil
}

// Delete removes the session with id.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// Evict deletes every session that expired at or before now.
func (r *SessionRepository) Evict(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to evict sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
