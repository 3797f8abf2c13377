package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// CredentialRepository implements [models.CredentialStore] on the credentials table.
type CredentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

// Create inserts c, replacing any credential with the same id.
func (r *CredentialRepository) Create(ctx context.Context, c *models.Credential) error {
	if c.Token == nil || c.Token.AccessToken == "" {
		return fmt.Errorf("%w: credential has no access token", shared.ErrInvalidInput)
	}

	var expiry sql.NullTime
	if !c.Token.Expiry.IsZero() {
		expiry = sql.NullTime{Time: utc(c.Token.Expiry), Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO credentials (id, access_token, refresh_token, token_type, token_expiry, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Token.AccessToken, c.Token.RefreshToken, c.Token.TokenType, expiry, utc(c.CreatedAt), utc(c.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// Get retrieves a live credential by id.
func (r *CredentialRepository) Get(ctx context.Context, id string) (*models.Credential, error) {
	query := `
		SELECT id, access_token, refresh_token, token_type, token_expiry, created_at, expires_at
		FROM credentials
		WHERE id = ? AND expires_at > ?
	`

	var (
		c                  models.Credential
		token              oauth2.Token
		refresh, tokenType sql.NullString
		expiry             sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, id, utc(r.now())).Scan(
		&c.ID, &token.AccessToken, &refresh, &tokenType, &expiry, &c.CreatedAt, &c.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	token.RefreshToken = refresh.String
	token.TokenType = tokenType.String
	if expiry.Valid {
		token.Expiry = expiry.Time
	}
	c.Token = &token
	return &c, nil
}

// Delete removes the credential with id.
func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, id)
	}
	return nil
}

// Evict deletes every credential that expired at or before now.
func (r *CredentialRepository) Evict(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE expires_at <= ?", utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to evict credentials: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}
