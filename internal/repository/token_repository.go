package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dataroom-api/internal/models"
)

// TokenRepository persists provider token bundles, one per (user, provider).
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// FindByUserAndProvider returns the token bundle for one (user, provider) pair.
func (r *TokenRepository) FindByUserAndProvider(ctx context.Context, userID, provider string) (*models.OAuthToken, error) {
	const query = `SELECT id, user_id, provider, access_token, refresh_token, expires_at, scope, token_type, created_at, updated_at
		FROM oauth_tokens WHERE user_id = $1 AND provider = $2 LIMIT 1`
	var token models.OAuthToken
	if err := r.db.GetContext(ctx, &token, query, userID, provider); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find token bundle: %w", err)
	}
	return &token, nil
}

// Upsert inserts or replaces the bundle for (user, provider). An incoming nil
// refresh token preserves the stored one; the refresh token is only ever
// overwritten by a non-empty value.
func (r *TokenRepository) Upsert(ctx context.Context, token *models.OAuthToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	const query = `INSERT INTO oauth_tokens (id, user_id, provider, access_token, refresh_token, expires_at, scope, token_type, created_at, updated_at)
		VALUES (:id, :user_id, :provider, :access_token, :refresh_token, :expires_at, :scope, :token_type, :created_at, :updated_at)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), oauth_tokens.refresh_token),
			expires_at = EXCLUDED.expires_at,
			scope = EXCLUDED.scope,
			token_type = EXCLUDED.token_type,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("upsert token bundle: %w", err)
	}
	return nil
}

// UpdateAccessToken persists a refreshed access token in place.
func (r *TokenRepository) UpdateAccessToken(ctx context.Context, userID, provider, accessToken string) error {
	const query = `UPDATE oauth_tokens SET access_token = $3, updated_at = $4 WHERE user_id = $1 AND provider = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, provider, accessToken, time.Now().UTC()); err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	return nil
}
