package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dataroom-api/internal/models"
)

func TestTokenRepositoryFindByUserAndProvider(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "provider", "access_token", "refresh_token", "expires_at", "scope", "token_type", "created_at", "updated_at"}).
		AddRow("t1", "u1", "google", "at", "rt", nil, nil, "Bearer", time.Now(), time.Now())
	mock.ExpectQuery("SELECT .+ FROM oauth_tokens WHERE user_id").
		WithArgs("u1", "google").
		WillReturnRows(rows)

	token, err := repo.FindByUserAndProvider(context.Background(), "u1", "google")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	require.NotNil(t, token.RefreshToken)
	assert.Equal(t, "rt", *token.RefreshToken)
}

func TestTokenRepositoryFindNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery("SELECT .+ FROM oauth_tokens WHERE user_id").
		WithArgs("u1", "google").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserAndProvider(context.Background(), "u1", "google")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTokenRepositoryUpsertPreservesRefreshToken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	// The conflict clause must never clobber a stored refresh token with an
	// empty incoming value.
	mock.ExpectExec(`(?s)INSERT INTO oauth_tokens.+ON CONFLICT \(user_id, provider\) DO UPDATE SET.+refresh_token = COALESCE\(NULLIF\(EXCLUDED\.refresh_token, ''\), oauth_tokens\.refresh_token\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.OAuthToken{UserID: "u1", Provider: "google", AccessToken: "at"}
	require.NoError(t, repo.Upsert(context.Background(), token))
	assert.NotEmpty(t, token.ID)
	assert.False(t, token.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryUpdateAccessToken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE oauth_tokens SET access_token = $3, updated_at = $4 WHERE user_id = $1 AND provider = $2")).
		WithArgs("u1", "google", "fresh", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAccessToken(context.Background(), "u1", "google", "fresh"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
