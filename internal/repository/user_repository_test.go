package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{"id", "email", "created_at"}
}

func TestUserRepositoryFindOrCreateReturnsExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u1", "alice@example.com", time.Now()))

	user, err := repo.FindOrCreateByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindOrCreateInsertsWhenMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user, err := repo.FindOrCreateByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A unique violation on insert means a concurrent writer created the row first;
// the repository must return that row rather than an error.
func TestUserRepositoryFindOrCreateRefetchesOnUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("race@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("race@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u-winner", "race@example.com", time.Now()))

	user, err := repo.FindOrCreateByEmail(context.Background(), "race@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-winner", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryNormalizesEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`)).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).AddRow("u2", "bob@example.com", time.Now()))

	user, err := repo.FindByEmail(context.Background(), "  Bob@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, created_at FROM users WHERE id = $1 LIMIT 1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
