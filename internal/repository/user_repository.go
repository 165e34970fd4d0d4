package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dataroom-api/internal/models"
)

// UserRepository provides database access for identities.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, created_at FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, normalizeEmail(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, created_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindOrCreateByEmail upserts an identity by its natural key. The email unique
// constraint is the final authority: a violation on insert means a concurrent
// writer won, so the row is re-fetched instead of failing.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	user, err := r.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	created := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO users (id, email, created_at) VALUES (:id, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, created); err != nil {
		if isUniqueViolation(err) {
			return r.FindByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
