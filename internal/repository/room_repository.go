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

// RoomRepository provides database access for rooms, memberships and links.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new instance of RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO rooms (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// FindRoomByID returns a room by identifier.
func (r *RoomRepository) FindRoomByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, created_at FROM rooms WHERE id = $1 LIMIT 1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find room by id: %w", err)
	}
	return &room, nil
}

// ListRoomsForUser returns rooms the user is a member of, with their role.
func (r *RoomRepository) ListRoomsForUser(ctx context.Context, userID string) ([]models.RoomWithRole, error) {
	const query = `SELECT r.id, r.name, r.created_at, m.role
		FROM rooms r
		JOIN memberships m ON m.room_id = r.id
		WHERE m.user_id = $1
		ORDER BY r.created_at DESC`
	var rooms []models.RoomWithRole
	if err := r.db.SelectContext(ctx, &rooms, query, userID); err != nil {
		return nil, fmt.Errorf("list rooms for user: %w", err)
	}
	return rooms, nil
}

// GetMembership returns the membership row for (user, room) if any.
func (r *RoomRepository) GetMembership(ctx context.Context, userID, roomID string) (*models.Membership, error) {
	const query = `SELECT id, user_id, room_id, role, created_at FROM memberships WHERE user_id = $1 AND room_id = $2 LIMIT 1`
	var membership models.Membership
	if err := r.db.GetContext(ctx, &membership, query, userID, roomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &membership, nil
}

// UpsertMembership creates the membership or overwrites the role in place;
// the (user, room) unique constraint keeps the pair single-rowed.
func (r *RoomRepository) UpsertMembership(ctx context.Context, membership *models.Membership) error {
	if membership.ID == "" {
		membership.ID = uuid.NewString()
	}
	if membership.CreatedAt.IsZero() {
		membership.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO memberships (id, user_id, room_id, role, created_at)
		VALUES (:id, :user_id, :room_id, :role, :created_at)
		ON CONFLICT (user_id, room_id) DO UPDATE SET role = EXCLUDED.role`
	if _, err := r.db.NamedExecContext(ctx, query, membership); err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

// ListMembers returns the members of a room with emails and roles.
func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	const query = `SELECT u.email, m.role, m.created_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC`
	var members []models.Member
	if err := r.db.SelectContext(ctx, &members, query, roomID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// LinkFile associates a file with a room. The insert is idempotent: a second
// link for the same pair is a no-op guarded by the unique constraint.
func (r *RoomRepository) LinkFile(ctx context.Context, link *models.FileRoomLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO file_room_links (id, file_id, room_id, created_at)
		VALUES (:id, :file_id, :room_id, :created_at)
		ON CONFLICT (file_id, room_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, link); err != nil {
		return fmt.Errorf("link file: %w", err)
	}
	return nil
}

// GetLink returns the link row for (file, room) if any.
func (r *RoomRepository) GetLink(ctx context.Context, fileID, roomID string) (*models.FileRoomLink, error) {
	const query = `SELECT id, file_id, room_id, created_at FROM file_room_links WHERE file_id = $1 AND room_id = $2 LIMIT 1`
	var link models.FileRoomLink
	if err := r.db.GetContext(ctx, &link, query, fileID, roomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &link, nil
}
