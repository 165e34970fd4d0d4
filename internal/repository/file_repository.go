package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dataroom-api/internal/models"
)

// Duplicate sentinels mapped from unique constraint violations on insert.
// A violation means a concurrent import committed the same file first; the
// engine treats it as a late-detected duplicate, not a fatal error.
var (
	ErrDuplicateDriveFileID = errors.New("file exists for owner and drive file id")
	ErrDuplicateSHA256      = errors.New("file exists for owner and content hash")
)

const fileColumns = `id, user_id, drive_file_id, name, mime_type, size_bytes, local_path, sha256, created_at`

// FileRepository provides database access for imported file records.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a new instance of FileRepository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file record. Unique violations on the dedup axes are
// translated to the duplicate sentinels above.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO files (id, user_id, drive_file_id, name, mime_type, size_bytes, local_path, sha256, created_at)
		VALUES (:id, :user_id, :drive_file_id, :name, :mime_type, :size_bytes, :local_path, :sha256, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		switch violatedConstraint(err) {
		case "files_owner_drive_id_key":
			return ErrDuplicateDriveFileID
		case "files_owner_sha256_key":
			return ErrDuplicateSHA256
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// FindByID returns a file by identifier.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE id = $1 LIMIT 1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find file by id: %w", err)
	}
	return &file, nil
}

// FindByOwnerAndDriveID looks up the external-id dedup axis.
func (r *FileRepository) FindByOwnerAndDriveID(ctx context.Context, userID, driveFileID string) (*models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND drive_file_id = $2 LIMIT 1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, userID, driveFileID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find file by drive id: %w", err)
	}
	return &file, nil
}

// FindByOwnerAndSHA256 looks up the content-hash dedup axis.
func (r *FileRepository) FindByOwnerAndSHA256(ctx context.Context, userID, sha256 string) (*models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 AND sha256 = $2 LIMIT 1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, userID, sha256); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find file by hash: %w", err)
	}
	return &file, nil
}

// ListByOwner returns all files imported by a user, most recent first.
func (r *FileRepository) ListByOwner(ctx context.Context, userID string) ([]models.File, error) {
	const query = `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1 ORDER BY created_at DESC`
	var files []models.File
	if err := r.db.SelectContext(ctx, &files, query, userID); err != nil {
		return nil, fmt.Errorf("list files by owner: %w", err)
	}
	return files, nil
}

// ListByRoom returns the files linked into a room with uploader emails.
func (r *FileRepository) ListByRoom(ctx context.Context, roomID string) ([]models.RoomFile, error) {
	const query = `SELECT f.id, f.user_id, f.drive_file_id, f.name, f.mime_type, f.size_bytes, f.local_path, f.sha256, f.created_at, u.email AS uploaded_by
		FROM files f
		JOIN file_room_links l ON l.file_id = f.id
		JOIN users u ON u.id = f.user_id
		WHERE l.room_id = $1
		ORDER BY f.created_at DESC`
	var files []models.RoomFile
	if err := r.db.SelectContext(ctx, &files, query, roomID); err != nil {
		return nil, fmt.Errorf("list files by room: %w", err)
	}
	return files, nil
}

// Delete removes a file record; link rows cascade at the schema level.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM files WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
