package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dataroom-api/internal/models"
)

// AuditRepository appends entries to the immutable audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends one audit entry. The table is append-only; no update or
// delete paths exist.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, actor_user_id, action, object_type, object_id, room_id, ip_address, user_agent, created_at)
		VALUES (:id, :actor_user_id, :action, :object_type, :object_id, :room_id, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByRoom returns a room's audit entries, oldest first, for export.
func (r *AuditRepository) ListByRoom(ctx context.Context, roomID string) ([]models.AuditLog, error) {
	const query = `SELECT id, actor_user_id, action, object_type, object_id, room_id, ip_address, user_agent, created_at
		FROM audit_logs WHERE room_id = $1 ORDER BY created_at ASC`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, roomID); err != nil {
		return nil, fmt.Errorf("list audit logs by room: %w", err)
	}
	return entries, nil
}
