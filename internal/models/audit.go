package models

import "time"

// AuditAction constants represent privileged actions recorded in the trail.
const (
	AuditActionRoomCreate  = "ROOM_CREATE"
	AuditActionMemberAdd   = "ROOM_ADD_MEMBER"
	AuditActionFileLink    = "ROOM_LINK_FILE"
	AuditActionFilePreview = "ROOM_PREVIEW_FILE"
	AuditActionFileDelete  = "ROOM_DELETE_FILE"
)

// AuditLog is an append-only record of a privileged action. Entries are never
// updated or deleted.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	ObjectType  *string   `db:"object_type" json:"object_type,omitempty"`
	ObjectID    *string   `db:"object_id" json:"object_id,omitempty"`
	RoomID      *string   `db:"room_id" json:"room_id,omitempty"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	UserAgent   string    `db:"user_agent" json:"user_agent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RequestContext carries caller provenance into audit entries. Both fields
// degrade to empty rather than failing the write.
type RequestContext struct {
	IP        string
	UserAgent string
}
