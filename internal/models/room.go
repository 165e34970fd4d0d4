package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of room roles ordered by descending privilege.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

var roleLevels = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleViewer: 1,
}

// ParseRole validates a role string supplied by a caller.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := roleLevels[role]; !ok {
		return "", fmt.Errorf("invalid role %q", raw)
	}
	return role, nil
}

// Level returns the privilege rank; higher outranks lower.
func (r Role) Level() int {
	return roleLevels[r]
}

// AtLeast reports whether the role meets a minimum privilege threshold.
func (r Role) AtLeast(min Role) bool {
	return roleLevels[r] >= roleLevels[min]
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Room is a named container of files shared under RBAC.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoomWithRole is a room joined with the caller's membership role.
type RoomWithRole struct {
	Room
	Role Role `db:"role" json:"role"`
}

// Membership ties one user to one room with exactly one role. At most one
// membership exists per (user, room); re-adding a member updates the role.
type Membership struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Member is a membership joined with the member's email for listings.
type Member struct {
	Email    string    `db:"email" json:"email"`
	Role     Role      `db:"role" json:"role"`
	JoinedAt time.Time `db:"created_at" json:"joined_at"`
}

// FileRoomLink associates a file with a room; at most one link per pair.
type FileRoomLink struct {
	ID        string    `db:"id" json:"id"`
	FileID    string    `db:"file_id" json:"file_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
