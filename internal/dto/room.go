package dto

// CreateRoomRequest creates a named room; the creator becomes its owner.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required" validate:"required,max=200"`
}

// AddMemberRequest adds or re-roles a member, upserting the target identity.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email" validate:"required,email"`
	Role  string `json:"role" binding:"required" validate:"required,room_role"`
}

// LinkFileRequest links an already imported file into a room.
type LinkFileRequest struct {
	FileID string `json:"file_id" binding:"required" validate:"required"`
}
